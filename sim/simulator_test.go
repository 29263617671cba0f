package sim

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestAnnotatePassthroughIdempotence(t *testing.T) {
	in := []string{
		"// a line comment",
		"/* a block comment */",
		"label:",
		"  inner_label:",
		"--]]*/",
		"",
	}
	got, err := Annotate(in)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(in, got); diff != "" {
		t.Errorf("passthrough lines changed (-want +got):\n%s", diff)
	}
}

func TestAnnotateEchoBlockPassthrough(t *testing.T) {
	in := []string{
		"/*--[[",
		"var x = 1;",
		"push inside source text",
		"--]]*/",
		"push 1",
	}
	got, err := Annotate(in)
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 4; i++ {
		if got[i] != in[i] {
			t.Errorf("line %d changed: %q", i, got[i])
		}
	}
	if !strings.Contains(got[4], "// 1") {
		t.Errorf("instruction after block not annotated: %q", got[4])
	}
}

func TestAnnotateStackRendering(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		want  string // annotation of the last line
	}{
		{
			name:  "push splits operands",
			lines: []string{"push 'a', 1, r:2"},
			want:  "// 'a'|1|r:2",
		},
		{
			name:  "push respects quoted commas",
			lines: []string{"push 'a, b', 2"},
			want:  "// 'a, b'|2",
		},
		{
			name:  "getVariable unquotes",
			lines: []string{"push 'n'", "getVariable"},
			want:  "// n",
		},
		{
			name:  "getMember dotted",
			lines: []string{"push 'o'", "getVariable", "push 'x'", "getMember"},
			want:  "// o.x",
		},
		{
			name:  "getMember computed",
			lines: []string{"push 'o'", "getVariable", "push r:2", "getMember"},
			want:  "// o[r:2]",
		},
		{
			name:  "binary renders infix",
			lines: []string{"push 2, 3", "add"},
			want:  "// 2 + 3",
		},
		{
			name:  "operand parenthesized on same operator",
			lines: []string{"push 1, 2", "add", "push 3", "add"},
			want:  "// (1 + 2) + 3",
		},
		{
			name:  "call renders source order",
			lines: []string{"push 2, 1, 2, 'f'", "callFunction"},
			want:  "// f(1, 2)",
		},
		{
			name:  "method call",
			lines: []string{"push 0, 'o'", "getVariable", "push 'm'", "callMethod"},
			want:  "// o.m()",
		},
		{
			name:  "new renders class",
			lines: []string{"push 2, 1, 2, 'Point'", "new"},
			want:  "// new Point(1, 2)",
		},
		{
			name:  "initArray",
			lines: []string{"push 2, 1, 2", "initArray"},
			want:  "// [1, 2]",
		},
		{
			name:  "not wraps",
			lines: []string{"push r:2", "not"},
			want:  "// !(r:2)",
		},
		{
			name:  "increment",
			lines: []string{"push r:2", "increment"},
			want:  "// r:2 + 1",
		},
		{
			name:  "setRegister is non-consuming",
			lines: []string{"push 5", "setRegister r:1"},
			want:  "// 5",
		},
		{
			name:  "setVariable consumes two",
			lines: []string{"push 'a', 1", "setVariable"},
			want:  "// --",
		},
		{
			name:  "setMember consumes three",
			lines: []string{"push 'o', 'x', 1", "setMember"},
			want:  "// --",
		},
		{
			name:  "debug tag stripped from operands",
			lines: []string{"push r:3 /*temp*/"},
			want:  "// r:3",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Annotate(tt.lines)
			if err != nil {
				t.Fatal(err)
			}
			last := got[len(got)-1]
			i := strings.Index(last, "//")
			if i < 0 {
				t.Fatalf("no annotation on %q", last)
			}
			if ann := last[i:]; ann != tt.want {
				t.Errorf("got %q, want %q", ann, tt.want)
			}
		})
	}
}

func TestAnnotateMethodCallArguments(t *testing.T) {
	// o.m(x, y): args reversed at emission, so pop order is source order
	lines := []string{
		"push 'y'",
		"getVariable",
		"push 'x'",
		"getVariable",
		"push 2, 'o'",
		"getVariable",
		"push 'm'",
		"callMethod",
	}
	got, err := Annotate(lines)
	if err != nil {
		t.Fatal(err)
	}
	last := got[len(got)-1]
	if !strings.Contains(last, "// o.m(x, y)") {
		t.Errorf("got %q", last)
	}
}

func TestAnnotateFunctionFrames(t *testing.T) {
	lines := []string{
		"push 'f'",
		"function2 (r:2='g') (r:1='this')",
		"  push r:g",
		"  return",
		"end",
		"setVariable",
	}
	got, err := Annotate(lines)
	if err != nil {
		t.Fatal(err)
	}
	// Anonymous function2 leaves a function value on the outer stack
	if !strings.Contains(got[1], "// --") {
		t.Errorf("function2 line: %q", got[1])
	}
	if !strings.Contains(got[2], "// r:g") {
		t.Errorf("inner push: %q", got[2])
	}
	if !strings.Contains(got[4], "// 'f'|function") {
		t.Errorf("end line should show outer stack: %q", got[4])
	}
	if !strings.Contains(got[5], "// --") {
		t.Errorf("setVariable: %q", got[5])
	}
}

func TestAnnotateBailoutCompleteness(t *testing.T) {
	lines := []string{
		"function2 'f' () (r:1='this')",
		"  push 1",
		"  branch somewhere",
		"  push 2",
		"  pop",
		"end",
	}
	got, err := Annotate(lines)
	if err != nil {
		t.Fatal(err)
	}
	// The branch line itself is annotated; everything after it in the
	// function passes through untouched until end.
	if !strings.Contains(got[2], "//") {
		t.Errorf("branch line not annotated: %q", got[2])
	}
	if got[3] != lines[3] || got[4] != lines[4] {
		t.Errorf("suppressed lines mutated: %q %q", got[3], got[4])
	}
	if !strings.Contains(got[5], "// --") {
		t.Errorf("end line not annotated: %q", got[5])
	}
}

func TestAnnotateBranchIfTruePopsFirst(t *testing.T) {
	lines := []string{
		"push 1, 2",
		"branchIfTrue somewhere",
	}
	got, err := Annotate(lines)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got[1], "// 1") {
		t.Errorf("got %q", got[1])
	}
}

func TestAnnotateReturnInvariant(t *testing.T) {
	_, err := Annotate([]string{"push 1, 2", "return"})
	if err == nil {
		t.Fatal("expected StackInvariantViolation")
	}
	serr, ok := err.(*Error)
	if !ok {
		t.Fatalf("got %T", err)
	}
	if serr.Line != 2 {
		t.Errorf("error at line %d", serr.Line)
	}
	if !strings.Contains(err.Error(), "StackInvariantViolation") {
		t.Errorf("message %q", err)
	}
}

func TestAnnotatePaddingWidth(t *testing.T) {
	lines := []string{
		"push 1",
		"push 'a longer line here'",
	}
	got, err := Annotate(lines)
	if err != nil {
		t.Fatal(err)
	}
	// Both annotations start at the same column: 4 past the longest line
	wantCol := len(lines[1]) + 4
	for i, line := range got {
		if idx := strings.Index(line, "//"); idx != wantCol {
			t.Errorf("line %d annotation at column %d, want %d: %q", i, idx, wantCol, line)
		}
	}
}

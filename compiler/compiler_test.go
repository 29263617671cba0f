package compiler

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCompileEndToEnd(t *testing.T) {
	src := "function f(v){ return 'x' + (v + 1); }"
	got, err := Compile("test.js", src, Options{Annotate: true})
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}

	var lines []string
	for _, line := range strings.Split(got, "\n") {
		if line != "" {
			lines = append(lines, line)
		}
	}

	want := []string{
		"function2 'f' (r:2='v') (r:1='this')",
		"push 'x', r:v, 1",
		"add",
		"add",
		"return",
		"end // of function f",
	}
	if len(lines) != len(want) {
		t.Fatalf("got %d lines:\n%s", len(lines), got)
	}
	for i, w := range want {
		if !strings.HasPrefix(strings.TrimLeft(lines[i], " "), w) {
			t.Errorf("line %d: got %q, want prefix %q", i, lines[i], w)
		}
	}

	// The simulator annotated the instruction lines
	if !strings.Contains(lines[1], "// 'x'|r:v|1") {
		t.Errorf("push not annotated: %q", lines[1])
	}
	if !strings.Contains(lines[3], "// 'x' + (r:v + 1)") {
		t.Errorf("second add not annotated: %q", lines[3])
	}
}

func TestCompileWithoutAnnotation(t *testing.T) {
	got, err := Compile("test.js", "a = 123;", Options{})
	if err != nil {
		t.Fatal(err)
	}
	want := "push 'a', 123\nsetVariable\npop\n"
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestCompileFramesCodegenErrors(t *testing.T) {
	_, err := Compile("bad.js", "x = 1;\nbreak;", Options{})
	if err == nil {
		t.Fatal("expected an error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "bad.js:2:1") {
		t.Errorf("missing location in %q", msg)
	}
	if !strings.Contains(msg, "BreakOutsideLoop") {
		t.Errorf("missing kind in %q", msg)
	}
	if !strings.Contains(msg, "break;") {
		t.Errorf("missing framed snippet in %q", msg)
	}
	if !strings.Contains(msg, "^") {
		t.Errorf("missing caret in %q", msg)
	}
}

func TestCompileFramesParseErrors(t *testing.T) {
	_, err := Compile("bad.js", "x = ;", Options{})
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(err.Error(), "bad.js:1:") {
		t.Errorf("missing location in %q", err.Error())
	}
}

func TestCompileDebugKeepsPartialOutput(t *testing.T) {
	out, err := Compile("bad.js", "a = 1;\nbreak;", Options{Debug: true})
	if err == nil {
		t.Fatal("expected an error")
	}
	if !strings.Contains(out, "setVariable") {
		t.Errorf("partial output missing, got %q", out)
	}

	out, err = Compile("bad.js", "a = 1;\nbreak;", Options{})
	if err == nil {
		t.Fatal("expected an error")
	}
	if out != "" {
		t.Errorf("non-debug compile returned partial output %q", out)
	}
}

func TestCompileEmptySource(t *testing.T) {
	got, err := Compile("empty.js", "", Options{Annotate: true})
	if err != nil {
		t.Fatal(err)
	}
	if got != "" {
		t.Errorf("got %q", got)
	}
}

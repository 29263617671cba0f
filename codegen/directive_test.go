package codegen

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestDirectivePushAndPop(t *testing.T) {
	src := "// @js2f/push-register-context: r:1=velocity r:4=frame\n" +
		"velocity = frame;\n" +
		"// @js2f/pop-register-context\n" +
		"velocity = frame;\n"
	got := generate(t, src, Options{})
	want := []string{
		// inside the context both names live in registers
		"push r:frame",
		"setRegister r:velocity",
		"pop",
		// after the pop both fall back to named variables
		"push 'velocity'",
		"push 'frame'",
		"getVariable",
		"setVariable",
		"pop",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestDirectiveErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind Kind
	}{
		{
			name: "pop without push",
			src:  "// @js2f/pop-register-context\na();",
			kind: DirectiveMisplaced,
		},
		{
			name: "push inside function",
			src:  "function f(){\n// @js2f/push-register-context: r:5=v\na();\n}",
			kind: DirectiveMisplaced,
		},
		{
			name: "pop inside function",
			src:  "function f(){\n// @js2f/pop-register-context\na();\n}",
			kind: DirectiveMisplaced,
		},
		{
			name: "malformed assignment",
			src:  "// @js2f/push-register-context: r:x=foo\na();",
			kind: DirectiveMalformed,
		},
		{
			name: "register id out of range",
			src:  "// @js2f/push-register-context: r:999=v\na();",
			kind: DirectiveMalformed,
		},
		{
			name: "name assigned twice",
			src:  "// @js2f/push-register-context: r:1=v r:2=v\na();",
			kind: DirectiveMalformed,
		},
		{
			name: "id assigned twice",
			src:  "// @js2f/push-register-context: r:3=a r:3=b\na();",
			kind: DirectiveMalformed,
		},
		{
			name: "no assignments",
			src:  "// @js2f/push-register-context:\na();",
			kind: DirectiveMalformed,
		},
		{
			name: "unknown directive",
			src:  "// @js2f/frobnicate\na();",
			kind: DirectiveMalformed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tryGenerate(tt.src, Options{})
			var cerr *Error
			if !errors.As(err, &cerr) {
				t.Fatalf("got %v, want *Error", err)
			}
			if cerr.Kind != tt.kind {
				t.Errorf("got %s, want %s", cerr.Kind, tt.kind)
			}
		})
	}
}

func TestDirectiveInBlockCommentIgnored(t *testing.T) {
	// Only line comments carry directives
	got := generate(t, "/* @js2f/pop-register-context */\na();", Options{})
	if len(got) == 0 {
		t.Fatal("nothing generated")
	}
}

func TestTrailingPopDirectiveAfterLastStatement(t *testing.T) {
	src := "// @js2f/push-register-context: r:2=v\n" +
		"v = 1;\n" +
		"// @js2f/pop-register-context\n"
	if _, err := tryGenerate(src, Options{}); err != nil {
		t.Fatalf("trailing pop directive failed: %v", err)
	}
}

// Package compiler ties the frontend, the code generator, the push
// coalescer, and the stack simulator into one source-to-assembly pipeline.
package compiler

import (
	"errors"
	"fmt"
	"strings"

	"js2f/codegen"
	"js2f/parser"
	"js2f/sim"
)

// Options selects optional pipeline stages
type Options struct {
	// Annotate runs the stack simulator over the coalesced output.
	Annotate bool
	// EchoSource emits each statement's source as a comment.
	EchoSource bool
	// Debug returns whatever was emitted before a failure alongside the
	// error, so partial state can be inspected.
	Debug bool
}

// Compile turns one source text into annotated assembly. On error the
// returned text is empty unless opts.Debug is set, in which case it holds
// the instructions emitted before the failure.
func Compile(file, src string, opts Options) (string, error) {
	p := parser.NewParser(file, src)
	prog, err := p.Parse()
	if err != nil {
		return "", frameParseError(err)
	}

	gen := codegen.NewGenerator(src, codegen.Options{EchoSource: opts.EchoSource})
	lines, err := gen.Generate(prog)
	if err != nil {
		if opts.Debug {
			return join(lines), frameError(file, src, err)
		}
		return "", frameError(file, src, err)
	}

	lines = codegen.CoalescePushes(lines)

	if opts.Annotate {
		annotated, err := sim.Annotate(lines)
		if err != nil {
			if opts.Debug {
				return join(annotated), fmt.Errorf("%s: %w", file, err)
			}
			return "", fmt.Errorf("%s: %w", file, err)
		}
		lines = annotated
	}
	return join(lines), nil
}

func join(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// frameError decorates a codegen error with a framed source snippet
func frameError(file, src string, err error) error {
	var cerr *codegen.Error
	if errors.As(err, &cerr) && cerr.Node != nil {
		start, end := cerr.Node.Range()
		pos := cerr.Node.Position()
		return fmt.Errorf("%s:%d:%d: %s: %s\n%s",
			file, pos.Line, pos.Column+1, cerr.Kind, cerr.Msg,
			parser.FrameSnippet(src, start, end))
	}
	return fmt.Errorf("%s: %w", file, err)
}

// frameParseError renders a parse failure with its snippet
func frameParseError(err error) error {
	var serr *parser.SyntaxError
	if errors.As(err, &serr) {
		return errors.New(serr.Framed())
	}
	return err
}

package parser

import (
	"fmt"
	"strings"
)

// SyntaxError is a parse failure with enough context to frame the
// offending source span.
type SyntaxError struct {
	File  string
	Pos   Position
	Start int
	End   int
	Msg   string
	src   string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s:%d:%d: %s", e.File, e.Pos.Line, e.Pos.Column+1, e.Msg)
}

// Framed renders the error message followed by the offending source line
// with a caret range underneath.
func (e *SyntaxError) Framed() string {
	return e.Error() + "\n" + FrameSnippet(e.src, e.Start, e.End)
}

// FrameSnippet renders the source line containing [start,end) with a caret
// range marking the span. Spans crossing lines are trimmed to the first line.
func FrameSnippet(src string, start, end int) string {
	if start < 0 || start > len(src) {
		return ""
	}
	if end < start {
		end = start
	}
	if end > len(src) {
		end = len(src)
	}

	lineStart := strings.LastIndexByte(src[:start], '\n') + 1
	lineEnd := strings.IndexByte(src[lineStart:], '\n')
	if lineEnd < 0 {
		lineEnd = len(src)
	} else {
		lineEnd += lineStart
	}
	if end > lineEnd {
		end = lineEnd
	}

	lineNo := 1 + strings.Count(src[:lineStart], "\n")
	prefix := fmt.Sprintf("  %d | ", lineNo)
	gutter := strings.Repeat(" ", len(prefix)-2) + "| "

	caretLen := end - start
	if caretLen < 1 {
		caretLen = 1
	}
	carets := strings.Repeat(" ", start-lineStart) + strings.Repeat("^", caretLen)

	return prefix + src[lineStart:lineEnd] + "\n  " + gutter + carets
}

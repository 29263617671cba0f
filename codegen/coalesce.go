package codegen

import "strings"

// CoalescePushes merges adjacent push instructions into one multi-operand
// push. Merging repeats at the same index so whole runs collapse into a
// single line. Runs once, after all generation.
func CoalescePushes(lines []string) []string {
	out := make([]string, len(lines))
	copy(out, lines)

	for i := 0; i+1 < len(out); {
		if isPush(out[i]) && isPush(out[i+1]) {
			out[i] = out[i] + ", " + pushOperands(out[i+1])
			out = append(out[:i+1], out[i+2:]...)
			continue
		}
		i++
	}
	return out
}

// isPush reports whether a line is a push instruction
func isPush(line string) bool {
	return strings.HasPrefix(strings.TrimLeft(line, " "), "push ")
}

// pushOperands strips the indentation and mnemonic from a push line
func pushOperands(line string) string {
	return strings.TrimPrefix(strings.TrimLeft(line, " "), "push ")
}

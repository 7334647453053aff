package xctest

import (
	"strings"
)

// reassemble turns a raw chunk into complete, terminator-free lines.
// The previous chunk's trailing partial line is stitched onto the front and
// any new trailing partial line is stashed on the session for the next call.
func (s *Session) reassemble(text string) []string {
	if s.Excess != "" {
		text = s.Excess + text
		s.Excess = ""
	}
	// A chunk ending in \r may have split a \r\n pair; hold the \r back until
	// the next chunk shows which terminator it was.
	hold := ""
	if strings.HasSuffix(text, "\r") {
		hold = "\r"
		text = text[:len(text)-1]
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	lines := strings.Split(text, "\n")
	// If the chunk ended exactly on a terminator the final element is empty
	// and gets dropped; otherwise it's an unterminated partial line.
	last := len(lines) - 1
	s.Excess = lines[last] + hold
	return lines[:last]
}

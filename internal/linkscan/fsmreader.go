package linkscan

import "strings"

// fsmReader is the shared primitive set every scanner below is built from,
// ported one-for-one from FSM's read_until_match / read_until_match_chars /
// match_next / match_next_or / get_until / get_until_mismatch. The quirks
// of the originals (no index reset mid read_until_match, no rewind-on-EOF
// distinction in a couple of paths) are preserved deliberately: later
// scanner states depend on the exact retry behaviour they produce.
type fsmReader struct {
	*cursor
}

// readUntilMatch reads forward looking for the literal string s. It returns
// true once the full string has matched in sequence. A byte in termChars
// (or end of buffer) aborts the match and returns false. Note: a byte that
// matches neither the expected next character of s nor a term char does
// NOT reset the match index — scanning simply continues trying to match
// the same position of s against subsequent bytes, exactly as the Python
// original does.
func (r *fsmReader) readUntilMatch(s, termChars string, rewind bool) bool {
	if s == "" {
		return true
	}

	index := 0
	position := r.tell()

	for {
		b, ok := r.readByte()
		if ok && b == s[index] {
			index++
			if index == len(s) {
				return true
			}
			continue
		}

		if !ok || strings.IndexByte(termChars, b) >= 0 {
			if rewind {
				r.seek(position)
			}
			return false
		}
	}
}

// readUntilMatchChars reads one byte at a time until it finds a byte in
// chars (returned with ok=true) or a byte in termChars/end of buffer
// (returns ok=false, rewinding first if requested).
func (r *fsmReader) readUntilMatchChars(chars, termChars string, rewind bool) (byte, bool) {
	position := r.tell()

	for {
		b, ok := r.readByte()
		if !ok {
			if rewind {
				r.seek(position)
			}
			return 0, false
		}
		if strings.IndexByte(chars, b) >= 0 {
			return b, true
		}
		if strings.IndexByte(termChars, b) >= 0 {
			if rewind {
				r.seek(position)
			}
			return 0, false
		}
	}
}

// matchNextOr asserts the very next byte is one of chars, consuming it if
// so. On mismatch it rewinds (if requested) and returns ok=false.
func (r *fsmReader) matchNextOr(chars string, rewind bool) (byte, bool) {
	position := r.tell()

	b, ok := r.readByte()
	if ok && strings.IndexByte(chars, b) >= 0 {
		return b, true
	}
	if rewind {
		r.seek(position)
	}
	return 0, false
}

// matchNext asserts the next len(s) bytes equal s exactly, consuming them
// if so; otherwise rewinds (if requested) and returns false.
func (r *fsmReader) matchNext(s string, rewind bool) bool {
	position := r.tell()

	for i := 0; i < len(s); i++ {
		b, ok := r.readByte()
		if !ok || b != s[i] {
			if rewind {
				r.seek(position)
			}
			return false
		}
	}
	return true
}

// getUntil collects bytes up to (not including) the first byte in
// termChars, or end of buffer.
func (r *fsmReader) getUntil(termChars string) string {
	var result []byte
	for {
		b, ok := r.readByte()
		if !ok || strings.IndexByte(termChars, b) >= 0 {
			return string(result)
		}
		result = append(result, b)
	}
}

// getUntilMismatch collects bytes while each one is present in legalChars,
// stopping at the first byte outside that set or end of buffer.
func (r *fsmReader) getUntilMismatch(legalChars string) string {
	var result []byte
	for {
		b, ok := r.readByte()
		if !ok || strings.IndexByte(legalChars, b) < 0 {
			return string(result)
		}
		result = append(result, b)
	}
}

package linkscan

// linkState is one step of the linkReader scan, in the Pike lexer style:
// it returns the next step to run, or nil to stop (the original's
// FSMExit/self.exit()).
type linkState func() linkState

const (
	httpLiteral        = "http"
	ttpLiteral         = "ttp"
	httpsSuffix   byte = 's'
	finalSuffix   byte = ':'
	doubleSlash        = "//"
	followsHTTP        = "s:"
	legalURLChars      = "ABCDEFGHIJKLMNOPQRSTUVWXYZ" +
		"abcdefghijklmnopqrstuvwxyz" +
		"0123456789" +
		"-._~:/?#[]@!$%&'()*+,;="
)

// linkReader recognises an "http://" or "https://" sequence starting right
// after an already-consumed leading 'h', extracting the run of legal URL
// characters that follows. Grounded on LinkReaderFsm in link_fsm.py.
//
// This is invoked once per 'h' hint found by documentReader, and, on a
// failed match partway through, retries from wherever the cursor landed
// rather than rewinding all the way back — matching the original's
// behaviour of re-entering read_link without resetting state.
type linkReader struct {
	*fsmReader
	matches map[string]struct{}
}

func (l *linkReader) perform() {
	for state := linkState(l.readLink); state != nil; {
		state = state()
	}
}

func (l *linkReader) readLink() linkState {
	if !l.matchNext(ttpLiteral, true) {
		return nil
	}

	next, ok := l.matchNextOr(followsHTTP, true)
	if !ok {
		return l.readLink
	}

	data := make([]byte, 0, 16)
	data = append(data, httpLiteral...)

	if next == httpsSuffix {
		data = append(data, httpsSuffix)

		if !l.matchNext(string(finalSuffix), true) {
			return l.readLink
		}
		next = finalSuffix
	}

	if next != finalSuffix {
		return l.readLink
	}
	data = append(data, finalSuffix)

	if !l.matchNext(doubleSlash, true) {
		return l.readLink
	}
	data = append(data, doubleSlash...)

	url := l.getUntilMismatch(legalURLChars)
	if url != "" {
		data = append(data, url...)
		l.matches[string(data)] = struct{}{}
	}

	return l.readLink
}

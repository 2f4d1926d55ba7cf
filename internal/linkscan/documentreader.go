package linkscan

const (
	httpHintByte byte = 'h'
	tagHintByte  byte = '<'
	urlHint           = "h<"
)

// DocumentReader scans a whole document body for candidate URLs, dispatching
// to a tagReader or linkReader at every 'h' or '<' it finds. Grounded on
// DocumentReaderFsm in link_fsm.py.
type DocumentReader struct {
	scanner *fsmReader
	tag     *tagReader
	link    *linkReader
}

// NewDocumentReader wraps doc for scanning. The returned reader's Scan
// method populates and returns the set of matched URLs.
func NewDocumentReader(doc []byte) *DocumentReader {
	cur := newCursor(doc)
	matches := make(map[string]struct{})

	return &DocumentReader{
		scanner: &fsmReader{cursor: cur},
		tag:     &tagReader{fsmReader: &fsmReader{cursor: cur}, matches: matches},
		link:    &linkReader{fsmReader: &fsmReader{cursor: cur}, matches: matches},
	}
}

// Scan walks the whole document once and returns every distinct URL found,
// by either an http(s):// literal or an <a href="..."> attribute.
func (d *DocumentReader) Scan() []string {
	for {
		hint, ok := d.scanner.readUntilMatchChars(urlHint, "", true)
		if !ok {
			break
		}

		switch hint {
		case tagHintByte:
			d.tag.perform()
		case httpHintByte:
			d.link.perform()
		}
	}

	matches := d.tag.matches // tag and link share the same map
	urls := make([]string, 0, len(matches))
	for u := range matches {
		urls = append(urls, u)
	}
	return urls
}

// ExtractURLs is a convenience wrapper around DocumentReader for callers
// that only need the resulting URL set, not the reader itself.
func ExtractURLs(doc []byte) []string {
	return NewDocumentReader(doc).Scan()
}

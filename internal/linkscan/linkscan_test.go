package linkscan

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
)

func scanSorted(doc string) []string {
	urls := ExtractURLs([]byte(doc))
	sort.Strings(urls)
	return urls
}

func TestExtractURLsFindsBareLink(t *testing.T) {
	doc := "see http://example.test/path?q=1 for details"
	assert.Equal(t, []string{"http://example.test/path?q=1"}, scanSorted(doc))
}

func TestExtractURLsFindsHTTPSLink(t *testing.T) {
	doc := "secure: https://example.test/a"
	assert.Equal(t, []string{"https://example.test/a"}, scanSorted(doc))
}

func TestExtractURLsFindsAnchorHref(t *testing.T) {
	doc := `<a href="http://example.test/anchor">link</a>`
	assert.Equal(t, []string{"http://example.test/anchor"}, scanSorted(doc))
}

func TestExtractURLsFindsAnchorHrefSingleQuoted(t *testing.T) {
	doc := `<a href='http://example.test/single'>link</a>`
	assert.Equal(t, []string{"http://example.test/single"}, scanSorted(doc))
}

func TestExtractURLsIgnoresNonAnchorTags(t *testing.T) {
	doc := `<div href="http://example.test/ignored">not an anchor</div>`
	assert.Empty(t, scanSorted(doc))
}

func TestExtractURLsFindsMultipleDistinctMatches(t *testing.T) {
	doc := `bare http://one.test and <a href="http://two.test">x</a>`
	assert.Equal(t, []string{"http://one.test", "http://two.test"}, scanSorted(doc))
}

func TestExtractURLsDeduplicatesRepeatedMatches(t *testing.T) {
	doc := "http://dup.test seen twice http://dup.test"
	assert.Equal(t, []string{"http://dup.test"}, scanSorted(doc))
}

func TestExtractURLsHandlesTruncatedSchemeAtEOF(t *testing.T) {
	doc := "nothing useful here htt"
	assert.Empty(t, scanSorted(doc))
}

func TestExtractURLsIgnoresHWithoutFollowingScheme(t *testing.T) {
	doc := "hello world, no link here"
	assert.Empty(t, scanSorted(doc))
}

func TestExtractURLsHandlesAnchorMissingHref(t *testing.T) {
	doc := `<a class="x">no href, then a real one http://after.test</a>`
	assert.Equal(t, []string{"http://after.test"}, scanSorted(doc))
}

func TestExtractURLsOnEmptyDocument(t *testing.T) {
	assert.Empty(t, scanSorted(""))
}

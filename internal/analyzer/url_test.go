package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseURLRelativeWithTrailingSlashOrigin(t *testing.T) {
	u, domain, err := ParseURL("http://piapro.net/intl/", "en.html", Options{})
	require.NoError(t, err)
	assert.Equal(t, "http://piapro.net/intl/en.html", u)
	assert.Equal(t, "piapro.net", domain)
}

func TestParseURLRelativeWithoutTrailingSlashOrigin(t *testing.T) {
	u, domain, err := ParseURL("http://piapro.net/intl", "en.html", Options{})
	require.NoError(t, err)
	assert.Equal(t, "http://piapro.net/en.html", u)
	assert.Equal(t, "piapro.net", domain)
}

func TestParseURLIDNAEncodesUnicodeDomain(t *testing.T) {
	origin := "http://xn--pck1ew32ihn2d.com"
	href := "http://初音ミク.com/は/可愛い/です/ね?utf8=✓"

	u, domain, err := ParseURL(origin, href, Options{})
	require.NoError(t, err)

	assert.Equal(t, "xn--pck1ew32ihn2d.com", domain)
	assert.Equal(t,
		"http://xn--pck1ew32ihn2d.com/%E3%81%AF/%E5%8F%AF%E6%84%9B%E3%81%84/%E3%81%A7%E3%81%99/%E3%81%AD?utf8=%E2%9C%93",
		u)
}

func TestParseURLSameDomainKeepsOriginScheme(t *testing.T) {
	u, domain, err := ParseURL("https://example.test/a/b", "/c", Options{})
	require.NoError(t, err)
	assert.Equal(t, "https://example.test/c", u)
	assert.Equal(t, "example.test", domain)
}

func TestParseURLAbsoluteDifferentDomain(t *testing.T) {
	u, domain, err := ParseURL("http://example.test/", "http://other.test/page", Options{})
	require.NoError(t, err)
	assert.Equal(t, "http://other.test/page", u)
	assert.Equal(t, "other.test", domain)
}

func TestParseURLDropsFragmentWhenConfigured(t *testing.T) {
	u, _, err := ParseURL("http://example.test/", "/a#section", Options{DropFragments: true})
	require.NoError(t, err)
	assert.Equal(t, "http://example.test/a", u)
}

func TestParseURLDropsQueryWhenConfigured(t *testing.T) {
	u, _, err := ParseURL("http://example.test/", "/a?x=1", Options{DropQuery: true})
	require.NoError(t, err)
	assert.Equal(t, "http://example.test/a", u)
}

func TestParseURLEncodesQuerySpacesAsPlus(t *testing.T) {
	u, _, err := ParseURL("http://example.test/", "/a?q=two words", Options{})
	require.NoError(t, err)
	assert.Equal(t, "http://example.test/a?q=two+words", u)
}

// Package analyzer resolves the raw href strings a fetched page yields
// into absolute, percent-encoded URLs tagged with their owning domain.
// Ported from original_source/illume/workers/analyzer.py::parse_url.
package analyzer

import (
	"fmt"
	"net/url"
	gopath "path"
	"strings"

	"golang.org/x/net/idna"

	"github.com/cametumbling/crawler-shard/internal/crawlerr"
)

// legalURLChars is the RFC-3986-ish safe set the original's LEGAL_URL_CHARS
// constant defines; net/url's own escaper uses a different safe set, so
// encoding is hand-rolled here rather than delegated to it.
const legalURLChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ" +
	"abcdefghijklmnopqrstuvwxyz" +
	"0123456789" +
	"-._~:/?#[]@!$%&'()*+,;="

// Options controls the two drop flags from the original's config
// (PARSER_DROP_FRAGMENTS, PARSER_DROP_QUERY).
type Options struct {
	DropFragments bool
	DropQuery     bool
}

// tokens mirrors the 5-tuple urlsplit/urlunsplit operate on in the
// original: scheme, netloc, path, query, fragment.
type tokens struct {
	scheme, netloc, path, query, fragment string
}

func split(raw string) tokens {
	u, err := url.Parse(raw)
	if err != nil {
		// urlsplit never errors; the closest Go equivalent of "parse failed"
		// is to treat the whole string as an opaque path.
		return tokens{path: raw}
	}
	return tokens{
		scheme:   u.Scheme,
		netloc:   u.Host,
		path:     u.Path,
		query:    u.RawQuery,
		fragment: u.Fragment,
	}
}

// unsplit recomposes the 5-tuple the way Python's urlunsplit does.
func (t tokens) unsplit() string {
	p := t.path
	if t.netloc != "" || (t.scheme != "" && !strings.HasPrefix(p, "//")) {
		if p != "" && !strings.HasPrefix(p, "/") {
			p = "/" + p
		}
		p = "//" + t.netloc + p
	}

	result := p
	if t.scheme != "" {
		result = t.scheme + ":" + result
	}
	if t.query != "" {
		result += "?" + t.query
	}
	if t.fragment != "" {
		result += "#" + t.fragment
	}
	return result
}

// ParseURL resolves href found on a page fetched from originRaw into an
// absolute URL, returning the resolved URL and its domain (authority).
// This is the 8-step algorithm from parse_url, unchanged in meaning:
//  1. split both URLs into (scheme, netloc, path, query, fragment)
//  2. compare netlocs for an exact string match
//  3. if href has no netloc, infer one (bare "host:port" path, "a.b/c"
//     path reinterpreted as "http://a.b/c", or a same-domain relative path)
//  4. IDNA-encode the netloc whenever it didn't exactly match the origin's
//  5. fill in a scheme (origin's, if same domain; "http" otherwise)
//  6. percent-encode the path against legalURLChars
//  7. percent-encode (or drop) the query, using quote_plus semantics
//  8. percent-encode (or drop) the fragment
func ParseURL(originRaw, href string, opts Options) (resolvedURL string, domain string, err error) {
	origin := split(originRaw)
	t := split(href)

	domainsMatch := t.netloc == origin.netloc

	if t.netloc == "" {
		switch {
		case strings.Contains(t.path, ":"):
			t.netloc = t.path
		case strings.Contains(t.path, "/") && strings.Contains(t.path, "."):
			t = split("http://" + t.path)
			domainsMatch = t.netloc == origin.netloc
		default:
			t.path = mergePath(origin.path, t.path)
			t.netloc = origin.netloc
			domainsMatch = true
		}
	}

	if !domainsMatch {
		encoded, encErr := idna.ToASCII(t.netloc)
		if encErr != nil {
			return "", "", crawlerr.Wrap(crawlerr.CodeParseError, "idna encode of "+t.netloc+" failed", encErr)
		}
		t.netloc = encoded
	}

	if t.scheme == "" {
		if domainsMatch {
			t.scheme = origin.scheme
		} else {
			t.scheme = "http"
		}
	}

	t.path = percentEncode(t.path, legalURLChars)

	if opts.DropQuery {
		t.query = ""
	} else {
		t.query = percentEncodePlus(t.query, legalURLChars)
	}

	if opts.DropFragments {
		t.fragment = ""
	} else {
		t.fragment = percentEncode(t.fragment, legalURLChars)
	}

	return t.unsplit(), t.netloc, nil
}

// mergePath implements the same relative-path merge urljoin(base, ref)
// performs when called with two bare paths (RFC 3986 §5.3): replace the
// last segment of base with ref, unless ref is itself absolute.
func mergePath(basePath, refPath string) string {
	if refPath == "" {
		return basePath
	}
	if strings.HasPrefix(refPath, "/") {
		return refPath
	}

	i := strings.LastIndex(basePath, "/")
	merged := basePath[:i+1] + refPath
	return cleanDotSegments(merged)
}

func cleanDotSegments(p string) string {
	hadTrailingSlash := strings.HasSuffix(p, "/") && p != "/"
	cleaned := gopath.Clean(p)
	if hadTrailingSlash && !strings.HasSuffix(cleaned, "/") {
		cleaned += "/"
	}
	return cleaned
}

func isUnreservedByte(c byte) bool {
	return (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') ||
		c == '_' || c == '.' || c == '-' || c == '~'
}

// percentEncode mirrors Python's quote(s, safe=legalURLChars).
func percentEncode(s, safe string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreservedByte(c) || strings.IndexByte(safe, c) >= 0 {
			b.WriteByte(c)
		} else {
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}

// percentEncodePlus mirrors Python's quote_plus(s, safe=legalURLChars):
// spaces become '+' before the rest is percent-encoded as in quote.
func percentEncodePlus(s, safe string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == ' ':
			b.WriteByte('+')
		case isUnreservedByte(c) || strings.IndexByte(safe, c) >= 0:
			b.WriteByte(c)
		default:
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}

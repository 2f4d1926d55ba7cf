package keyfilter

// Whitelist is a set of domains unconditionally suppressed from the
// dedup decision — their URLs are always dropped (spec §4.5 step 1:
// "drop (return 0)"), never published, regardless of override/recrawl or
// bloom/persistent state. Loaded from FRONTIER_DOMAIN_WHITELIST (spec
// §4.5's opening paragraph; promoted to its own file here since §8's
// scenario table exercises it indirectly via domain suppression).
type Whitelist map[string]struct{}

// NewWhitelist builds a Whitelist from a list of domain names.
func NewWhitelist(domains []string) Whitelist {
	w := make(Whitelist, len(domains))
	for _, d := range domains {
		w[d] = struct{}{}
	}
	return w
}

// Suppresses reports whether domain is on the whitelist and must
// therefore be dropped unconditionally.
func (w Whitelist) Suppresses(domain string) bool {
	_, ok := w[domain]
	return ok
}

// Package keyfilter implements the composite URL/domain dedup decision
// (spec §4.5), ported from original_source/illume/workers/filter.py
// (KeyFilter.handle_url and its priority/should-add/should-ignore
// helpers).
package keyfilter

import (
	"github.com/cametumbling/crawler-shard/internal/bloom"
	"github.com/cametumbling/crawler-shard/internal/model"
	"github.com/cametumbling/crawler-shard/internal/persistfilter"
)

// Filter is the composite decision maker: two bloom filters plus the
// persistent exact store, fronted by a domain whitelist.
type Filter struct {
	DomainBloom *bloom.Filter
	URLBloom    *bloom.Filter
	Persistent  *persistfilter.Filter
	Whitelist   Whitelist
}

// HandleURL runs the full decision procedure for one candidate URL. It
// returns (nil, nil) when the URL should be dropped (steps 1 or 4), or
// the annotated record to publish with fetch_priority assigned (step 6).
func (f *Filter) HandleURL(rec model.URLRecord) (*model.FilteredRecord, error) {
	if f.Whitelist.Suppresses(rec.Domain) {
		return nil, nil
	}

	domainHash := persistfilter.HashKey(rec.Domain)
	urlHash := persistfilter.HashKey(rec.URL)

	domainKnown, err := f.existsDomain(rec.Domain, domainHash)
	if err != nil {
		return nil, err
	}

	urlKnown := false
	if domainKnown {
		urlKnown, err = f.existsURL(rec.URL, domainHash, urlHash)
		if err != nil {
			return nil, err
		}
	}

	shouldPublish := rec.Recrawl || rec.Override

	if domainKnown && urlKnown && !rec.Override && !rec.Recrawl {
		return nil, nil
	}

	// Collapsed per spec §9: the original adds domain_bloom_filter.add
	// twice along two branches for a new domain; exactly one call happens
	// here, regardless of which step below also discovers the domain new.
	if !domainKnown {
		if err := f.DomainBloom.Add([]byte(rec.Domain)); err != nil {
			return nil, err
		}
	}

	if !urlKnown {
		if err := f.Persistent.Add(domainHash, urlHash); err != nil {
			return nil, err
		}
		shouldPublish = true

		if err := f.URLBloom.Add([]byte(rec.URL)); err != nil {
			return nil, err
		}
	}

	if !shouldPublish {
		return nil, nil
	}

	out := model.FilteredRecord{
		URLRecord:     rec,
		FetchPriority: priority(domainKnown, urlKnown, rec.Override, rec.Recrawl),
	}
	return &out, nil
}

// priority assigns fetch_priority using the first-match-wins table from
// spec §4.5, which pins the ordering the original left ambiguous (its
// recrawl check ran before the "domain known, url not known" case; the
// table puts recrawl after it).
func priority(domainKnown, urlKnown, override, recrawl bool) int {
	switch {
	case override:
		return model.PriorityOverride
	case !domainKnown:
		return model.PriorityDomainUnseen
	case domainKnown && !urlKnown:
		return model.PriorityURLUnseen
	case recrawl:
		return model.PriorityRecrawl
	default:
		return model.PriorityDefault
	}
}

func (f *Filter) existsDomain(domain string, domainHash []byte) (bool, error) {
	if !f.DomainBloom.Contains([]byte(domain)) {
		return false, nil
	}
	return f.Persistent.ExistsDomain(domainHash)
}

func (f *Filter) existsURL(url string, domainHash, urlHash []byte) (bool, error) {
	if !f.URLBloom.Contains([]byte(url)) {
		return false, nil
	}
	return f.Persistent.ExistsURL(domainHash, urlHash)
}

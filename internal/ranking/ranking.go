package ranking

import (
	"cpuvalue/internal/pipeline"
	"cpuvalue/internal/search"
	"sort"
)

// Entry is one processor's value score.
type Entry struct {
	Name string `json:"name"`
	// Score is hashrate per dollar, higher is better.
	Score    float64 `json:"score"`
	Link     string  `json:"link"`
	Price    int     `json:"price"`
	Source   string  `json:"source"`
	Hashrate float64 `json:"hashrate"`
}

// Anchor returns the approved listing used to price a record: the first one
// sold by an exclusive vendor with a usable price.
func Anchor(record pipeline.Record, exclusive map[string]struct{}) (search.Listing, bool) {
	for _, listing := range record.Approved {
		if _, ok := exclusive[listing.Source]; !ok {
			continue
		}
		if listing.Price <= 0 || listing.Unparsable() {
			continue
		}
		return listing, true
	}
	return search.Listing{}, false
}

// Rank scores every record that can be anchored to an exclusive vendor and
// orders them by score descending, equal scores are ordered by name.
// Records without an anchor are left out.
func Rank(records []pipeline.Record, exclusive []string) []Entry {
	exclusiveSet := make(map[string]struct{}, len(exclusive))
	for _, domain := range exclusive {
		exclusiveSet[domain] = struct{}{}
	}

	var entries []Entry
	for _, record := range records {
		anchor, ok := Anchor(record, exclusiveSet)
		if !ok {
			continue
		}
		hashrate := record.Candidate.EffectiveHashrate()
		entries = append(entries, Entry{
			Name:     record.Candidate.Name,
			Score:    hashrate / float64(anchor.Price),
			Link:     anchor.Link,
			Price:    anchor.Price,
			Source:   anchor.Source,
			Hashrate: hashrate,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].Name < entries[j].Name
	})
	return entries
}

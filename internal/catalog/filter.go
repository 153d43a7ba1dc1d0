package catalog

import (
	"cpuvalue/pkg/textutil"
)

// DefaultUnbrandedPrefixes mark engineering samples and generic vendor
// strings that never shipped as retail parts.
var DefaultUnbrandedPrefixes = []string{"AMD Eng Sample", "Genuine Intel"}

type Policy struct {
	HashrateMin      float64  `json:"hashrate_min"`
	HashrateMax      float64  `json:"hashrate_max"`
	MinSamples       int      `json:"min_samples"`
	IncludeAMD       bool     `json:"include_amd"`
	IncludeIntel     bool     `json:"include_intel"`
	IncludeOther     bool     `json:"include_other"`
	ExcludeUnbranded bool     `json:"exclude_unbranded"`
	// defaults to DefaultUnbrandedPrefixes when empty
	UnbrandedPrefixes []string `json:"unbranded_prefixes"`
}

func DefaultPolicy() Policy {
	return Policy{
		HashrateMin:      17000,
		HashrateMax:      40000,
		MinSamples:       100,
		IncludeAMD:       true,
		IncludeIntel:     true,
		IncludeOther:     true,
		ExcludeUnbranded: true,
	}
}

type Brand int

const (
	BRAND_OTHER Brand = iota
	BRAND_AMD
	BRAND_INTEL
)

func BrandOf(name string) Brand {
	if textutil.MatchName(name, []string{"amd"}) {
		return BRAND_AMD
	}
	if textutil.MatchName(name, []string{"intel"}) {
		return BRAND_INTEL
	}
	return BRAND_OTHER
}

func (p Policy) includesBrand(name string) bool {
	switch BrandOf(name) {
	case BRAND_AMD:
		return p.IncludeAMD
	case BRAND_INTEL:
		return p.IncludeIntel
	default:
		return p.IncludeOther
	}
}

// Filter applies the policy to the catalog rows and returns the surviving
// candidates in catalog order. Rows that cannot form a valid candidate are
// dropped and returned in `invalid`.
func Filter(rows []Row, policy Policy) (candidates []Candidate, invalid []error) {
	prefixes := policy.UnbrandedPrefixes
	if len(prefixes) == 0 {
		prefixes = DefaultUnbrandedPrefixes
	}

	for rank, row := range rows {
		if row.Hashrate < policy.HashrateMin || row.Hashrate > policy.HashrateMax {
			continue
		}
		if row.Count < policy.MinSamples {
			continue
		}
		if !policy.includesBrand(row.CPU) {
			continue
		}
		if policy.ExcludeUnbranded && textutil.HasAnyPrefix(row.CPU, prefixes) {
			continue
		}

		candidate, err := NewCandidate(rank, row)
		if err != nil {
			invalid = append(invalid, err)
			continue
		}
		candidates = append(candidates, candidate)
	}
	return candidates, invalid
}

package vendors

import (
	"cpuvalue/internal/search"
)

// Tier is the trust classification of a listing's source domain.
type Tier int

const (
	TIER_APPROVED Tier = iota
	TIER_UNVERIFIED
	TIER_UNKNOWN
)

func (t Tier) String() string {
	switch t {
	case TIER_APPROVED:
		return "approved"
	case TIER_UNVERIFIED:
		return "unverified"
	default:
		return "unknown"
	}
}

// Classification is the partition of one candidate's listings by tier, each
// sequence keeps the relative order of the classified input.
type Classification struct {
	Approved   []search.Listing
	Unverified []search.Listing
	Unknown    []search.Listing
}

// Len is the total number of listings across tiers.
func (c Classification) Len() int {
	return len(c.Approved) + len(c.Unverified) + len(c.Unknown)
}

// Classifier maps source domains to tiers using two allowlists, a domain
// present in both is approved.
type Classifier struct {
	approved   map[string]struct{}
	unverified map[string]struct{}
}

func toSet(domains []string) map[string]struct{} {
	set := make(map[string]struct{}, len(domains))
	for _, d := range domains {
		set[d] = struct{}{}
	}
	return set
}

func NewClassifier(approved, unverified []string) Classifier {
	return Classifier{
		approved:   toSet(approved),
		unverified: toSet(unverified),
	}
}

func (c Classifier) Tier(domain string) Tier {
	if _, ok := c.approved[domain]; ok {
		return TIER_APPROVED
	}
	if _, ok := c.unverified[domain]; ok {
		return TIER_UNVERIFIED
	}
	return TIER_UNKNOWN
}

// Classify partitions `listings` into tiers.
func (c Classifier) Classify(listings []search.Listing) Classification {
	var out Classification
	for _, l := range listings {
		switch c.Tier(l.Source) {
		case TIER_APPROVED:
			out.Approved = append(out.Approved, l)
		case TIER_UNVERIFIED:
			out.Unverified = append(out.Unverified, l)
		default:
			out.Unknown = append(out.Unknown, l)
		}
	}
	return out
}

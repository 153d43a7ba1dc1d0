package catalog

import (
	"fmt"
	"math"
)

// Row is a single entry of the raw benchmark catalog.
type Row struct {
	CPU      string  `json:"cpu"`
	Hashrate float64 `json:"hashrate"`
	Count    int     `json:"count"`
}

// Candidate is a processor considered for price search, it is immutable once
// created except for the per-unit hashrate attached by refinement.
type Candidate struct {
	// Rank is the index of the processor in the catalog it was read from.
	Rank     int     `json:"rank"`
	Name     string  `json:"name"`
	Hashrate float64 `json:"hashrate"`
	Samples  int     `json:"samples"`
	// PerUnitHashrate is the best single-package hashrate, nil when not refined.
	PerUnitHashrate *float64 `json:"per_unit_hashrate,omitempty"`
	// Unrefined is set when refinement was attempted and failed.
	Unrefined bool `json:"unrefined,omitempty"`
}

func NewCandidate(rank int, row Row) (Candidate, error) {
	if row.CPU == "" {
		return Candidate{}, fmt.Errorf("catalog row %d: empty cpu name", rank)
	}
	if math.IsNaN(row.Hashrate) || row.Hashrate < 0 {
		return Candidate{}, fmt.Errorf("catalog row %d (%s): invalid hashrate %v", rank, row.CPU, row.Hashrate)
	}
	if row.Count < 0 {
		return Candidate{}, fmt.Errorf("catalog row %d (%s): negative sample count", rank, row.CPU)
	}
	return Candidate{
		Rank:     rank,
		Name:     row.CPU,
		Hashrate: row.Hashrate,
		Samples:  row.Count,
	}, nil
}

// EffectiveHashrate is the hashrate used for value ranking: the per-unit
// figure when refinement succeeded, the aggregate otherwise.
func (c Candidate) EffectiveHashrate() float64 {
	if c.PerUnitHashrate != nil {
		return *c.PerUnitHashrate
	}
	return c.Hashrate
}

// WithPerUnitHashrate returns a copy of the candidate carrying `hashrate`.
func (c Candidate) WithPerUnitHashrate(hashrate float64) Candidate {
	c.PerUnitHashrate = &hashrate
	c.Unrefined = false
	return c
}

// AsUnrefined returns a copy of the candidate flagged as failed to refine.
func (c Candidate) AsUnrefined() Candidate {
	c.PerUnitHashrate = nil
	c.Unrefined = true
	return c
}

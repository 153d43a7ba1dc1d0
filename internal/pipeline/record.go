package pipeline

import (
	"cpuvalue/internal/catalog"
	"cpuvalue/internal/search"
	"cpuvalue/internal/vendors"
	"errors"
	"fmt"
)

// ErrCheckpointMismatch means a checkpoint's archive does not line up with
// its own candidate list and cannot be resumed.
var ErrCheckpointMismatch = errors.New("checkpoint archive does not match its candidates")

// Record is the outcome of searching for one candidate.
type Record struct {
	Candidate  catalog.Candidate `json:"processors_info"`
	Approved   []search.Listing  `json:"approved_vendors"`
	Unverified []search.Listing  `json:"unverified_vendors"`
	Unknown    []search.Listing  `json:"unknown_vendors"`
}

func NewRecord(candidate catalog.Candidate, classified vendors.Classification) Record {
	return Record{
		Candidate:  candidate,
		Approved:   classified.Approved,
		Unverified: classified.Unverified,
		Unknown:    classified.Unknown,
	}
}

// Known reports whether the record has at least one approved or unverified
// listing.
func (r Record) Known() bool {
	return len(r.Approved) > 0 || len(r.Unverified) > 0
}

// State is the persisted form of a run: every candidate of the run and the
// records of the candidates processed so far, in candidate order.
type State struct {
	Candidates []catalog.Candidate `json:"processors_info"`
	Archive    []Record            `json:"archive"`
}

func NewState(candidates []catalog.Candidate) State {
	return State{
		Candidates: candidates,
		Archive:    make([]Record, 0, len(candidates)),
	}
}

// Complete reports whether every candidate has a record.
func (s State) Complete() bool {
	return len(s.Archive) == len(s.Candidates)
}

// Remaining is the number of candidates without a record.
func (s State) Remaining() int {
	return len(s.Candidates) - len(s.Archive)
}

// Validate checks that the archive is a prefix of the candidate list.
func (s State) Validate() error {
	if len(s.Archive) > len(s.Candidates) {
		return fmt.Errorf(
			"%w: %d records for %d candidates",
			ErrCheckpointMismatch, len(s.Archive), len(s.Candidates),
		)
	}
	for i, record := range s.Archive {
		if record.Candidate.Name != s.Candidates[i].Name {
			return fmt.Errorf(
				"%w: record %d is %q, candidate is %q",
				ErrCheckpointMismatch, i, record.Candidate.Name, s.Candidates[i].Name,
			)
		}
	}
	return nil
}

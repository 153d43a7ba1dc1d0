package pipeline

import (
	"fmt"
	"strings"
)

type Mode string

const (
	MODE_AUTO   Mode = "auto"
	MODE_FRESH  Mode = "fresh"
	MODE_RESUME Mode = "resume"
	MODE_REPORT Mode = "report"
)

func ParseMode(text string) (Mode, error) {
	switch mode := Mode(strings.ToLower(strings.TrimSpace(text))); mode {
	case MODE_AUTO, MODE_FRESH, MODE_RESUME, MODE_REPORT:
		return mode, nil
	case "":
		return MODE_AUTO, nil
	}
	return "", fmt.Errorf("unknown mode %q, expected one of auto, fresh, resume, report", text)
}

// ResolveMode turns `requested` into a concrete mode, MODE_AUTO is decided
// by which artifacts exist in the store. A checkpoint only exists for an
// unfinished run, so it wins over older results.
func ResolveMode(requested Mode, store Store) (Mode, error) {
	hasResults, err := store.HasResults()
	if err != nil {
		return "", err
	}
	hasCheckpoint, err := store.HasCheckpoint()
	if err != nil {
		return "", err
	}

	switch requested {
	case MODE_AUTO:
		if hasCheckpoint {
			return MODE_RESUME, nil
		}
		if hasResults {
			return MODE_REPORT, nil
		}
		return MODE_FRESH, nil
	case MODE_RESUME:
		if !hasCheckpoint {
			return "", fmt.Errorf("cannot resume: no checkpoint at %s", store.CheckpointPath())
		}
	case MODE_REPORT:
		if !hasResults {
			return "", fmt.Errorf("cannot report: no results at %s", store.ResultsPath())
		}
	case MODE_FRESH:
	default:
		return "", fmt.Errorf("unknown mode %q", requested)
	}
	return requested, nil
}

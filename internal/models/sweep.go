package models

import (
	"errors"
	"fmt"
)

// ItemResult is the outcome for one token in a batch sweep. Err is nil on success.
type ItemResult struct {
	Token string
	Err   error
}

// SweepResult collects per-token outcomes so a failed item never hides the rest.
type SweepResult struct {
	Items []ItemResult
}

func (r *SweepResult) Add(token string, err error) {
	r.Items = append(r.Items, ItemResult{Token: token, Err: err})
}

func (r SweepResult) Succeeded() []string {
	out := make([]string, 0, len(r.Items))
	for _, it := range r.Items {
		if it.Err == nil {
			out = append(out, it.Token)
		}
	}
	return out
}

func (r SweepResult) Failed() []ItemResult {
	var out []ItemResult
	for _, it := range r.Items {
		if it.Err != nil {
			out = append(out, it)
		}
	}
	return out
}

// Err joins every per-item failure, or returns nil if all items succeeded.
func (r SweepResult) Err() error {
	var errs []error
	for _, it := range r.Failed() {
		errs = append(errs, fmt.Errorf("%s: %w", it.Token, it.Err))
	}
	return errors.Join(errs...)
}

// Package provider defines the metadata lookup contract used to resolve
// canonical show names and episode titles.
package provider

import (
	"context"
	"errors"
	"fmt"
)

// ErrProvider is matched by every *Error.
var ErrProvider = errors.New("metadata provider error")

// Show is a series known to a provider.
type Show struct {
	ID   int
	Name string
	Year int
}

func (s Show) String() string {
	if s.Year > 0 {
		return fmt.Sprintf("%s (%d)", s.Name, s.Year)
	}
	return s.Name
}

// Episode is one provider record for a season/episode number.
type Episode struct {
	ShowID  int
	Season  int
	Number  int
	Title   string
	AirDate string
}

// Provider looks up shows and episodes. Implementations are synchronous.
type Provider interface {
	Name() string
	// SearchShows returns every show matching name. An empty slice is a
	// valid "nothing found" answer, not an error.
	SearchShows(ctx context.Context, name string) ([]Show, error)
	// Episodes returns every record the provider holds for the number.
	// More than one record means the provider data is inconsistent.
	Episodes(ctx context.Context, showID, season, episode int) ([]Episode, error)
}

// Error wraps a failed lookup so callers can tell it apart from "no match".
type Error struct {
	Provider string
	Op       string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return target == ErrProvider
}

// Wrap returns err as a provider *Error, keeping an existing one untouched.
func Wrap(provider, op string, err error) error {
	if err == nil {
		return nil
	}
	var perr *Error
	if errors.As(err, &perr) {
		return err
	}
	return &Error{Provider: provider, Op: op, Err: err}
}

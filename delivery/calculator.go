// Package delivery computes the date an order placed at a given moment will
// be delivered, honoring the daily cutoff and the non-delivery calendar.
package delivery

import (
	"errors"
	"fmt"
	"time"
)

// MaxAdvance bounds how many excluded days are skipped before giving up.
const MaxAdvance = 365

// ErrNoDeliveryDate is returned when every candidate within MaxAdvance days
// is excluded.
var ErrNoDeliveryDate = errors.New("no delivery date available within a year")

// Settings mirrors the delivery configuration row.
type Settings struct {
	CutoffHour     int
	CutoffMinute   int
	ProcessingDays int
}

// DefaultSettings apply until an admin saves their own.
var DefaultSettings = Settings{CutoffHour: 18, CutoffMinute: 0, ProcessingDays: 1}

func (s Settings) Validate() error {
	if s.CutoffHour < 0 || s.CutoffHour > 23 {
		return fmt.Errorf("cutoff hour %d out of range 0-23", s.CutoffHour)
	}
	if s.CutoffMinute < 0 || s.CutoffMinute > 59 {
		return fmt.Errorf("cutoff minute %d out of range 0-59", s.CutoffMinute)
	}
	if s.ProcessingDays < 1 {
		return fmt.Errorf("processing days must be at least 1, got %d", s.ProcessingDays)
	}
	return nil
}

// Exclusion is a day on which nothing is delivered. Yearly exclusions match
// on month and day in every year.
type Exclusion struct {
	Date   time.Time
	Yearly bool
}

// Estimate is the result of Calculate.
type Estimate struct {
	Date     time.Time         `json:"date"`
	Display  string            `json:"display"`
	Messages map[string]string `json:"messages"`
}

// MessageFor returns the message in lang, falling back to Mongolian.
func (e Estimate) MessageFor(lang string) string {
	if m, ok := e.Messages[lang]; ok {
		return m
	}
	return e.Messages[LangMongolian]
}

// Calculate returns the first deliverable date for an order placed at now.
// Dates are evaluated in now's location.
func Calculate(now time.Time, s Settings, exclusions []Exclusion) (Estimate, error) {
	if err := s.Validate(); err != nil {
		return Estimate{}, err
	}

	// wall-clock cutoff, so DST transition days keep the configured hour
	start := midnight(now)
	y, m, d := now.Date()
	cutoff := time.Date(y, m, d, s.CutoffHour, s.CutoffMinute, 0, 0, now.Location())
	if !now.Before(cutoff) {
		start = start.AddDate(0, 0, 1)
	}

	idx := newExclusionIndex(exclusions)
	candidate := start.AddDate(0, 0, s.ProcessingDays)
	for i := 0; idx.excludes(candidate); i++ {
		if i == MaxAdvance {
			return Estimate{}, ErrNoDeliveryDate
		}
		candidate = candidate.AddDate(0, 0, 1)
	}

	return Estimate{
		Date:     candidate,
		Display:  candidate.Format(DisplayLayout),
		Messages: messages(candidate),
	}, nil
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

type monthDay struct {
	month time.Month
	day   int
}

type exclusionIndex struct {
	exact  map[string]struct{}
	yearly map[monthDay]struct{}
}

func newExclusionIndex(exclusions []Exclusion) exclusionIndex {
	idx := exclusionIndex{
		exact:  make(map[string]struct{}, len(exclusions)),
		yearly: make(map[monthDay]struct{}),
	}
	for _, e := range exclusions {
		if e.Yearly {
			idx.yearly[monthDay{e.Date.Month(), e.Date.Day()}] = struct{}{}
			continue
		}
		idx.exact[e.Date.Format(DisplayLayout)] = struct{}{}
	}
	return idx
}

func (x exclusionIndex) excludes(t time.Time) bool {
	if _, ok := x.exact[t.Format(DisplayLayout)]; ok {
		return true
	}
	_, ok := x.yearly[monthDay{t.Month(), t.Day()}]
	return ok
}

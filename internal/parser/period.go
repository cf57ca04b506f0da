package parser

import (
	"time"

	"github.com/example/pocket-assistant/internal/extract"
)

// PeriodKind names a calendar range.
type PeriodKind int

const (
	PeriodToday PeriodKind = iota
	PeriodTomorrow
	PeriodWeek
	PeriodMonth
)

func (k PeriodKind) String() string {
	switch k {
	case PeriodTomorrow:
		return "tomorrow"
	case PeriodWeek:
		return "week"
	case PeriodMonth:
		return "month"
	default:
		return "today"
	}
}

// Period is a half-open range [Start, End) in the reference location.
type Period struct {
	Kind  PeriodKind
	Start time.Time
	End   time.Time
	// Explicit is false when no keyword matched and the default applied.
	Explicit bool
}

// Contains reports whether t falls inside the period.
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}

var periodKeywords = []struct {
	kind  PeriodKind
	words []string
}{
	{kind: PeriodToday, words: []string{"hoje", "today"}},
	{kind: PeriodTomorrow, words: []string{"amanha", "tomorrow"}},
	{kind: PeriodWeek, words: []string{"semana", "week"}},
	{kind: PeriodMonth, words: []string{"mes", "month"}},
}

// ParsePeriod classifies text as today, tomorrow, this week or this month,
// checking in that order, and defaults to today. Weeks run Monday to
// Monday; months from the first to the first.
func ParsePeriod(text string, ref time.Time) Period {
	kind, explicit := PeriodToday, false

	tokens := extract.Tokenize(text)
search:
	for _, candidate := range periodKeywords {
		for _, tok := range tokens {
			for _, word := range candidate.words {
				if tok.Norm == word {
					kind, explicit = candidate.kind, true
					break search
				}
			}
		}
	}

	period := PeriodFor(kind, ref)
	period.Explicit = explicit
	return period
}

// PeriodFor computes the range of kind containing (or, for tomorrow,
// following) ref.
func PeriodFor(kind PeriodKind, ref time.Time) Period {
	y, m, d := ref.Date()
	loc := ref.Location()
	day := time.Date(y, m, d, 0, 0, 0, 0, loc)

	var start, end time.Time
	switch kind {
	case PeriodTomorrow:
		start = day.AddDate(0, 0, 1)
		end = day.AddDate(0, 0, 2)
	case PeriodWeek:
		offset := (int(day.Weekday()) + 6) % 7
		start = day.AddDate(0, 0, -offset)
		end = start.AddDate(0, 0, 7)
	case PeriodMonth:
		start = time.Date(y, m, 1, 0, 0, 0, 0, loc)
		end = start.AddDate(0, 1, 0)
	default:
		start = day
		end = day.AddDate(0, 0, 1)
	}
	return Period{Kind: kind, Start: start, End: end}
}

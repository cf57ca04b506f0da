package parser

import (
	"time"

	"github.com/example/pocket-assistant/internal/extract"
	"github.com/example/pocket-assistant/internal/persistence"
)

// Meeting is a parsed create-meeting command.
type Meeting struct {
	Title         string
	Start         time.Time
	Location      string
	Attendees     []string
	RemindEnabled bool
}

// NewMeeting converts the payload into its repository form.
func (m Meeting) NewMeeting() persistence.NewMeeting {
	return persistence.NewMeeting{
		Title:         m.Title,
		Start:         m.Start,
		Location:      m.Location,
		Attendees:     m.Attendees,
		RemindEnabled: m.RemindEnabled,
	}
}

// ParseMeeting reads "<date/time>: <title> [@location] [com a, b e c]".
// The header must resolve to an instant. Reminders are enabled for every
// parsed meeting.
func ParseMeeting(text string, ref time.Time) (Meeting, error) {
	sep := separatorIndex(text)
	if sep < 0 {
		return Meeting{}, ErrMissingSeparator
	}

	header, body := text[:sep], text[sep+1:]
	dt, ok := extract.ParseDateTime(header, ref)
	if !ok {
		return Meeting{}, ErrInvalidDateTime
	}

	meeting := Meeting{Start: dt.At, RemindEnabled: true}

	_, body = extract.Tags(body)
	if location, rest, ok := extract.Location(body); ok {
		meeting.Location, body = location, rest
	}
	meeting.Attendees, body = extract.Attendees(body)

	meeting.Title = extract.Squash(body)
	if meeting.Title == "" {
		return Meeting{}, ErrEmptyTitle
	}
	return meeting, nil
}

// separatorIndex returns the byte offset of the first ':' that is not
// between two digits, so "10:30" is kept whole.
func separatorIndex(text string) int {
	for i := 0; i < len(text); i++ {
		if text[i] != ':' {
			continue
		}
		if i > 0 && i+1 < len(text) && isDigit(text[i-1]) && isDigit(text[i+1]) {
			continue
		}
		return i
	}
	return -1
}

func isDigit(b byte) bool {
	return '0' <= b && b <= '9'
}

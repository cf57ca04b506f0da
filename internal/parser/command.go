package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/example/pocket-assistant/internal/extract"
)

// ParseID reads a positive integer identifier from the first word of text.
// A leading '#' is accepted.
func ParseID(text string) (int64, error) {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return 0, ErrMissingArgument
	}
	return parseID(fields[0])
}

func parseID(word string) (int64, error) {
	word = strings.TrimPrefix(word, "#")
	id, err := strconv.ParseInt(word, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidID
	}
	return id, nil
}

// TaskRef selects a task either by id or by a title keyword.
type TaskRef struct {
	ID      int64
	Keyword string
}

// ParseTaskRef treats text that is a single identifier as an id and
// anything else as a keyword.
func ParseTaskRef(text string) (TaskRef, error) {
	text = extract.Squash(text)
	if text == "" {
		return TaskRef{}, ErrMissingArgument
	}
	if !strings.Contains(text, " ") {
		if id, err := parseID(text); err == nil {
			return TaskRef{ID: id}, nil
		}
	}
	return TaskRef{Keyword: text}, nil
}

// Snooze is a parsed snooze-meeting command.
type Snooze struct {
	MeetingID int64
	Minutes   int
}

// Duration is the shift applied to the meeting start.
func (s Snooze) Duration() time.Duration {
	return time.Duration(s.Minutes) * time.Minute
}

var snoozeDurations = map[string]int{
	"15": 15, "15m": 15, "15min": 15, "15mins": 15, "15minutos": 15,
	"30": 30, "30m": 30, "30min": 30, "30mins": 30, "30minutos": 30,
	"60": 60, "60m": 60, "60min": 60, "60minutos": 60,
	"1h": 60, "1hora": 60, "1hour": 60,
}

// ParseSnooze reads "<meeting id> <duration>" where the duration is one of
// 15 minutes, 30 minutes or one hour.
func ParseSnooze(text string) (Snooze, error) {
	fields := strings.Fields(text)
	if len(fields) < 2 {
		return Snooze{}, ErrMissingArgument
	}

	id, err := parseID(fields[0])
	if err != nil {
		return Snooze{}, err
	}

	minutes, ok := snoozeDurations[extract.Fold(strings.Join(fields[1:], ""))]
	if !ok {
		return Snooze{}, ErrInvalidDuration
	}
	return Snooze{MeetingID: id, Minutes: minutes}, nil
}

// DigestTime is a wall-clock time of day.
type DigestTime struct {
	Hour   int
	Minute int
}

func (d DigestTime) String() string {
	return fmt.Sprintf("%02d:%02d", d.Hour, d.Minute)
}

var digestTimePattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)

// ParseDigestTime reads "HH:MM" with the hour in [0,23] and the minute in
// [0,59].
func ParseDigestTime(text string) (DigestTime, error) {
	m := digestTimePattern.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return DigestTime{}, ErrInvalidDateTime
	}
	hour, _ := strconv.Atoi(m[1])
	minute, _ := strconv.Atoi(m[2])
	if hour > 23 || minute > 59 {
		return DigestTime{}, ErrInvalidDateTime
	}
	return DigestTime{Hour: hour, Minute: minute}, nil
}

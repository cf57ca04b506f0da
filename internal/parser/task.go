package parser

import (
	"time"

	"github.com/example/pocket-assistant/internal/extract"
	"github.com/example/pocket-assistant/internal/persistence"
)

// Task is a parsed add-task command.
type Task struct {
	Title string
	Due   *time.Time
	Tag   string
}

// NewTask converts the payload into its repository form.
func (t Task) NewTask() persistence.NewTask {
	return persistence.NewTask{Title: t.Title, Due: t.Due, Tag: t.Tag}
}

// ParseTask reads "<title> [date/time] [#tag]". The first tag is kept and
// any others are dropped. The due time is optional; the title is not.
func ParseTask(text string, ref time.Time) (Task, error) {
	var task Task

	task.Tag, text = extract.FirstTag(text)

	if dt, ok := extract.ParseDateTime(text, ref); ok {
		due := dt.At
		task.Due = &due
		text = dt.Remainder
	}

	task.Title = extract.Squash(text)
	if task.Title == "" {
		return Task{}, ErrEmptyTitle
	}
	return task, nil
}

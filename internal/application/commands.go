package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/pocket-assistant/internal/parser"
	"github.com/example/pocket-assistant/internal/persistence"
	"github.com/example/pocket-assistant/internal/render"
)

const (
	entityTask    = "task"
	entityMeeting = "meeting"
)

const (
	hintTask       = "Não consegui perceber a tarefa. Exemplo: add tarefa pagar conta às 14h #finanças"
	hintTaskRef    = "Indique o ID ou uma palavra-chave da tarefa. Exemplo: concluir tarefa 5"
	hintTaskID     = "Indique o ID da tarefa. Exemplo: remover tarefa 5"
	hintMeeting    = "Não consegui perceber a reunião. Exemplo: reunião amanhã às 10h: alinhamento @Sala 2 com João"
	hintMeetingID  = "Indique o ID da reunião. Exemplo: cancelar reunião 5"
	hintSnooze     = "Indique o ID e o tempo. Exemplo: soneca 5 30m"
	hintSnoozeID   = "Indique o ID da reunião. Exemplo: soneca 5 30m"
	hintSnoozeTime = "Tempo inválido. Use 15m, 30m ou 1h"
	hintExpense    = "Não consegui perceber a despesa. Exemplo: despesa 12.50 almoço café central"
	hintAmount     = "Valor inválido. Use um número positivo, por exemplo 12.50"
	hintDigestTime = "Formato inválido. Use HH:MM, por exemplo: config resumo 07:30"
)

func (a *Assistant) addTask(ctx context.Context, args string) (string, error) {
	parsed, err := parser.ParseTask(args, a.localNow())
	if err != nil {
		return "", &ParseError{Command: "add-task", Hint: hintTask, Err: err}
	}

	task, err := a.store.CreateTask(ctx, parsed.NewTask())
	if err != nil {
		return "", mapWriteError(err, "title", hintTask)
	}
	return a.render.TaskCreated(task, a.now()), nil
}

func (a *Assistant) listTasks(ctx context.Context, args string) (string, error) {
	filter := persistence.TaskFilter{Status: persistence.TaskOpen}
	if strings.TrimSpace(args) != "" {
		period := parser.ParsePeriod(args, a.localNow())
		filter.From, filter.To = &period.Start, &period.End
	}

	tasks, err := a.store.ListTasks(ctx, filter)
	if err != nil {
		return "", fmt.Errorf("list tasks: %w", err)
	}
	return a.render.TaskList(tasks, a.now()), nil
}

func (a *Assistant) completeTask(ctx context.Context, args string) (string, error) {
	ref, err := parser.ParseTaskRef(args)
	if err != nil {
		return "", &ParseError{Command: "complete-task", Hint: hintTaskRef, Err: err}
	}

	var task persistence.Task
	if ref.ID != 0 {
		task, err = a.store.GetTask(ctx, ref.ID)
		if err != nil {
			return "", mapLookupError(err, entityTask, fmt.Sprintf("#%d", ref.ID))
		}
	} else {
		task, err = a.store.FindTaskByKeyword(ctx, ref.Keyword)
		if err != nil {
			return "", mapLookupError(err, entityTask, ref.Keyword)
		}
	}

	if _, err := task.Status.Complete(); err != nil {
		return "", alreadyDone(task.ID)
	}
	completed, err := a.store.CompleteTask(ctx, task.ID)
	switch {
	case errors.Is(err, persistence.ErrConflict):
		return "", alreadyDone(task.ID)
	case err != nil:
		return "", mapLookupError(err, entityTask, fmt.Sprintf("#%d", task.ID))
	}
	return a.render.TaskCompleted(completed), nil
}

func alreadyDone(id int64) error {
	return newValidationError("status", fmt.Sprintf("Tarefa #%d já está concluída.", id))
}

func (a *Assistant) deleteTask(ctx context.Context, args string) (string, error) {
	id, err := parser.ParseID(args)
	if err != nil {
		return "", &ParseError{Command: "delete-task", Hint: hintTaskID, Err: err}
	}
	if err := a.store.DeleteTask(ctx, id); err != nil {
		return "", mapLookupError(err, entityTask, fmt.Sprintf("#%d", id))
	}
	return a.render.TaskDeleted(id), nil
}

func (a *Assistant) createMeeting(ctx context.Context, args string) (string, error) {
	parsed, err := parser.ParseMeeting(args, a.localNow())
	if err != nil {
		return "", &ParseError{Command: "create-meeting", Hint: hintMeeting, Err: err}
	}

	meeting, err := a.store.CreateMeeting(ctx, parsed.NewMeeting())
	if err != nil {
		return "", mapWriteError(err, "title", hintMeeting)
	}
	a.mirrorMeeting(ctx, meeting)
	return a.render.MeetingCreated(meeting, a.now()), nil
}

func (a *Assistant) listMeetings(ctx context.Context, args string) (string, error) {
	var filter persistence.RangeFilter
	if strings.TrimSpace(args) != "" {
		period := parser.ParsePeriod(args, a.localNow())
		filter.From, filter.To = &period.Start, &period.End
	} else {
		today := parser.PeriodFor(parser.PeriodToday, a.localNow())
		filter.From = &today.Start
	}

	meetings, err := a.store.ListMeetings(ctx, filter)
	if err != nil {
		return "", fmt.Errorf("list meetings: %w", err)
	}
	return a.render.MeetingList(meetings, a.now()), nil
}

func (a *Assistant) deleteMeeting(ctx context.Context, args string) (string, error) {
	id, err := parser.ParseID(args)
	if err != nil {
		return "", &ParseError{Command: "delete-meeting", Hint: hintMeetingID, Err: err}
	}
	if err := a.store.DeleteMeeting(ctx, id); err != nil {
		return "", mapLookupError(err, entityMeeting, fmt.Sprintf("#%d", id))
	}
	a.unmirrorMeeting(ctx, id)
	return a.render.MeetingDeleted(id), nil
}

func (a *Assistant) snoozeMeeting(ctx context.Context, args string) (string, error) {
	snooze, err := parser.ParseSnooze(args)
	if err != nil {
		hint := hintSnooze
		switch {
		case errors.Is(err, parser.ErrInvalidID):
			hint = hintSnoozeID
		case errors.Is(err, parser.ErrInvalidDuration):
			hint = hintSnoozeTime
		}
		return "", &ParseError{Command: "snooze-meeting", Hint: hint, Err: err}
	}

	ref := fmt.Sprintf("#%d", snooze.MeetingID)
	meeting, err := a.store.GetMeeting(ctx, snooze.MeetingID)
	if err != nil {
		return "", mapLookupError(err, entityMeeting, ref)
	}

	moved, err := a.store.UpdateMeetingStart(ctx, meeting.ID, meeting.Start.Add(snooze.Duration()))
	if err != nil {
		return "", mapLookupError(err, entityMeeting, ref)
	}
	a.mirrorMeeting(ctx, moved)
	return a.render.Snoozed(moved, a.now()), nil
}

func (a *Assistant) addExpense(ctx context.Context, args string) (string, error) {
	parsed, err := parser.ParseExpense(args)
	switch {
	case errors.Is(err, parser.ErrInvalidAmount):
		return "", newValidationError("amount", hintAmount)
	case err != nil:
		return "", &ParseError{Command: "add-expense", Hint: hintExpense, Err: err}
	}

	expense, err := a.store.CreateExpense(ctx, parsed.NewExpense())
	if err != nil {
		return "", mapWriteError(err, "amount", hintExpense)
	}
	return a.render.ExpenseCreated(expense), nil
}

func (a *Assistant) listExpenses(ctx context.Context, args string) (string, error) {
	period := parser.ParsePeriod(args, a.localNow())

	total, err := a.store.ExpenseTotal(ctx, period.Start, period.End)
	if err != nil {
		return "", fmt.Errorf("expense total: %w", err)
	}
	categories, err := a.store.ExpenseBreakdown(ctx, period.Start, period.End)
	if err != nil {
		return "", fmt.Errorf("expense breakdown: %w", err)
	}
	return a.render.ExpenseSummary(render.PeriodLabel(period.Kind), total, categories), nil
}

func (a *Assistant) report(ctx context.Context, args string) (string, error) {
	period := parser.ParsePeriod(args, a.localNow())
	from, to := period.Start, period.End

	done, err := a.store.ListTasks(ctx, persistence.TaskFilter{Status: persistence.TaskDone, From: &from, To: &to})
	if err != nil {
		return "", fmt.Errorf("list done tasks: %w", err)
	}
	open, err := a.store.ListTasks(ctx, persistence.TaskFilter{Status: persistence.TaskOpen, From: &from, To: &to})
	if err != nil {
		return "", fmt.Errorf("list open tasks: %w", err)
	}
	meetings, err := a.store.ListMeetings(ctx, persistence.RangeFilter{From: &from, To: &to})
	if err != nil {
		return "", fmt.Errorf("list meetings: %w", err)
	}
	total, err := a.store.ExpenseTotal(ctx, from, to)
	if err != nil {
		return "", fmt.Errorf("expense total: %w", err)
	}
	categories, err := a.store.ExpenseBreakdown(ctx, from, to)
	if err != nil {
		return "", fmt.Errorf("expense breakdown: %w", err)
	}

	return a.render.Report(render.Report{
		Label:         render.PeriodLabel(period.Kind),
		DoneTasks:     len(done),
		OpenTasks:     len(open),
		Meetings:      len(meetings),
		ExpenseTotal:  total,
		TopCategories: categories,
	}), nil
}

func (a *Assistant) backup(ctx context.Context) (string, error) {
	to := a.now()
	from := to.Add(-render.BackupDays * 24 * time.Hour)

	tasks, err := a.store.ListTasks(ctx, persistence.TaskFilter{From: &from, To: &to})
	if err != nil {
		return "", fmt.Errorf("list tasks: %w", err)
	}
	expenses, err := a.store.ListExpenses(ctx, persistence.RangeFilter{From: &from, To: &to})
	if err != nil {
		return "", fmt.Errorf("list expenses: %w", err)
	}
	return a.render.Backup(tasks, expenses)
}

func (a *Assistant) configDigest(ctx context.Context, args string) (string, error) {
	t, err := parser.ParseDigestTime(args)
	if err != nil {
		return "", &ParseError{Command: "config-digest", Hint: hintDigestTime, Err: err}
	}
	if err := a.SetDigestTime(ctx, t); err != nil {
		return "", err
	}
	return a.render.ConfigUpdated("resumo diário", t.String()), nil
}

// mapLookupError turns a missing row into a NotFoundError and passes any
// other failure through.
func mapLookupError(err error, entity, ref string) error {
	if errors.Is(err, persistence.ErrNotFound) {
		return &NotFoundError{Entity: entity, Ref: ref}
	}
	return err
}

// mapWriteError turns a rejected write into a ValidationError.
func mapWriteError(err error, field, hint string) error {
	if errors.Is(err, persistence.ErrConstraintViolation) {
		return newValidationError(field, hint)
	}
	return err
}

package application_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/pocket-assistant/internal/application"
	"github.com/example/pocket-assistant/internal/persistence"
	"github.com/example/pocket-assistant/internal/persistence/memory"
	"github.com/example/pocket-assistant/internal/router"
	"github.com/example/pocket-assistant/internal/testfixtures"
)

type recordingRescheduler struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (r *recordingRescheduler) Reschedule(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return r.err
}

type recordingCalendar struct {
	synced  []persistence.Meeting
	removed []int64
	err     error
}

func (c *recordingCalendar) SyncMeeting(_ context.Context, meeting persistence.Meeting) error {
	c.synced = append(c.synced, meeting)
	return c.err
}

func (c *recordingCalendar) RemoveMeeting(_ context.Context, id int64) error {
	c.removed = append(c.removed, id)
	return c.err
}

type harness struct {
	assistant *application.Assistant
	store     persistence.Store
	clock     *testfixtures.Clock
	digest    *recordingRescheduler
	calendar  *recordingCalendar
	ids       *testfixtures.IDGenerator
}

func newHarness(t *testing.T, store persistence.Store) *harness {
	t.Helper()
	clock := testfixtures.NewClock(time.Time{})
	if store == nil {
		store = memory.New(clock.NowFunc())
	}
	h := &harness{
		store:    store,
		clock:    clock,
		digest:   &recordingRescheduler{},
		calendar: &recordingCalendar{},
		ids:      testfixtures.NewIDGenerator(""),
	}
	h.assistant = testfixtures.NewServiceFactory(testfixtures.WithClock(clock)).NewAssistant(testfixtures.AssistantDeps{
		Store:    store,
		Digest:   h.digest,
		Calendar: h.calendar,
	})
	return h
}

func (h *harness) send(t *testing.T, text string) application.Reply {
	t.Helper()
	return h.assistant.Handle(context.Background(), application.Message{ID: h.ids.Next(), From: "351900000000", Text: text})
}

func TestAssistantAddTaskEndToEnd(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	reply := h.send(t, "add tarefa pagar conta às 14h #finanças")

	require.NoError(t, reply.Err)
	assert.Equal(t, router.AddTask, reply.Command)
	assert.Equal(t, "✅ Tarefa criada (#1): pagar conta\n⏰ hoje às 14:00\n🏷️ #finanças", reply.Text)

	task, err := h.store.GetTask(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "pagar conta", task.Title)
	assert.Equal(t, "finanças", task.Tag)
	require.NotNil(t, task.Due)
	assert.True(t, testfixtures.At(2024, time.May, 1, 14, 0).Equal(*task.Due))
}

func TestAssistantAddExpenseEndToEnd(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	reply := h.send(t, "despesa 12.50 almoço café central")
	require.NoError(t, reply.Err)
	assert.Contains(t, reply.Text, "12,50 €")

	expenses, err := h.store.ListExpenses(context.Background(), persistence.RangeFilter{})
	require.NoError(t, err)
	require.Len(t, expenses, 1)
	assert.Equal(t, int64(1250), expenses[0].AmountCents)
	assert.Equal(t, "almoço", expenses[0].Category)
	assert.Equal(t, "café central", expenses[0].Note)
	assert.Equal(t, persistence.DefaultCurrency, expenses[0].Currency)
}

func TestAssistantCreateMeetingEndToEnd(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	reply := h.send(t, "reunião amanhã às 10h: alinhamento @Sala 2 com João")
	require.NoError(t, reply.Err)
	assert.Equal(t, router.CreateMeeting, reply.Command)

	meeting, err := h.store.GetMeeting(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, "alinhamento", meeting.Title)
	assert.Equal(t, "Sala 2", meeting.Location)
	assert.Contains(t, meeting.AttendeeList(), "João")
	assert.True(t, testfixtures.At(2024, time.May, 2, 10, 0).Equal(meeting.Start))
	assert.True(t, meeting.RemindEnabled)
	assert.Equal(t, persistence.ReminderPending, meeting.Reminder)

	require.Len(t, h.calendar.synced, 1)
	assert.Equal(t, meeting.ID, h.calendar.synced[0].ID)
}

func TestAssistantOnSQLite(t *testing.T) {
	t.Parallel()

	clock := testfixtures.NewClock(time.Time{})
	h := newHarness(t, testfixtures.NewSQLiteHarness(t, clock))
	h.clock = clock

	for _, text := range []string{
		"add tarefa pagar conta às 14h #finanças",
		"despesa 12.50 almoço café central",
		"reunião amanhã às 10h: alinhamento @Sala 2 com João",
	} {
		reply := h.send(t, text)
		require.NoError(t, reply.Err, text)
	}

	reply := h.send(t, "relatório semana")
	require.NoError(t, reply.Err)
	assert.Contains(t, reply.Text, "• Pendentes: 1")
	assert.Contains(t, reply.Text, "*Reuniões:* 1")
	assert.Contains(t, reply.Text, "• Total: 12,50 €")
}

func TestAssistantDropsDuplicateMessages(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	msg := application.Message{ID: "wamid.same", Text: "add tarefa regar plantas"}

	first := h.assistant.Handle(context.Background(), msg)
	second := h.assistant.Handle(context.Background(), msg)

	assert.False(t, first.Duplicate)
	assert.True(t, second.Duplicate)
	assert.Empty(t, second.Text)

	tasks, err := h.store.ListTasks(context.Background(), persistence.TaskFilter{})
	require.NoError(t, err)
	assert.Len(t, tasks, 1)
}

func TestAssistantIgnoresBlankText(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	reply := h.send(t, "   ")
	assert.Empty(t, reply.Text)
	assert.NoError(t, reply.Err)
}

func TestAssistantCompleteTask(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	ctx := context.Background()
	testfixtures.SeedTask(t, h.store, testfixtures.WithTaskTitle("pagar conta da luz"))
	testfixtures.SeedTask(t, h.store, testfixtures.WithTaskTitle("ligar ao Rui"))

	reply := h.send(t, "concluir tarefa luz")
	require.NoError(t, reply.Err)
	assert.Equal(t, "✅ Tarefa concluída (#1): pagar conta da luz", reply.Text)

	reply = h.send(t, "concluir tarefa 1")
	var vErr *application.ValidationError
	require.ErrorAs(t, reply.Err, &vErr)
	assert.Contains(t, reply.Text, "Tarefa #1 já está concluída.")

	reply = h.send(t, "concluir tarefa 99")
	assert.ErrorIs(t, reply.Err, application.ErrNotFound)
	assert.Contains(t, reply.Text, "Tarefa #99 não encontrada.")

	reply = h.send(t, "concluir tarefa inexistente")
	assert.ErrorIs(t, reply.Err, application.ErrNotFound)
	assert.Contains(t, reply.Text, "palavra-chave")

	task, err := h.store.GetTask(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, persistence.TaskOpen, task.Status)
}

func TestAssistantListAndDeleteTasks(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	testfixtures.SeedTask(t, h.store, testfixtures.WithTaskTitle("hoje"), testfixtures.WithTaskDue(testfixtures.At(2024, time.May, 1, 18, 0)))
	testfixtures.SeedTask(t, h.store, testfixtures.WithTaskTitle("depois"), testfixtures.WithTaskDue(testfixtures.At(2024, time.May, 10, 18, 0)))

	reply := h.send(t, "minhas tarefas")
	assert.Contains(t, reply.Text, "(2)")

	reply = h.send(t, "minhas tarefas amanhã")
	assert.Equal(t, "📝 Nenhuma tarefa encontrada.", reply.Text)

	reply = h.send(t, "remover tarefa 2")
	require.NoError(t, reply.Err)
	assert.Equal(t, "🗑️ Tarefa #2 removida.", reply.Text)

	reply = h.send(t, "remover tarefa 2")
	assert.ErrorIs(t, reply.Err, application.ErrNotFound)

	reply = h.send(t, "remover tarefa")
	var pErr *application.ParseError
	require.ErrorAs(t, reply.Err, &pErr)
	assert.Contains(t, reply.Text, "remover tarefa 5")
}

func TestAssistantSnoozeRearmsReminder(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	ctx := context.Background()
	meeting := testfixtures.SeedMeeting(t, h.store)
	ok, err := h.store.MarkReminded(ctx, meeting.ID)
	require.NoError(t, err)
	require.True(t, ok)

	reply := h.send(t, "soneca 1 30m")
	require.NoError(t, reply.Err)
	assert.Contains(t, reply.Text, "adiada para hoje às 11:30")

	moved, err := h.store.GetMeeting(ctx, meeting.ID)
	require.NoError(t, err)
	assert.Equal(t, persistence.ReminderPending, moved.Reminder)
	assert.True(t, meeting.Start.Add(30*time.Minute).Equal(moved.Start))
	require.Len(t, h.calendar.synced, 1)

	for text, hint := range map[string]string{
		"soneca 1":     "Indique o ID e o tempo",
		"soneca x 30m": "Indique o ID da reunião",
		"soneca 1 2h":  "Tempo inválido",
	} {
		reply := h.send(t, text)
		var pErr *application.ParseError
		require.ErrorAs(t, reply.Err, &pErr, text)
		assert.Contains(t, reply.Text, hint, text)
	}

	reply = h.send(t, "soneca 9 15m")
	assert.ErrorIs(t, reply.Err, application.ErrNotFound)
	assert.Contains(t, reply.Text, "Reunião #9 não encontrada.")
}

func TestAssistantDeleteMeeting(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	testfixtures.SeedMeeting(t, h.store)

	reply := h.send(t, "cancelar reunião 1")
	require.NoError(t, reply.Err)
	assert.Equal(t, []int64{1}, h.calendar.removed)

	_, err := h.store.GetMeeting(context.Background(), 1)
	assert.ErrorIs(t, err, persistence.ErrNotFound)
}

func TestAssistantCalendarFailureDoesNotFailCommand(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	h.calendar.err = errors.New("calendar unavailable")

	reply := h.send(t, "reunião amanhã 9h: café")
	require.NoError(t, reply.Err)
	assert.Contains(t, reply.Text, "Reunião agendada (#1): café")
}

func TestAssistantExpenseValidation(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)

	reply := h.send(t, "despesa -3 almoço")
	var vErr *application.ValidationError
	require.ErrorAs(t, reply.Err, &vErr)
	assert.Contains(t, reply.Text, "Valor inválido")

	reply = h.send(t, "despesa 12")
	var pErr *application.ParseError
	require.ErrorAs(t, reply.Err, &pErr)
	assert.Contains(t, reply.Text, "despesa 12.50 almoço café central")
}

func TestAssistantExpenseSummary(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	testfixtures.SeedExpense(t, h.store, testfixtures.WithExpenseAmount(1000), testfixtures.WithExpenseCategory("almoço"))
	testfixtures.SeedExpense(t, h.store, testfixtures.WithExpenseAmount(250), testfixtures.WithExpenseCategory("café"))
	testfixtures.SeedExpense(t, h.store, testfixtures.WithExpenseAmount(999), testfixtures.WithExpenseAt(testfixtures.At(2024, time.April, 1, 9, 0)))

	reply := h.send(t, "gastos semana")
	require.NoError(t, reply.Err)
	assert.Equal(t, "💰 *Gastos (esta semana):*\n\n*Total: 12,50 €*\n\n*Por categoria:*\n• almoço: 10,00 €\n• café: 2,50 €", reply.Text)
}

func TestAssistantConfigDigest(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	ctx := context.Background()

	reply := h.send(t, "config resumo 07:30")
	require.NoError(t, reply.Err)
	assert.Contains(t, reply.Text, "07:30")
	assert.Equal(t, 1, h.digest.calls)

	hour, ok, err := h.store.GetSetting(ctx, persistence.SettingDigestHour)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "7", hour)
	minute, _, err := h.store.GetSetting(ctx, persistence.SettingDigestMinute)
	require.NoError(t, err)
	assert.Equal(t, "30", minute)

	reply = h.send(t, "config resumo 25:00")
	var pErr *application.ParseError
	require.ErrorAs(t, reply.Err, &pErr)
	assert.Equal(t, 1, h.digest.calls)

	h.digest.err = errors.New("scheduler stopped")
	reply = h.send(t, "config resumo 06:00")
	require.Error(t, reply.Err)
	assert.Equal(t, "unexpected", application.ErrorKind(reply.Err))
}

func TestAssistantBackup(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)
	testfixtures.SeedTask(t, h.store, testfixtures.WithTaskTitle("pagar conta"))
	testfixtures.SeedExpense(t, h.store, testfixtures.WithExpenseAmount(1250), testfixtures.WithExpenseAt(testfixtures.At(2024, time.April, 30, 12, 0)))

	reply := h.send(t, "backup")
	require.NoError(t, reply.Err)
	assert.True(t, strings.HasPrefix(reply.Text, "📋 *Backup (últimos 90 dias)*"))
	assert.Contains(t, reply.Text, "1,pagar conta,open,N/A,N/A")
	assert.Contains(t, reply.Text, "1,12.50,geral,,30/04/2024 12:00")
}

func TestAssistantUnknownAndHelp(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil)

	reply := h.send(t, "olá")
	assert.NoError(t, reply.Err)
	assert.Equal(t, router.Unknown, reply.Command)
	assert.Contains(t, reply.Text, "Não percebi o comando")

	reply = h.send(t, "ajuda")
	assert.Contains(t, reply.Text, "add tarefa")
}

type failingStore struct {
	persistence.Store
}

func (failingStore) CreateTask(context.Context, persistence.NewTask) (persistence.Task, error) {
	return persistence.Task{}, errors.New("disk full")
}

func TestAssistantStoreFailureYieldsApology(t *testing.T) {
	t.Parallel()

	clock := testfixtures.NewClock(time.Time{})
	h := newHarness(t, failingStore{Store: memory.New(clock.NowFunc())})

	reply := h.send(t, "add tarefa pagar conta")
	require.Error(t, reply.Err)
	assert.Equal(t, "unexpected", application.ErrorKind(reply.Err))
	assert.Contains(t, reply.Text, "ocorreu um erro")

	// The assistant keeps serving after a failure.
	reply = h.send(t, "ajuda")
	assert.NoError(t, reply.Err)
}

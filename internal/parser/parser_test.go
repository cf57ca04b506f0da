package parser_test

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/pocket-assistant/internal/parser"
	"github.com/example/pocket-assistant/internal/testfixtures"
)

func timePtr(t time.Time) *time.Time {
	return &t
}

func TestParseTask(t *testing.T) {
	t.Parallel()

	ref := testfixtures.ReferenceTime()
	tests := []struct {
		name string
		in   string
		want parser.Task
		err  error
	}{
		{
			name: "time and tag",
			in:   "pagar conta às 14h #finanças",
			want: parser.Task{Title: "pagar conta", Due: timePtr(testfixtures.At(2024, time.May, 1, 14, 0)), Tag: "finanças"},
		},
		{
			name: "date only",
			in:   "comprar pão amanhã",
			want: parser.Task{Title: "comprar pão", Due: timePtr(testfixtures.At(2024, time.May, 2, 9, 0))},
		},
		{
			name: "first tag wins",
			in:   "#casa limpar garagem #fimdesemana",
			want: parser.Task{Title: "limpar garagem", Tag: "casa"},
		},
		{
			name: "no date",
			in:   "ligar à Marta",
			want: parser.Task{Title: "ligar à Marta"},
		},
		{
			name: "article before a number",
			in:   "ligar a 3 clientes",
			want: parser.Task{Title: "ligar a 3 clientes"},
		},
		{
			name: "ordinal is not a weekday",
			in:   "ler segunda parte do livro",
			want: parser.Task{Title: "ler segunda parte do livro"},
		},
		{
			name: "only entities",
			in:   "amanhã às 10h #x",
			err:  parser.ErrEmptyTitle,
		},
		{
			name: "blank",
			in:   "   ",
			err:  parser.ErrEmptyTitle,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parser.ParseTask(tt.in, ref)
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("ParseTask(%q) mismatch (-want +got):\n%s", tt.in, diff)
			}
		})
	}
}

func TestParseMeeting(t *testing.T) {
	t.Parallel()

	ref := testfixtures.ReferenceTime()
	tests := []struct {
		name string
		in   string
		want parser.Meeting
		err  error
	}{
		{
			name: "location and attendees",
			in:   "amanhã às 10h: alinhamento @Sala 2 com João",
			want: parser.Meeting{
				Title:         "alinhamento",
				Start:         testfixtures.At(2024, time.May, 2, 10, 0),
				Location:      "Sala 2",
				Attendees:     []string{"João"},
				RemindEnabled: true,
			},
		},
		{
			name: "clock with minutes in header",
			in:   "sexta 15:30: revisão trimestral com Ana e Rui",
			want: parser.Meeting{
				Title:         "revisão trimestral",
				Start:         testfixtures.At(2024, time.May, 3, 15, 30),
				Attendees:     []string{"Ana", "Rui"},
				RemindEnabled: true,
			},
		},
		{
			name: "tags dropped from body",
			in:   "hoje 18h: jantar #pessoal",
			want: parser.Meeting{
				Title:         "jantar",
				Start:         testfixtures.At(2024, time.May, 1, 18, 0),
				RemindEnabled: true,
			},
		},
		{name: "no separator", in: "amanhã às 10h alinhamento", err: parser.ErrMissingSeparator},
		{name: "unresolvable header", in: "um dia destes: café", err: parser.ErrInvalidDateTime},
		{name: "empty title", in: "amanhã 10h: @Sala com Ana", err: parser.ErrEmptyTitle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parser.ParseMeeting(tt.in, ref)
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Fatalf("ParseMeeting(%q) mismatch (-want +got):\n%s", tt.in, diff)
			}
		})
	}
}

func TestParseExpense(t *testing.T) {
	t.Parallel()

	got, err := parser.ParseExpense("12.50 almoço café central")
	require.NoError(t, err)
	if diff := cmp.Diff(parser.Expense{AmountCents: 1250, Category: "almoço", Note: "café central"}, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}

	got, err = parser.ParseExpense("3,2 Transporte")
	require.NoError(t, err)
	assert.Equal(t, parser.Expense{AmountCents: 320, Category: "Transporte"}, got)

	for in, want := range map[string]error{
		"12.50":       parser.ErrMissingArgument,
		"":            parser.ErrMissingArgument,
		"abc almoço":  parser.ErrInvalidAmount,
		"-3 almoço":   parser.ErrInvalidAmount,
		"0,00 almoço": parser.ErrInvalidAmount,
	} {
		_, err := parser.ParseExpense(in)
		assert.ErrorIs(t, err, want, in)
	}
}

func TestParsePeriod(t *testing.T) {
	t.Parallel()

	ref := testfixtures.ReferenceTime()
	tests := []struct {
		in       string
		kind     parser.PeriodKind
		start    time.Time
		end      time.Time
		explicit bool
	}{
		{in: "", kind: parser.PeriodToday, start: testfixtures.At(2024, time.May, 1, 0, 0), end: testfixtures.At(2024, time.May, 2, 0, 0)},
		{in: "hoje", kind: parser.PeriodToday, start: testfixtures.At(2024, time.May, 1, 0, 0), end: testfixtures.At(2024, time.May, 2, 0, 0), explicit: true},
		{in: "amanhã", kind: parser.PeriodTomorrow, start: testfixtures.At(2024, time.May, 2, 0, 0), end: testfixtures.At(2024, time.May, 3, 0, 0), explicit: true},
		{in: "esta semana", kind: parser.PeriodWeek, start: testfixtures.At(2024, time.April, 29, 0, 0), end: testfixtures.At(2024, time.May, 6, 0, 0), explicit: true},
		{in: "mês", kind: parser.PeriodMonth, start: testfixtures.At(2024, time.May, 1, 0, 0), end: testfixtures.At(2024, time.June, 1, 0, 0), explicit: true},
		{in: "hoje e semana", kind: parser.PeriodToday, start: testfixtures.At(2024, time.May, 1, 0, 0), end: testfixtures.At(2024, time.May, 2, 0, 0), explicit: true},
		{in: "qualquer coisa", kind: parser.PeriodToday, start: testfixtures.At(2024, time.May, 1, 0, 0), end: testfixtures.At(2024, time.May, 2, 0, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := parser.ParsePeriod(tt.in, ref)
			assert.Equal(t, tt.kind, got.Kind)
			assert.True(t, tt.start.Equal(got.Start), "start %s", got.Start)
			assert.True(t, tt.end.Equal(got.End), "end %s", got.End)
			assert.Equal(t, tt.explicit, got.Explicit)
			assert.True(t, got.Contains(ref) || tt.kind == parser.PeriodTomorrow)
		})
	}
}

func TestParsePeriodWeekSpansOneCalendarWeek(t *testing.T) {
	t.Parallel()

	for day := 0; day < 14; day++ {
		ref := testfixtures.ReferenceTime().AddDate(0, 0, day)
		got := parser.ParsePeriod("semana", ref)

		assert.Equal(t, time.Monday, got.Start.Weekday())
		assert.True(t, got.Contains(ref))
		assert.Equal(t, got.Start.AddDate(0, 0, 7), got.End)
	}
}

func TestParseSnooze(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]parser.Snooze{
		"5 15m":       {MeetingID: 5, Minutes: 15},
		"5 15 min":    {MeetingID: 5, Minutes: 15},
		"#7 30":       {MeetingID: 7, Minutes: 30},
		"7 30minutos": {MeetingID: 7, Minutes: 30},
		"9 1h":        {MeetingID: 9, Minutes: 60},
		"9 1 hora":    {MeetingID: 9, Minutes: 60},
	} {
		got, err := parser.ParseSnooze(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for in, want := range map[string]error{
		"5":     parser.ErrMissingArgument,
		"x 15m": parser.ErrInvalidID,
		"0 15m": parser.ErrInvalidID,
		"5 2h":  parser.ErrInvalidDuration,
		"5 45m": parser.ErrInvalidDuration,
	} {
		_, err := parser.ParseSnooze(in)
		assert.ErrorIs(t, err, want, in)
	}

	snooze := parser.Snooze{Minutes: 30}
	assert.Equal(t, 30*time.Minute, snooze.Duration())
}

func TestParseTaskRef(t *testing.T) {
	t.Parallel()

	ref, err := parser.ParseTaskRef(" 12 ")
	require.NoError(t, err)
	assert.Equal(t, parser.TaskRef{ID: 12}, ref)

	ref, err = parser.ParseTaskRef("#3")
	require.NoError(t, err)
	assert.Equal(t, parser.TaskRef{ID: 3}, ref)

	ref, err = parser.ParseTaskRef("pagar conta")
	require.NoError(t, err)
	assert.Equal(t, parser.TaskRef{Keyword: "pagar conta"}, ref)

	_, err = parser.ParseTaskRef("")
	assert.ErrorIs(t, err, parser.ErrMissingArgument)
}

func TestParseID(t *testing.T) {
	t.Parallel()

	id, err := parser.ParseID("#42 extra")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	_, err = parser.ParseID("")
	assert.True(t, errors.Is(err, parser.ErrMissingArgument))
	_, err = parser.ParseID("abc")
	assert.True(t, errors.Is(err, parser.ErrInvalidID))
}

func TestParseDigestTime(t *testing.T) {
	t.Parallel()

	for hour := 0; hour < 24; hour++ {
		for minute := 0; minute < 60; minute++ {
			in := parser.DigestTime{Hour: hour, Minute: minute}.String()
			got, err := parser.ParseDigestTime(in)
			require.NoError(t, err, in)
			assert.Equal(t, parser.DigestTime{Hour: hour, Minute: minute}, got)
		}
	}
	got, err := parser.ParseDigestTime("7:05")
	require.NoError(t, err)
	assert.Equal(t, parser.DigestTime{Hour: 7, Minute: 5}, got)

	for _, in := range []string{"24:00", "12:60", "7", "07h30", "ab:cd", ""} {
		_, err := parser.ParseDigestTime(in)
		assert.ErrorIs(t, err, parser.ErrInvalidDateTime, in)
	}
}

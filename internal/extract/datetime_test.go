package extract

import (
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lisbon(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Lisbon")
	require.NoError(t, err)
	return loc
}

func TestParseDateTime(t *testing.T) {
	t.Parallel()

	loc := lisbon(t)
	// Wednesday.
	ref := time.Date(2024, 5, 1, 10, 0, 0, 0, loc)
	at := func(month time.Month, day, hour, minute int) time.Time {
		return time.Date(2024, month, day, hour, minute, 0, 0, loc)
	}

	tests := []struct {
		in        string
		want      time.Time
		hasTime   bool
		remainder string
	}{
		{in: "amanhã", want: at(5, 2, 9, 0)},
		{in: "tomorrow", want: at(5, 2, 9, 0)},
		{in: "hoje às 14h", want: at(5, 1, 14, 0), hasTime: true},
		{in: "às 9h", want: at(5, 1, 9, 0), hasTime: true},
		{in: "depois de amanhã 18:30", want: at(5, 3, 18, 30), hasTime: true},
		{in: "sexta às 15h", want: at(5, 3, 15, 0), hasTime: true},
		{in: "quarta às 11h", want: at(5, 1, 11, 0), hasTime: true},
		{in: "quarta às 9h", want: at(5, 8, 9, 0), hasTime: true},
		{in: "na próxima quarta", want: at(5, 8, 9, 0)},
		{in: "segunda-feira", want: at(5, 6, 9, 0)},
		{in: "next monday 3pm", want: at(5, 6, 15, 0), hasTime: true},
		{in: "15/05", want: at(5, 15, 9, 0)},
		{in: "dia 20/04", want: time.Date(2025, 4, 20, 9, 0, 0, 0, loc)},
		{in: "03/02/2025 10:30", want: time.Date(2025, 2, 3, 10, 30, 0, 0, loc), hasTime: true},
		{in: "dia 15", want: at(5, 15, 9, 0)},
		{in: "dia 30 às 8h30", want: at(5, 30, 8, 30), hasTime: true},
		{in: "em 3 dias", want: at(5, 4, 9, 0)},
		{in: "in 2 weeks", want: at(5, 15, 9, 0)},
		{in: "daqui a 2 horas", want: at(5, 1, 12, 0), hasTime: true},
		{in: "in 30 minutes", want: at(5, 1, 10, 30), hasTime: true},
		{in: "amanhã às 3 da tarde", want: at(5, 2, 15, 0), hasTime: true},
		{in: "amanhã ao meio-dia", want: at(5, 2, 12, 0), hasTime: true, remainder: "ao"},
		{in: "12am", want: at(5, 1, 0, 0), hasTime: true},
		{in: "ligar ao Pedro amanhã às 10h", want: at(5, 2, 10, 0), hasTime: true, remainder: "ligar ao Pedro"},
		{in: "ligar a 3 da tarde", want: at(5, 1, 15, 0), hasTime: true, remainder: "ligar"},
		{in: "pagar renda sexta", want: at(5, 3, 9, 0), remainder: "pagar renda"},
		{in: "quinta-feira rever orçamento", want: at(5, 2, 9, 0), remainder: "rever orçamento"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseDateTime(tt.in, ref)
			require.True(t, ok)
			assert.True(t, tt.want.Equal(got.At), "want %s, got %s", tt.want, got.At)
			assert.Equal(t, tt.hasTime, got.HasTime)
			assert.Equal(t, tt.remainder, got.Remainder)
		})
	}
}

func TestParseDateTimeRejects(t *testing.T) {
	t.Parallel()

	ref := time.Date(2024, 5, 1, 10, 0, 0, 0, lisbon(t))
	for _, in := range []string{
		"pagar conta",
		"hoje amanhã",
		"às 10h às 11h",
		"31/02",
		"25:00",
		"2 horas de estacionamento",
		"em 2 horas amanhã",
		"ligar a 3 clientes",
		"ler segunda parte do livro",
		"rever a quinta edição",
		"",
	} {
		t.Run(in, func(t *testing.T) {
			got, ok := ParseDateTime(in, ref)
			assert.False(t, ok)
			assert.True(t, got.At.IsZero())
		})
	}
}

func TestParseDateTimeIsDeterministic(t *testing.T) {
	t.Parallel()

	ref := time.Date(2024, 12, 30, 23, 0, 0, 0, lisbon(t))
	first, ok := ParseDateTime("amanhã às 8h", ref)
	require.True(t, ok)
	for i := 0; i < 10; i++ {
		again, ok := ParseDateTime("amanhã às 8h", ref)
		require.True(t, ok)
		assert.Equal(t, first, again)
	}
	assert.Equal(t, 2024, first.At.Year())
	assert.Equal(t, time.December, first.At.Month())
	assert.Equal(t, 31, first.At.Day())
}

func TestIsClockToken(t *testing.T) {
	t.Parallel()

	for _, tok := range []string{"10:30", "9h", "14h15", "3pm", "11:45am"} {
		assert.True(t, isClockToken(tok), tok)
	}
	for _, tok := range []string{"2", "sala", "15/05"} {
		assert.False(t, isClockToken(tok), tok)
	}
}

package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenizeKeepsOffsets(t *testing.T) {
	t.Parallel()

	text := "  Reunião  amanhã, às 10h"
	tokens := Tokenize(text)
	require.Len(t, tokens, 4)

	assert.Equal(t, "reuniao", tokens[0].Norm)
	assert.Equal(t, "amanha", tokens[1].Norm)
	assert.Equal(t, "amanhã,", tokens[1].Text)
	assert.Equal(t, "as", tokens[2].Norm)
	for _, tok := range tokens {
		assert.Equal(t, tok.Text, text[tok.Start:tok.End])
	}
}

func TestFold(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "relatorio", Fold("Relatório"))
	assert.Equal(t, "reunioes", Fold("REUNIÕES"))
	assert.Equal(t, "financas", Fold("finanças"))
}

func TestTags(t *testing.T) {
	t.Parallel()

	tags, rest := Tags("pagar conta #finanças #casa hoje")
	assert.Equal(t, []string{"finanças", "casa"}, tags)
	assert.Equal(t, "pagar conta hoje", rest)

	tag, rest := FirstTag("sem etiquetas")
	assert.Empty(t, tag)
	assert.Equal(t, "sem etiquetas", rest)
}

func TestLocation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		in       string
		location string
		rest     string
		ok       bool
	}{
		{name: "single word", in: "alinhamento @escritório com Ana", location: "escritório", rest: "alinhamento com Ana", ok: true},
		{name: "numbered room", in: "alinhamento @Sala 2 com João", location: "Sala 2", rest: "alinhamento com João", ok: true},
		{name: "clock is not absorbed", in: "@Sala 2 10:30 café", location: "Sala 2", rest: "10:30 café", ok: true},
		{name: "trailing punctuation", in: "café @Lisboa, amanhã", location: "Lisboa", rest: "café amanhã", ok: true},
		{name: "bare marker", in: "café @ amanhã", rest: "café @ amanhã"},
		{name: "absent", in: "café amanhã", rest: "café amanhã"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			location, rest, ok := Location(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.location, location)
			assert.Equal(t, tt.rest, rest)
		})
	}
}

func TestAttendees(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		in        string
		attendees []string
		rest      string
	}{
		{name: "commas and conjunction", in: "almoço com João, Maria e Ana", attendees: []string{"João", "Maria", "Ana"}, rest: "almoço"},
		{name: "english", in: "sync with Bob and Alice", attendees: []string{"Bob", "Alice"}, rest: "sync"},
		{name: "stops at markers", in: "planeamento com Rui #trabalho", attendees: []string{"Rui"}, rest: "planeamento #trabalho"},
		{name: "names containing e", in: "café com Emanuel e Eva", attendees: []string{"Emanuel", "Eva"}, rest: "café"},
		{name: "empty entries dropped", in: "jantar com Rita,, e", attendees: []string{"Rita"}, rest: "jantar"},
		{name: "absent", in: "revisão trimestral", rest: "revisão trimestral"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			attendees, rest := Attendees(tt.in)
			assert.Equal(t, tt.attendees, attendees)
			assert.Equal(t, tt.rest, rest)
		})
	}
}

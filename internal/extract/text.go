package extract

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Token is a whitespace-delimited word of the source text.
type Token struct {
	// Text is the word as written.
	Text string
	// Norm is the word lowercased, accent folded and trimmed of surrounding
	// punctuation. It is what matchers compare against.
	Norm string
	// Start and End are byte offsets of Text in the source.
	Start, End int
}

// Tokenize splits s on whitespace, keeping byte offsets.
func Tokenize(s string) []Token {
	var tokens []Token
	start := -1
	for i, r := range s {
		if unicode.IsSpace(r) {
			if start >= 0 {
				tokens = append(tokens, newToken(s, start, i))
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		tokens = append(tokens, newToken(s, start, len(s)))
	}
	return tokens
}

func newToken(s string, start, end int) Token {
	text := s[start:end]
	return Token{
		Text:  text,
		Norm:  strings.TrimFunc(Fold(text), isEdgePunct),
		Start: start,
		End:   end,
	}
}

func isEdgePunct(r rune) bool {
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

// Normalize trims and lowercases s. The result is used for matching only.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Fold lowercases s and strips combining marks, so "Amanhã" and "amanha"
// compare equal.
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		return strings.ToLower(s)
	}
	return strings.ToLower(folded)
}

// Join rebuilds text from tokens, skipping those marked as consumed.
func Join(tokens []Token, consumed []bool) string {
	parts := make([]string, 0, len(tokens))
	for i, tok := range tokens {
		if consumed != nil && consumed[i] {
			continue
		}
		parts = append(parts, tok.Text)
	}
	return strings.Join(parts, " ")
}

// Squash collapses runs of whitespace and trims the ends.
func Squash(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

var tagPattern = regexp.MustCompile(`#([\p{L}\p{N}_]+)`)

// Tags returns every #tag in text in order of appearance and the text with
// all of them removed. Only the first tag is meant to be used.
func Tags(text string) (tags []string, rest string) {
	for _, m := range tagPattern.FindAllStringSubmatch(text, -1) {
		tags = append(tags, m[1])
	}
	return tags, Squash(tagPattern.ReplaceAllString(text, ""))
}

// FirstTag returns the first #tag of text and the text without any tags.
func FirstTag(text string) (tag string, rest string) {
	tags, rest := Tags(text)
	if len(tags) == 0 {
		return "", rest
	}
	return tags[0], rest
}

// Location finds the first "@place" marker. The place is the word after
// the marker, extended over directly following words that start with a
// digit, so "@Sala 2" yields "Sala 2". Clock times are never absorbed.
func Location(text string) (location string, rest string, ok bool) {
	tokens := Tokenize(text)
	consumed := make([]bool, len(tokens))

	for i, tok := range tokens {
		if !strings.HasPrefix(tok.Text, "@") {
			continue
		}
		head := strings.TrimFunc(strings.TrimPrefix(tok.Text, "@"), isTrailingPunct)
		if head == "" {
			continue
		}
		parts := []string{head}
		consumed[i] = true
		for j := i + 1; j < len(tokens); j++ {
			next := tokens[j]
			if !startsWithDigit(next.Text) || isClockToken(next.Norm) {
				break
			}
			parts = append(parts, strings.TrimFunc(next.Text, isTrailingPunct))
			consumed[j] = true
		}
		return strings.Join(parts, " "), Join(tokens, consumed), true
	}

	return "", Squash(text), false
}

func isTrailingPunct(r rune) bool {
	return strings.ContainsRune(".,;:!?", r)
}

func startsWithDigit(s string) bool {
	for _, r := range s {
		return unicode.IsDigit(r)
	}
	return false
}

var attendeeSeparator = regexp.MustCompile(`(?i)\s+(?:e|and)\s+`)

// Attendees reads the phrase after the first "com"/"with" up to the next
// @ or # marker or the end of text, splitting it on commas and the words
// "e"/"and".
func Attendees(text string) (attendees []string, rest string) {
	tokens := Tokenize(text)
	for i, tok := range tokens {
		if tok.Norm != "com" && tok.Norm != "with" {
			continue
		}
		end := i + 1
		for end < len(tokens) && !strings.HasPrefix(tokens[end].Text, "@") && !strings.HasPrefix(tokens[end].Text, "#") {
			end++
		}
		if end == i+1 {
			continue
		}

		phrase := " " + Join(tokens[i+1:end], nil) + " "
		for _, part := range strings.Split(attendeeSeparator.ReplaceAllString(phrase, ","), ",") {
			if name := strings.TrimFunc(strings.TrimSpace(part), isTrailingPunct); name != "" {
				attendees = append(attendees, name)
			}
		}

		consumed := make([]bool, len(tokens))
		for j := i; j < end; j++ {
			consumed[j] = true
		}
		return attendees, Join(tokens, consumed)
	}
	return nil, Squash(text)
}

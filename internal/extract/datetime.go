package extract

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// DefaultHour is the time of day given to date-only expressions.
const DefaultHour = 9

// DateTime is a resolved date/time expression.
type DateTime struct {
	// At is the absolute instant in the reference location.
	At time.Time
	// HasTime reports whether a clock time was given explicitly.
	HasTime bool
	// Remainder is the input with the date/time words removed.
	Remainder string
}

// ParseDateTime finds a date and/or time expression in text and resolves it
// against ref. The location of ref is the fixed zone for resolution. The
// result depends only on text and ref.
//
// Recognised expressions, in Portuguese and English:
//
//	hoje, amanhã, depois de amanhã, today, tomorrow
//	segunda ... domingo, monday ... sunday, optionally "-feira" and
//	prefixed by na/no/on or próxima/próximo/next; a bare segunda..sexta
//	inside a phrase ("segunda parte") is read as an ordinal
//	DD/MM, DD/MM/YY, DD/MM/YYYY, dia DD
//	em|daqui a|in N dias|semanas|horas|minutos
//	HH:MM, HHh, HHhMM, Ham/pm, às|at|pelas N, meio-dia, meia-noite
//
// Date-only expressions resolve to DefaultHour:00 and time-only ones to the
// reference date. Two competing dates or times are ambiguous and yield
// ok == false, as does text without any expression.
func ParseDateTime(text string, ref time.Time) (DateTime, bool) {
	s := &dateScanner{
		tokens: Tokenize(text),
		ref:    ref,
	}
	s.consumed = make([]bool, len(s.tokens))
	s.scan()

	at, hasTime, ok := s.resolve()
	if !ok {
		return DateTime{Remainder: Squash(text)}, false
	}
	return DateTime{
		At:        at,
		HasTime:   hasTime,
		Remainder: Join(s.tokens, s.consumed),
	}, true
}

type dateMatch struct {
	date time.Time // midnight in the reference location
	// weekday marks a bare weekday that moves a week ahead when the result
	// would not be after the reference instant.
	weekday bool
}

type clock struct {
	hour, minute int
}

type dateScanner struct {
	tokens   []Token
	consumed []bool
	ref      time.Time

	dates    []dateMatch
	clocks   []clock
	instants []time.Time
}

func (s *dateScanner) norm(i int) string {
	if i < 0 || i >= len(s.tokens) {
		return ""
	}
	return s.tokens[i].Norm
}

func (s *dateScanner) today() time.Time {
	y, m, d := s.ref.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.ref.Location())
}

func (s *dateScanner) scan() {
	matchers := []func(int) int{
		s.matchRelative,
		s.matchDayWord,
		s.matchWeekday,
		s.matchNumericDate,
		s.matchDayOfMonth,
		s.matchClock,
	}

	for i := 0; i < len(s.tokens); {
		n := 0
		for _, match := range matchers {
			if n = match(i); n > 0 {
				break
			}
		}
		if n == 0 {
			i++
			continue
		}
		for j := i; j < i+n; j++ {
			s.consumed[j] = true
		}
		i += n
	}
}

func (s *dateScanner) resolve() (time.Time, bool, bool) {
	if len(s.dates) > 1 || len(s.clocks) > 1 || len(s.instants) > 1 {
		return time.Time{}, false, false
	}
	if len(s.instants) == 1 {
		if len(s.dates) > 0 || len(s.clocks) > 0 {
			return time.Time{}, false, false
		}
		return s.instants[0], true, true
	}
	if len(s.dates) == 0 && len(s.clocks) == 0 {
		return time.Time{}, false, false
	}

	day := dateMatch{date: s.today()}
	if len(s.dates) == 1 {
		day = s.dates[0]
	}
	c, hasTime := clock{hour: DefaultHour}, false
	if len(s.clocks) == 1 {
		c, hasTime = s.clocks[0], true
	}

	y, m, d := day.date.Date()
	at := time.Date(y, m, d, c.hour, c.minute, 0, 0, s.ref.Location())
	if day.weekday && !at.After(s.ref) {
		at = time.Date(y, m, d+7, c.hour, c.minute, 0, 0, s.ref.Location())
	}
	return at, hasTime, true
}

func (s *dateScanner) addDate(date time.Time, weekday bool) {
	s.dates = append(s.dates, dateMatch{date: date, weekday: weekday})
}

// matchDayWord handles hoje/amanhã/depois de amanhã and English equivalents.
func (s *dateScanner) matchDayWord(i int) int {
	today := s.today()
	switch {
	case s.norm(i) == "depois" && s.norm(i+1) == "de" && s.norm(i+2) == "amanha",
		s.norm(i) == "day" && s.norm(i+1) == "after" && s.norm(i+2) == "tomorrow":
		s.addDate(today.AddDate(0, 0, 2), false)
		return 3
	case s.norm(i) == "hoje" || s.norm(i) == "today":
		s.addDate(today, false)
		return 1
	case s.norm(i) == "amanha" || s.norm(i) == "tomorrow":
		s.addDate(today.AddDate(0, 0, 1), false)
		return 1
	}
	return 0
}

var weekdays = map[string]time.Weekday{
	"domingo": time.Sunday,
	"segunda": time.Monday,
	"terca":   time.Tuesday,
	"quarta":  time.Wednesday,
	"quinta":  time.Thursday,
	"sexta":   time.Friday,
	"sabado":  time.Saturday,

	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ordinalWeekdays double as ordinals ("segunda parte", "quinta edição").
// Without a prefix or "-feira" they only count as weekdays when they end
// the phrase or a clock follows.
var ordinalWeekdays = map[string]bool{
	"segunda": true,
	"terca":   true,
	"quarta":  true,
	"quinta":  true,
	"sexta":   true,
}

func (s *dateScanner) weekdayFollows(j int) bool {
	if j+1 >= len(s.tokens) {
		return true
	}
	if r, _ := utf8.DecodeLastRuneInString(s.tokens[j].Text); isEdgePunct(r) {
		return true
	}
	next := s.norm(j + 1)
	switch next {
	case "as", "at", "pelas", "pela", "ao":
		return true
	}
	return isClockToken(next)
}

func (s *dateScanner) matchWeekday(i int) int {
	j := i
	switch s.norm(j) {
	case "na", "no", "on":
		j++
	}
	strict := false
	switch s.norm(j) {
	case "proxima", "proximo", "next":
		strict = true
		j++
	case "nesta", "neste", "this":
		j++
	}

	name := strings.TrimSuffix(s.norm(j), "-feira")
	wd, ok := weekdays[name]
	if !ok {
		return 0
	}
	feira := name != s.norm(j) || s.norm(j+1) == "feira"
	if ordinalWeekdays[name] && !feira && j == i && !s.weekdayFollows(j) {
		return 0
	}
	j++
	if s.norm(j) == "feira" {
		j++
	}

	today := s.today()
	diff := (int(wd) - int(today.Weekday()) + 7) % 7
	if strict && diff == 0 {
		diff = 7
	}
	s.addDate(today.AddDate(0, 0, diff), !strict)
	return j - i
}

var numericDatePattern = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})(?:/(\d{2}|\d{4}))?$`)

func (s *dateScanner) matchNumericDate(i int) int {
	j := i
	if s.norm(j) == "dia" {
		j++
	}
	m := numericDatePattern.FindStringSubmatch(s.norm(j))
	if m == nil {
		return 0
	}

	day, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	today := s.today()

	year := today.Year()
	explicitYear := m[3] != ""
	if explicitYear {
		year, _ = strconv.Atoi(m[3])
		if len(m[3]) == 2 {
			year += 2000
		}
	}

	date, ok := civilDate(year, time.Month(month), day, s.ref.Location())
	if ok && !explicitYear && date.Before(today) {
		date, ok = civilDate(year+1, time.Month(month), day, s.ref.Location())
	}
	if !ok {
		return 0
	}

	s.addDate(date, false)
	return j + 1 - i
}

var dayNumberPattern = regexp.MustCompile(`^\d{1,2}$`)

// matchDayOfMonth handles "dia 15": the next 15th on or after today.
func (s *dateScanner) matchDayOfMonth(i int) int {
	if s.norm(i) != "dia" || !dayNumberPattern.MatchString(s.norm(i+1)) {
		return 0
	}
	day, _ := strconv.Atoi(s.norm(i + 1))
	if day < 1 || day > 31 {
		return 0
	}

	today := s.today()
	year, month := today.Year(), today.Month()
	if day < today.Day() {
		month++
	}
	for k := 0; k < 12; k++ {
		if date, ok := civilDate(year, month+time.Month(k), day, s.ref.Location()); ok {
			s.addDate(date, false)
			return 2
		}
	}
	return 0
}

var relativeCountPattern = regexp.MustCompile(`^\d{1,3}$`)

func (s *dateScanner) matchRelative(i int) int {
	j := 0
	switch {
	case s.norm(i) == "em" || s.norm(i) == "in":
		j = i + 1
	case s.norm(i) == "daqui" && s.norm(i+1) == "a":
		j = i + 2
	default:
		return 0
	}
	if !relativeCountPattern.MatchString(s.norm(j)) {
		return 0
	}
	n, _ := strconv.Atoi(s.norm(j))

	switch s.norm(j + 1) {
	case "dia", "dias", "day", "days":
		s.addDate(s.today().AddDate(0, 0, n), false)
	case "semana", "semanas", "week", "weeks":
		s.addDate(s.today().AddDate(0, 0, 7*n), false)
	case "hora", "horas", "hour", "hours", "h":
		s.instants = append(s.instants, s.ref.Add(time.Duration(n)*time.Hour).Truncate(time.Minute))
	case "minuto", "minutos", "minute", "minutes", "min", "mins":
		s.instants = append(s.instants, s.ref.Add(time.Duration(n)*time.Minute).Truncate(time.Minute))
	default:
		return 0
	}
	return j + 2 - i
}

var (
	colonClockPattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})$`)
	hourClockPattern  = regexp.MustCompile(`^(\d{1,2})h(\d{2})?$`)
	meridiemPattern   = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?(am|pm)$`)
)

// isClockToken reports whether a normalised token is a clock time on its own.
func isClockToken(norm string) bool {
	return colonClockPattern.MatchString(norm) || hourClockPattern.MatchString(norm) || meridiemPattern.MatchString(norm)
}

func (s *dateScanner) matchClock(i int) int {
	j := i
	prefixed, bare := false, false
	switch s.norm(j) {
	case "as", "at", "pelas", "pela":
		prefixed, bare = true, true
		j++
	case "a":
		// "a" is also an article, so a bare number after it is only a
		// clock when a period of the day follows ("a 3 da tarde").
		prefixed = true
		bare = s.partOfDayAt(j + 2)
		j++
	}

	c, n, ok := s.clockAt(j, prefixed, bare)
	if !ok {
		return 0
	}
	j += n

	// "às 3 da tarde"
	if (s.norm(j) == "da" || s.norm(j) == "de") && c.hour < 12 {
		switch s.norm(j + 1) {
		case "tarde", "noite":
			c.hour += 12
			j += 2
		case "manha":
			j += 2
		}
	}

	s.clocks = append(s.clocks, c)
	return j - i
}

// partOfDayAt reports whether tokens j and j+1 read "da tarde" or similar.
func (s *dateScanner) partOfDayAt(j int) bool {
	if s.norm(j) != "da" && s.norm(j) != "de" {
		return false
	}
	switch s.norm(j + 1) {
	case "tarde", "noite", "manha":
		return true
	}
	return false
}

// clockAt parses the clock time starting at token j and returns the number
// of tokens it spans. A prefixed number followed by "h" or "horas" is a
// clock; a number on its own only when bare is set.
func (s *dateScanner) clockAt(j int, prefixed, bare bool) (clock, int, bool) {
	word := s.norm(j)
	switch {
	case word == "meio-dia" || word == "noon":
		return clock{hour: 12}, 1, true
	case word == "meia-noite" || word == "midnight":
		return clock{}, 1, true
	case word == "meio" && s.norm(j+1) == "dia":
		return clock{hour: 12}, 2, true
	case word == "meia" && s.norm(j+1) == "noite":
		return clock{}, 2, true
	}

	if m := colonClockPattern.FindStringSubmatch(word); m != nil {
		return validClock(m[1], m[2], 1)
	}
	if m := hourClockPattern.FindStringSubmatch(word); m != nil {
		return validClock(m[1], m[2], 1)
	}
	if m := meridiemPattern.FindStringSubmatch(word); m != nil {
		return meridiemClock(m[1], m[2], m[3], 1)
	}

	if !dayNumberPattern.MatchString(word) {
		return clock{}, 0, false
	}
	switch next := s.norm(j + 1); next {
	case "am", "pm":
		return meridiemClock(word, "", next, 2)
	case "h", "hora", "horas", "hrs":
		if prefixed {
			return validClock(word, "", 2)
		}
	}
	if bare {
		return validClock(word, "", 1)
	}
	return clock{}, 0, false
}

func validClock(hour, minute string, n int) (clock, int, bool) {
	h, _ := strconv.Atoi(hour)
	m := 0
	if minute != "" {
		m, _ = strconv.Atoi(minute)
	}
	if h > 23 || m > 59 {
		return clock{}, 0, false
	}
	return clock{hour: h, minute: m}, n, true
}

func meridiemClock(hour, minute, meridiem string, n int) (clock, int, bool) {
	c, n, ok := validClock(hour, minute, n)
	if !ok || c.hour < 1 || c.hour > 12 {
		return clock{}, 0, false
	}
	switch {
	case meridiem == "pm" && c.hour != 12:
		c.hour += 12
	case meridiem == "am" && c.hour == 12:
		c.hour = 0
	}
	return c, n, true
}

func civilDate(year int, month time.Month, day int, loc *time.Location) (time.Time, bool) {
	t := time.Date(year, month, day, 0, 0, 0, 0, loc)
	y, m, d := t.Date()
	return t, y == year && m == month && d == day
}

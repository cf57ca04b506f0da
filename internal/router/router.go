// Package router maps message text to a command and its argument text.
//
// Matching runs over normalised words (lowercase, accents folded), so
// "Reunião" and "reuniao" trigger the same rule. Rules are evaluated in
// table order and the first match wins.
package router

import (
	"strings"

	"github.com/example/pocket-assistant/internal/extract"
)

// Command identifies what a message asks the assistant to do.
type Command int

const (
	Unknown Command = iota
	Help
	AddTask
	ListTasks
	CompleteTask
	DeleteTask
	CreateMeeting
	ListMeetings
	DeleteMeeting
	SnoozeMeeting
	AddExpense
	ListExpenses
	Report
	Backup
	ConfigDigest
)

var commandNames = map[Command]string{
	Unknown:       "unknown",
	Help:          "help",
	AddTask:       "add-task",
	ListTasks:     "list-tasks",
	CompleteTask:  "complete-task",
	DeleteTask:    "delete-task",
	CreateMeeting: "create-meeting",
	ListMeetings:  "list-meetings",
	DeleteMeeting: "delete-meeting",
	SnoozeMeeting: "snooze-meeting",
	AddExpense:    "add-expense",
	ListExpenses:  "list-expenses",
	Report:        "report",
	Backup:        "backup",
	ConfigDigest:  "config-digest",
}

func (c Command) String() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return "unknown"
}

// Route is the result of routing one message.
type Route struct {
	Command Command
	// Args is the original text following the trigger words, trimmed. For
	// Unknown it is the whole message.
	Args string
	// Trigger is the normalised trigger that matched.
	Trigger string
}

// MatchKind controls how a trigger is compared with the message.
type MatchKind int

const (
	// Prefix matches when the message starts with the trigger words.
	Prefix MatchKind = iota
	// Exact matches only when the message is the trigger and nothing else.
	Exact
)

// Rule binds trigger phrases to a command.
type Rule struct {
	Command  Command
	Match    MatchKind
	Triggers []string
}

// DefaultRules is the built-in table in evaluation order.
var DefaultRules = []Rule{
	{Command: Help, Match: Exact, Triggers: []string{"ajuda", "help"}},
	{Command: Backup, Match: Exact, Triggers: []string{"backup"}},
	{Command: ConfigDigest, Triggers: []string{"config resumo", "configurar resumo", "config digest"}},
	{Command: AddTask, Triggers: []string{"add tarefa", "adicionar tarefa", "criar tarefa", "nova tarefa", "add task"}},
	{Command: ListTasks, Triggers: []string{"minhas tarefas", "listar tarefas", "list tasks", "tarefas", "tasks"}},
	{Command: CompleteTask, Triggers: []string{"concluir tarefa", "completar tarefa", "finalizar tarefa", "complete task", "done"}},
	{Command: DeleteTask, Triggers: []string{"remover tarefa", "deletar tarefa", "excluir tarefa", "apagar tarefa", "delete task"}},
	{Command: ListMeetings, Triggers: []string{"listar reuniões", "minhas reuniões", "list meetings", "reuniões", "meetings"}},
	{Command: DeleteMeeting, Triggers: []string{"remover reunião", "cancelar reunião", "excluir reunião", "delete meeting", "cancel meeting"}},
	{Command: CreateMeeting, Triggers: []string{"reunião", "meeting"}},
	{Command: SnoozeMeeting, Triggers: []string{"soneca", "adiar", "snooze"}},
	{Command: ListExpenses, Triggers: []string{"gastos", "despesas", "expenses"}},
	{Command: AddExpense, Triggers: []string{"despesa", "gasto", "expense"}},
	{Command: Report, Triggers: []string{"relatório", "report"}},
}

type compiledRule struct {
	command  Command
	match    MatchKind
	triggers [][]string
	labels   []string
}

// Router dispatches messages over an ordered rule table.
type Router struct {
	rules []compiledRule
}

// New builds a router over rules, or over DefaultRules when none are given.
func New(rules ...Rule) *Router {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	r := &Router{rules: make([]compiledRule, 0, len(rules))}
	for _, rule := range rules {
		compiled := compiledRule{command: rule.Command, match: rule.Match}
		for _, trigger := range rule.Triggers {
			words := strings.Fields(extract.Fold(trigger))
			if len(words) == 0 {
				continue
			}
			compiled.triggers = append(compiled.triggers, words)
			compiled.labels = append(compiled.labels, strings.Join(words, " "))
		}
		r.rules = append(r.rules, compiled)
	}
	return r
}

// Route classifies text. It never fails: unmatched text routes to Unknown.
func (r *Router) Route(text string) Route {
	tokens := extract.Tokenize(text)

	for _, rule := range r.rules {
		for i, trigger := range rule.triggers {
			if !hasPrefix(tokens, trigger) {
				continue
			}
			if rule.match == Exact && len(tokens) != len(trigger) {
				continue
			}
			return Route{
				Command: rule.command,
				Args:    argsAfter(text, tokens, len(trigger)),
				Trigger: rule.labels[i],
			}
		}
	}

	return Route{Command: Unknown, Args: strings.TrimSpace(text)}
}

func hasPrefix(tokens []extract.Token, trigger []string) bool {
	if len(tokens) < len(trigger) {
		return false
	}
	for i, word := range trigger {
		if tokens[i].Norm != word {
			return false
		}
	}
	return true
}

func argsAfter(text string, tokens []extract.Token, n int) string {
	if n >= len(tokens) {
		return ""
	}
	return strings.TrimSpace(text[tokens[n].Start:])
}

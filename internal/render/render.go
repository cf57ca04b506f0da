// Package render produces the pt-PT reply texts sent back to the user.
// Functions here only format data that was already resolved; they never
// query storage.
package render

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/example/pocket-assistant/internal/parser"
	"github.com/example/pocket-assistant/internal/persistence"
)

// Renderer formats replies in a fixed location.
type Renderer struct {
	loc     *time.Location
	printer *message.Printer
}

// New returns a renderer for loc. A nil loc means UTC.
func New(loc *time.Location) *Renderer {
	if loc == nil {
		loc = time.UTC
	}
	return &Renderer{
		loc:     loc,
		printer: message.NewPrinter(language.EuropeanPortuguese),
	}
}

// Money formats cents as euros the way pt-PT writes them: "12,50 €".
func (r *Renderer) Money(cents int64) string {
	return r.printer.Sprintf("%.2f €", float64(cents)/100)
}

// Clock formats the wall clock time of t.
func (r *Renderer) Clock(t time.Time) string {
	return t.In(r.loc).Format("15:04")
}

// Date formats t as dd/mm/yyyy.
func (r *Renderer) Date(t time.Time) string {
	return t.In(r.loc).Format("02/01/2006")
}

// RelativeDay names the day of t as seen from now: "hoje", "amanhã",
// "em 3 dias", "há 2 dias", or a date beyond a week either way.
func (r *Renderer) RelativeDay(t, now time.Time) string {
	days := calendarDays(now.In(r.loc), t.In(r.loc))
	switch {
	case days == 0:
		return "hoje"
	case days == 1:
		return "amanhã"
	case days == -1:
		return "ontem"
	case days > 1 && days < 7:
		return fmt.Sprintf("em %d dias", days)
	case days < -1 && days > -7:
		return fmt.Sprintf("há %d dias", -days)
	default:
		return r.Date(t)
	}
}

func calendarDays(from, to time.Time) int {
	fy, fm, fd := from.Date()
	ty, tm, td := to.Date()
	a := time.Date(fy, fm, fd, 12, 0, 0, 0, time.UTC)
	b := time.Date(ty, tm, td, 12, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

func (r *Renderer) when(t, now time.Time) string {
	return r.RelativeDay(t, now) + " às " + r.Clock(t)
}

// PeriodLabel names a period in replies.
func PeriodLabel(kind parser.PeriodKind) string {
	switch kind {
	case parser.PeriodTomorrow:
		return "amanhã"
	case parser.PeriodWeek:
		return "esta semana"
	case parser.PeriodMonth:
		return "este mês"
	default:
		return "hoje"
	}
}

// Help lists the available commands.
func (r *Renderer) Help() string {
	return helpMessage
}

const helpMessage = `🤖 *Assistente Pessoal*

*Tarefas:*
• add tarefa [texto] [às HH:MM] [hoje|amanhã|data] [#tag]
• minhas tarefas [hoje|amanhã|semana|mês]
• concluir tarefa [id ou palavra-chave]
• remover tarefa [id]

*Reuniões:*
• reunião [data/hora]: [título] [@local] [com pessoa]
• listar reuniões [hoje|amanhã|semana|mês]
• soneca [id] [15m|30m|1h]
• cancelar reunião [id]

*Despesas:*
• despesa [valor] [categoria] [descrição]
• gastos [hoje|semana|mês]

*Outros:*
• relatório [hoje|semana|mês]
• config resumo [HH:MM]
• backup

*Exemplos:*
• add tarefa pagar conta às 14h #finanças
• reunião amanhã às 10h: alinhamento @Sala 2 com João
• despesa 12.50 almoço café central
• gastos semana`

// TaskCreated confirms a new task.
func (r *Renderer) TaskCreated(task persistence.Task, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "✅ Tarefa criada (#%d): %s", task.ID, task.Title)
	if task.Due != nil {
		fmt.Fprintf(&b, "\n⏰ %s", r.when(*task.Due, now))
	}
	if task.Tag != "" {
		fmt.Fprintf(&b, "\n🏷️ #%s", task.Tag)
	}
	return b.String()
}

// TaskList lists tasks with their status mark.
func (r *Renderer) TaskList(tasks []persistence.Task, now time.Time) string {
	if len(tasks) == 0 {
		return "📝 Nenhuma tarefa encontrada."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📝 *As suas tarefas (%d):*\n", len(tasks))
	for _, task := range tasks {
		check := "⬜"
		if task.Status == persistence.TaskDone {
			check = "✅"
		}
		fmt.Fprintf(&b, "\n%s #%d: %s", check, task.ID, task.Title)
		if task.Due != nil {
			fmt.Fprintf(&b, " - %s %s", r.RelativeDay(*task.Due, now), r.Clock(*task.Due))
		}
		if task.Tag != "" {
			fmt.Fprintf(&b, " #%s", task.Tag)
		}
	}
	return b.String()
}

// TaskCompleted confirms a completed task.
func (r *Renderer) TaskCompleted(task persistence.Task) string {
	return fmt.Sprintf("✅ Tarefa concluída (#%d): %s", task.ID, task.Title)
}

// TaskDeleted confirms a removed task.
func (r *Renderer) TaskDeleted(id int64) string {
	return fmt.Sprintf("🗑️ Tarefa #%d removida.", id)
}

// MeetingCreated confirms a scheduled meeting.
func (r *Renderer) MeetingCreated(meeting persistence.Meeting, now time.Time) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📅 Reunião agendada (#%d): %s\n⏰ %s", meeting.ID, meeting.Title, r.when(meeting.Start, now))
	r.meetingDetails(&b, meeting)
	if meeting.RemindEnabled {
		b.WriteString("\n\n💡 Receberá um lembrete 30 minutos antes.")
	}
	return b.String()
}

func (r *Renderer) meetingDetails(b *strings.Builder, meeting persistence.Meeting) {
	if meeting.Location != "" {
		fmt.Fprintf(b, "\n📍 %s", meeting.Location)
	}
	if meeting.Attendees != "" {
		fmt.Fprintf(b, "\n👥 %s", meeting.Attendees)
	}
}

// MeetingList lists meetings in start order.
func (r *Renderer) MeetingList(meetings []persistence.Meeting, now time.Time) string {
	if len(meetings) == 0 {
		return "📅 Nenhuma reunião agendada."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📅 *As suas reuniões (%d):*", len(meetings))
	for _, meeting := range meetings {
		fmt.Fprintf(&b, "\n\n#%d: %s\n⏰ %s", meeting.ID, meeting.Title, r.when(meeting.Start, now))
		r.meetingDetails(&b, meeting)
	}
	return b.String()
}

// MeetingDeleted confirms a cancelled meeting.
func (r *Renderer) MeetingDeleted(id int64) string {
	return fmt.Sprintf("🗑️ Reunião #%d cancelada.", id)
}

// MeetingReminder is the notification sent before a meeting starts.
func (r *Renderer) MeetingReminder(meeting persistence.Meeting) string {
	var b strings.Builder
	fmt.Fprintf(&b, "⏰ *Lembrete de reunião*\n\n%s\n⏰ Em 30 minutos (%s)", meeting.Title, r.Clock(meeting.Start))
	r.meetingDetails(&b, meeting)
	return b.String()
}

// Snoozed confirms a moved meeting.
func (r *Renderer) Snoozed(meeting persistence.Meeting, now time.Time) string {
	return fmt.Sprintf("⏰ Reunião #%d adiada para %s", meeting.ID, r.when(meeting.Start, now))
}

// ExpenseCreated confirms a recorded expense.
func (r *Renderer) ExpenseCreated(expense persistence.Expense) string {
	var b strings.Builder
	fmt.Fprintf(&b, "💰 Despesa registada (#%d): %s\n📂 %s", expense.ID, r.Money(expense.AmountCents), expense.Category)
	if expense.Note != "" {
		fmt.Fprintf(&b, "\n📝 %s", expense.Note)
	}
	return b.String()
}

// ExpenseSummary shows the total and per-category spending of a period.
func (r *Renderer) ExpenseSummary(label string, total int64, categories []persistence.CategoryTotal) string {
	var b strings.Builder
	fmt.Fprintf(&b, "💰 *Gastos (%s):*\n\n*Total: %s*", label, r.Money(total))
	if len(categories) > 0 {
		b.WriteString("\n\n*Por categoria:*")
		for _, category := range categories {
			fmt.Fprintf(&b, "\n• %s: %s", category.Category, r.Money(category.TotalCents))
		}
	}
	return b.String()
}

// Report carries the figures of a period report.
type Report struct {
	Label         string
	DoneTasks     int
	OpenTasks     int
	Meetings      int
	ExpenseTotal  int64
	TopCategories []persistence.CategoryTotal
}

// TopCategoryLimit caps the categories shown in a report.
const TopCategoryLimit = 5

// Report renders a period report.
func (r *Renderer) Report(report Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📊 *Relatório (%s):*\n\n", report.Label)
	fmt.Fprintf(&b, "📝 *Tarefas:*\n• Concluídas: %d\n• Pendentes: %d\n\n", report.DoneTasks, report.OpenTasks)
	fmt.Fprintf(&b, "📅 *Reuniões:* %d\n\n", report.Meetings)
	fmt.Fprintf(&b, "💰 *Despesas:*\n• Total: %s", r.Money(report.ExpenseTotal))

	top := report.TopCategories
	if len(top) > TopCategoryLimit {
		top = top[:TopCategoryLimit]
	}
	if len(top) > 0 {
		b.WriteString("\n• Top categorias:")
		for _, category := range top {
			fmt.Fprintf(&b, "\n  - %s: %s", category.Category, r.Money(category.TotalCents))
		}
	}
	return b.String()
}

// Digest renders the morning summary.
func (r *Renderer) Digest(tasks []persistence.Task, meetings []persistence.Meeting) string {
	var b strings.Builder
	b.WriteString("☀️ *Bom dia!*\n\nAqui está o seu plano para hoje:\n\n")

	if len(tasks) > 0 {
		fmt.Fprintf(&b, "📝 *Tarefas (%d):*\n", len(tasks))
		for _, task := range tasks {
			fmt.Fprintf(&b, "• #%d: %s", task.ID, task.Title)
			if task.Due != nil {
				fmt.Fprintf(&b, " - %s", r.Clock(*task.Due))
			}
			if task.Tag != "" {
				fmt.Fprintf(&b, " #%s", task.Tag)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if len(meetings) > 0 {
		fmt.Fprintf(&b, "📅 *Reuniões (%d):*\n", len(meetings))
		for _, meeting := range meetings {
			fmt.Fprintf(&b, "• %s - %s", r.Clock(meeting.Start), meeting.Title)
			if meeting.Location != "" {
				fmt.Fprintf(&b, " @%s", meeting.Location)
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if len(tasks) == 0 && len(meetings) == 0 {
		b.WriteString("Nada agendado para hoje. Aproveite o dia! 🌟\n\n")
	}

	b.WriteString(`💡 Dica: responda "minhas tarefas" ou "listar reuniões" a qualquer momento.`)
	return b.String()
}

// ConfigUpdated confirms a stored setting.
func (r *Renderer) ConfigUpdated(name, value string) string {
	return fmt.Sprintf("⚙️ Configuração atualizada: %s = %s", name, value)
}

// Error wraps a corrective hint.
func (r *Renderer) Error(hint string) string {
	return fmt.Sprintf("❌ Erro: %s\n\nEscreva \"ajuda\" para ver os comandos disponíveis.", hint)
}

// Unknown is the reply for messages no command matched.
func (r *Renderer) Unknown() string {
	return "🤔 Não percebi o comando.\n\nEscreva \"ajuda\" para ver os comandos disponíveis."
}

// Failure is the generic apology for unexpected faults.
func (r *Renderer) Failure() string {
	return r.Error("ocorreu um erro ao processar a sua mensagem.")
}

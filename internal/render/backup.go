package render

import (
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/example/pocket-assistant/internal/persistence"
)

// BackupDays is how far back a backup reaches.
const BackupDays = 90

// Backup renders tasks and expenses as two CSV sections.
func (r *Renderer) Backup(tasks []persistence.Task, expenses []persistence.Expense) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "📋 *Backup (últimos %d dias)*\n\n*TAREFAS*\n", BackupDays)

	w := csv.NewWriter(&b)
	if err := w.Write([]string{"ID", "Título", "Estado", "Tag", "Vencimento"}); err != nil {
		return "", fmt.Errorf("write task header: %w", err)
	}
	for _, task := range tasks {
		due := "N/A"
		if task.Due != nil {
			due = r.dateTime(*task.Due)
		}
		tag := task.Tag
		if tag == "" {
			tag = "N/A"
		}
		record := []string{strconv.FormatInt(task.ID, 10), task.Title, string(task.Status), tag, due}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("write task %d: %w", task.ID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush tasks: %w", err)
	}

	b.WriteString("\n*DESPESAS*\n")
	if err := w.Write([]string{"ID", "Valor", "Categoria", "Descrição", "Data"}); err != nil {
		return "", fmt.Errorf("write expense header: %w", err)
	}
	for _, expense := range expenses {
		record := []string{
			strconv.FormatInt(expense.ID, 10),
			plainAmount(expense.AmountCents),
			expense.Category,
			expense.Note,
			r.dateTime(expense.OccurredAt),
		}
		if err := w.Write(record); err != nil {
			return "", fmt.Errorf("write expense %d: %w", expense.ID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("flush expenses: %w", err)
	}

	return b.String(), nil
}

func (r *Renderer) dateTime(t time.Time) string {
	return t.In(r.loc).Format("02/01/2006 15:04")
}

func plainAmount(cents int64) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}

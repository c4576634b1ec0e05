package service

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"note-planner/internal/model"
	"note-planner/internal/repository"
)

// DigestService builds the human-readable daily overview shown by the bot.
type DigestService struct {
	tasks      *repository.TaskRepository
	notes      *repository.NoteRepository
	categories *repository.CategoryRepository
}

func NewDigestService(tasks *repository.TaskRepository, notes *repository.NoteRepository, categories *repository.CategoryRepository) *DigestService {
	return &DigestService{tasks: tasks, notes: notes, categories: categories}
}

// DailySummary renders the user's open tasks and recent notes as Telegram
// HTML, grouped under their category names.
func (s *DigestService) DailySummary(ctx context.Context, user model.User, now time.Time) (string, error) {
	tasks, err := s.tasks.ListPending(ctx, user.ID)
	if err != nil {
		return "", fmt.Errorf("list pending tasks: %w", err)
	}

	categories, err := s.categories.ListByUser(ctx, user.ID)
	if err != nil {
		return "", fmt.Errorf("list categories: %w", err)
	}
	catNames := make(map[uint]string, len(categories))
	for _, cat := range categories {
		catNames[cat.ID] = cat.Name
	}

	notes, err := s.notes.List(ctx, user.ID, repository.ScopeAll())
	if err != nil {
		return "", fmt.Errorf("list notes: %w", err)
	}

	var builder strings.Builder
	builder.WriteString("<b>Daily overview</b>\n")
	builder.WriteString(now.Format("Mon, 02 Jan 2006"))
	builder.WriteString("\n\n<b>Open tasks</b>\n")
	if len(tasks) == 0 {
		builder.WriteString("- nothing pending\n")
	} else {
		for _, task := range tasks {
			builder.WriteString(formatTaskLine(task, catNames, now))
		}
	}

	builder.WriteString("\n<b>Recent notes</b>\n")
	if len(notes) == 0 {
		builder.WriteString("- no notes yet\n")
	} else {
		limit := len(notes)
		if limit > 5 {
			limit = 5
		}
		for _, note := range notes[:limit] {
			builder.WriteString(formatNoteLine(note, catNames))
		}
	}

	return strings.TrimSpace(builder.String()), nil
}

func formatTaskLine(task model.Task, catNames map[uint]string, now time.Time) string {
	var suffix string
	if task.DueAt != nil {
		if task.DueAt.Before(now) {
			suffix = fmt.Sprintf(" (overdue since %s)", task.DueAt.Format("02 Jan"))
		} else {
			suffix = fmt.Sprintf(" (due %s)", task.DueAt.Format("02 Jan"))
		}
	}
	return fmt.Sprintf("- #%d %s%s%s\n",
		task.ID, html.EscapeString(task.Title), categorySuffix(task.CategoryID, catNames), suffix)
}

func formatNoteLine(note model.Note, catNames map[uint]string) string {
	return fmt.Sprintf("- #%d %s%s\n",
		note.ID, html.EscapeString(note.Title), categorySuffix(note.CategoryID, catNames))
}

func categorySuffix(categoryID *uint, catNames map[uint]string) string {
	if categoryID == nil {
		return ""
	}
	name, ok := catNames[*categoryID]
	if !ok {
		return ""
	}
	return " [" + html.EscapeString(name) + "]"
}

package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"note-planner/internal/model"
	"note-planner/internal/repository"
	"note-planner/internal/service"
)

type conversationStage int

const (
	stageNone conversationStage = iota
	stageNoteTitle
	stageNoteContent
	stageNoteCategory
	stageTaskTitle
	stageTaskDue
	stageTaskCategory
)

const (
	cbDeleteCatPrefix = "delcat:"
	cbCancelPrefix    = "cancel:"
)

const btnSkip = "skip"

const (
	helpText = "Commands:\n" +
		"/newnote - add a note (guided)\n" +
		"/notes [category|all|unassigned] - list notes\n" +
		"/delnote <id> - delete a note\n" +
		"/newtask - add a task (guided)\n" +
		"/tasks [category|all|unassigned] - list tasks\n" +
		"/done <id> - complete a task\n" +
		"/deltask <id> - delete a task\n" +
		"/categories - show your category tree\n" +
		"/newcat <name> [> <parent>] - create a category\n" +
		"/movecat <name> > <parent|-> - move a category (- makes it a root)\n" +
		"/delcat <name> - delete a category, merging its content into its parent\n" +
		"/today - daily overview"
	dueLayout = "2006-01-02"
)

type conversationState struct {
	stage     conversationStage
	noteInput service.NoteInput
	taskInput service.TaskInput
}

// Bot wires the Telegram API to the planner services. Each incoming chat is
// resolved to a stored user, and every service call is scoped by that user's
// id.
type Bot struct {
	api           *tgbotapi.BotAPI
	userRepo      *repository.UserRepository
	categorySvc   *service.CategoryService
	noteSvc       *service.NoteService
	taskSvc       *service.TaskService
	digestSvc     *service.DigestService
	log           *zap.Logger
	conversations map[int64]*conversationState
	mu            sync.Mutex
}

func New(token string, userRepo *repository.UserRepository, categorySvc *service.CategoryService,
	noteSvc *service.NoteService, taskSvc *service.TaskService, digestSvc *service.DigestService,
	log *zap.Logger) (*Bot, error) {

	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log.Info("bot authorized", zap.String("account", api.Self.UserName))

	return &Bot{
		api:           api,
		userRepo:      userRepo,
		categorySvc:   categorySvc,
		noteSvc:       noteSvc,
		taskSvc:       taskSvc,
		digestSvc:     digestSvc,
		log:           log,
		conversations: make(map[int64]*conversationState),
	}, nil
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		switch {
		case update.CallbackQuery != nil:
			if err := b.handleCallback(ctx, update.CallbackQuery); err != nil {
				b.log.Warn("handle callback", zap.Error(err))
			}
		case update.Message != nil:
			if update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
				continue
			}
			if err := b.handleMessage(ctx, update.Message); err != nil {
				b.log.Warn("handle message", zap.Error(err))
			}
		}
	}

	return nil
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}

	user, err := b.userRepo.UpsertFromTelegram(ctx, msg.From.ID, msg.From.FirstName, msg.From.LastName, msg.From.UserName)
	if err != nil {
		return err
	}

	if msg.IsCommand() {
		b.clearConversation(msg.Chat.ID)
		return b.handleCommand(ctx, msg, user)
	}

	if state := b.conversation(msg.Chat.ID); state != nil {
		return b.advanceConversation(ctx, msg, user, state)
	}

	return b.reply(msg.Chat.ID, "I did not get that. Try /help.")
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message, user *model.User) error {
	args := strings.TrimSpace(msg.CommandArguments())
	switch msg.Command() {
	case "start":
		return b.reply(msg.Chat.ID, "Welcome! I keep your notes and tasks organized in nested categories.\n\n"+helpText)
	case "help":
		return b.reply(msg.Chat.ID, helpText)
	case "today":
		summary, err := b.digestSvc.DailySummary(ctx, *user, time.Now())
		if err != nil {
			return err
		}
		return b.replyHTML(msg.Chat.ID, summary)
	case "categories":
		return b.sendCategoryTree(ctx, msg.Chat.ID, user)
	case "newcat":
		return b.createCategory(ctx, msg.Chat.ID, user, args)
	case "movecat":
		return b.moveCategory(ctx, msg.Chat.ID, user, args)
	case "delcat":
		return b.confirmDeleteCategory(ctx, msg.Chat.ID, user, args)
	case "notes":
		return b.listNotes(ctx, msg.Chat.ID, user, args)
	case "newnote":
		b.setConversation(msg.Chat.ID, &conversationState{stage: stageNoteTitle})
		return b.reply(msg.Chat.ID, "Note title?")
	case "delnote":
		return b.deleteByID(ctx, msg.Chat.ID, user, args, "note", b.noteSvc.Delete)
	case "tasks":
		return b.listTasks(ctx, msg.Chat.ID, user, args)
	case "newtask":
		b.setConversation(msg.Chat.ID, &conversationState{stage: stageTaskTitle})
		return b.reply(msg.Chat.ID, "Task title?")
	case "done":
		return b.completeTask(ctx, msg.Chat.ID, user, args)
	case "deltask":
		return b.deleteByID(ctx, msg.Chat.ID, user, args, "task", b.taskSvc.Delete)
	default:
		return b.reply(msg.Chat.ID, "Unknown command. Try /help.")
	}
}

// ---- categories

func (b *Bot) sendCategoryTree(ctx context.Context, chatID int64, user *model.User) error {
	categories, err := b.categorySvc.List(ctx, user.ID)
	if err != nil {
		return err
	}
	if len(categories) == 0 {
		return b.reply(chatID, "No categories yet. Create one with /newcat.")
	}

	var builder strings.Builder
	builder.WriteString("<b>Your categories</b>\n")
	var walk func(parentID *uint, depth int)
	walk = func(parentID *uint, depth int) {
		for _, c := range categories {
			if !sameParent(c.ParentID, parentID) {
				continue
			}
			builder.WriteString(strings.Repeat("  ", depth))
			builder.WriteString(fmt.Sprintf("- %s (#%d)\n", html.EscapeString(c.Name), c.ID))
			id := c.ID
			walk(&id, depth+1)
		}
	}
	walk(nil, 0)
	return b.replyHTML(chatID, builder.String())
}

func (b *Bot) createCategory(ctx context.Context, chatID int64, user *model.User, args string) error {
	if args == "" {
		return b.reply(chatID, "Usage: /newcat <name> [> <parent>]")
	}
	name, parentName := splitArrow(args)

	input := service.CategoryInput{Name: name}
	if parentName != "" {
		parent, err := b.categorySvc.GetByName(ctx, user.ID, parentName)
		if err != nil {
			return b.replyServiceErr(chatID, err)
		}
		input.ParentID = &parent.ID
	}

	category, err := b.categorySvc.Create(ctx, user.ID, input)
	if err != nil {
		return b.replyServiceErr(chatID, err)
	}
	return b.reply(chatID, fmt.Sprintf("Created category %q (#%d).", category.Name, category.ID))
}

func (b *Bot) moveCategory(ctx context.Context, chatID int64, user *model.User, args string) error {
	name, target := splitArrow(args)
	if name == "" || target == "" {
		return b.reply(chatID, "Usage: /movecat <name> > <parent|->")
	}

	category, err := b.categorySvc.GetByName(ctx, user.ID, name)
	if err != nil {
		return b.replyServiceErr(chatID, err)
	}

	update := service.CategoryUpdate{}
	if target == "-" {
		update.MakeRoot = true
	} else {
		parent, err := b.categorySvc.GetByName(ctx, user.ID, target)
		if err != nil {
			return b.replyServiceErr(chatID, err)
		}
		update.Parent = &parent.ID
	}

	if _, err := b.categorySvc.Update(ctx, user.ID, category.ID, update); err != nil {
		return b.replyServiceErr(chatID, err)
	}
	return b.reply(chatID, fmt.Sprintf("Moved %q.", category.Name))
}

func (b *Bot) confirmDeleteCategory(ctx context.Context, chatID int64, user *model.User, args string) error {
	if args == "" {
		return b.reply(chatID, "Usage: /delcat <name>")
	}
	category, err := b.categorySvc.GetByName(ctx, user.ID, args)
	if err != nil {
		return b.replyServiceErr(chatID, err)
	}

	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Delete and merge", cbDeleteCatPrefix+strconv.FormatUint(uint64(category.ID), 10)),
			tgbotapi.NewInlineKeyboardButtonData("Cancel", cbCancelPrefix+"delcat"),
		),
	)
	out := tgbotapi.NewMessage(chatID, fmt.Sprintf(
		"Delete %q? Its notes, tasks and subcategories move to its parent (or become unassigned if it is a root).",
		category.Name))
	out.ReplyMarkup = keyboard
	_, err = b.api.Send(out)
	return err
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb.From == nil || cb.Message == nil {
		return nil
	}
	defer func() {
		_, _ = b.api.Request(tgbotapi.NewCallback(cb.ID, ""))
	}()

	user, err := b.userRepo.UpsertFromTelegram(ctx, cb.From.ID, cb.From.FirstName, cb.From.LastName, cb.From.UserName)
	if err != nil {
		return err
	}
	chatID := cb.Message.Chat.ID

	switch {
	case strings.HasPrefix(cb.Data, cbDeleteCatPrefix):
		raw := strings.TrimPrefix(cb.Data, cbDeleteCatPrefix)
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			return b.reply(chatID, "Bad category reference.")
		}
		if err := b.categorySvc.Delete(ctx, user.ID, uint(id)); err != nil {
			return b.replyServiceErr(chatID, err)
		}
		return b.reply(chatID, "Category deleted; its content was merged into the parent.")
	case strings.HasPrefix(cb.Data, cbCancelPrefix):
		return b.reply(chatID, "Cancelled.")
	}
	return nil
}

// ---- notes and tasks

func (b *Bot) listNotes(ctx context.Context, chatID int64, user *model.User, args string) error {
	filter, err := b.resolveFilterArg(ctx, user, args)
	if err != nil {
		return b.replyServiceErr(chatID, err)
	}
	notes, err := b.noteSvc.List(ctx, user.ID, filter)
	if err != nil {
		return b.replyServiceErr(chatID, err)
	}
	if len(notes) == 0 {
		return b.reply(chatID, "No notes here.")
	}

	var builder strings.Builder
	builder.WriteString("<b>Notes</b>\n")
	for _, note := range notes {
		builder.WriteString(fmt.Sprintf("#%d <b>%s</b>\n", note.ID, html.EscapeString(note.Title)))
		if note.Content != "" {
			builder.WriteString(html.EscapeString(truncate(note.Content, 120)) + "\n")
		}
	}
	return b.replyHTML(chatID, builder.String())
}

func (b *Bot) listTasks(ctx context.Context, chatID int64, user *model.User, args string) error {
	filter, err := b.resolveFilterArg(ctx, user, args)
	if err != nil {
		return b.replyServiceErr(chatID, err)
	}
	tasks, err := b.taskSvc.List(ctx, user.ID, filter)
	if err != nil {
		return b.replyServiceErr(chatID, err)
	}
	if len(tasks) == 0 {
		return b.reply(chatID, "No tasks here.")
	}

	var builder strings.Builder
	builder.WriteString("<b>Tasks</b>\n")
	for _, task := range tasks {
		mark := " "
		if task.IsCompleted {
			mark = "x"
		}
		builder.WriteString(fmt.Sprintf("[%s] #%d %s", mark, task.ID, html.EscapeString(task.Title)))
		if task.DueAt != nil {
			builder.WriteString(" (due " + task.DueAt.Format(dueLayout) + ")")
		}
		builder.WriteString("\n")
	}
	return b.replyHTML(chatID, builder.String())
}

// resolveFilterArg maps a user-facing filter argument ("", "all",
// "unassigned" or a category name) onto the service filter value.
func (b *Bot) resolveFilterArg(ctx context.Context, user *model.User, args string) (string, error) {
	args = strings.TrimSpace(args)
	if args == "" || args == service.FilterAll || args == service.FilterUnassigned {
		return args, nil
	}
	category, err := b.categorySvc.GetByName(ctx, user.ID, args)
	if err != nil {
		return "", err
	}
	return strconv.FormatUint(uint64(category.ID), 10), nil
}

func (b *Bot) completeTask(ctx context.Context, chatID int64, user *model.User, args string) error {
	id, err := parseID(args)
	if err != nil {
		return b.reply(chatID, "Usage: /done <id>")
	}
	task, err := b.taskSvc.Complete(ctx, user.ID, id, time.Now())
	if err != nil {
		return b.replyServiceErr(chatID, err)
	}
	return b.reply(chatID, fmt.Sprintf("Done: %s", task.Title))
}

func (b *Bot) deleteByID(ctx context.Context, chatID int64, user *model.User, args, kind string,
	del func(context.Context, uint, uint) error) error {

	id, err := parseID(args)
	if err != nil {
		return b.reply(chatID, fmt.Sprintf("Usage: /del%s <id>", kind))
	}
	if err := del(ctx, user.ID, id); err != nil {
		return b.replyServiceErr(chatID, err)
	}
	return b.reply(chatID, "Deleted "+kind+".")
}

// ---- guided creation flows

func (b *Bot) advanceConversation(ctx context.Context, msg *tgbotapi.Message, user *model.User, state *conversationState) error {
	text := strings.TrimSpace(msg.Text)
	chatID := msg.Chat.ID

	switch state.stage {
	case stageNoteTitle:
		state.noteInput.Title = text
		state.stage = stageNoteContent
		return b.reply(chatID, "Content? (or 'skip')")
	case stageNoteContent:
		if text != btnSkip {
			state.noteInput.Content = text
		}
		state.stage = stageNoteCategory
		return b.reply(chatID, "Category name? (or 'skip')")
	case stageNoteCategory:
		if text != btnSkip {
			category, err := b.categorySvc.GetByName(ctx, user.ID, text)
			if err != nil {
				return b.replyServiceErr(chatID, err)
			}
			state.noteInput.CategoryID = &category.ID
		}
		b.clearConversation(chatID)
		note, err := b.noteSvc.Create(ctx, user.ID, state.noteInput)
		if err != nil {
			return b.replyServiceErr(chatID, err)
		}
		return b.reply(chatID, fmt.Sprintf("Saved note #%d.", note.ID))
	case stageTaskTitle:
		state.taskInput.Title = text
		state.stage = stageTaskDue
		return b.reply(chatID, "Due date? (YYYY-MM-DD, or 'skip')")
	case stageTaskDue:
		if text != btnSkip {
			due, err := time.ParseInLocation(dueLayout, text, time.Local)
			if err != nil {
				return b.reply(chatID, "I need YYYY-MM-DD, or 'skip'.")
			}
			state.taskInput.DueAt = &due
		}
		state.stage = stageTaskCategory
		return b.reply(chatID, "Category name? (or 'skip')")
	case stageTaskCategory:
		if text != btnSkip {
			category, err := b.categorySvc.GetByName(ctx, user.ID, text)
			if err != nil {
				return b.replyServiceErr(chatID, err)
			}
			state.taskInput.CategoryID = &category.ID
		}
		b.clearConversation(chatID)
		task, err := b.taskSvc.Create(ctx, user.ID, state.taskInput)
		if err != nil {
			return b.replyServiceErr(chatID, err)
		}
		return b.reply(chatID, fmt.Sprintf("Saved task #%d.", task.ID))
	}
	return nil
}

// ---- helpers

func (b *Bot) conversation(chatID int64) *conversationState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.conversations[chatID]
}

func (b *Bot) setConversation(chatID int64, state *conversationState) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.conversations[chatID] = state
}

func (b *Bot) clearConversation(chatID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.conversations, chatID)
}

func (b *Bot) reply(chatID int64, text string) error {
	_, err := b.api.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

func (b *Bot) replyHTML(chatID int64, text string) error {
	out := tgbotapi.NewMessage(chatID, text)
	out.ParseMode = tgbotapi.ModeHTML
	_, err := b.api.Send(out)
	return err
}

// replyServiceErr renders service-level failures for the user; unexpected
// errors get a generic message and propagate for logging.
func (b *Bot) replyServiceErr(chatID int64, err error) error {
	var verr *service.ValidationError
	switch {
	case errors.Is(err, service.ErrNotFound):
		return b.reply(chatID, "Not found.")
	case errors.Is(err, service.ErrConflict):
		return b.reply(chatID, "Busy right now, please retry.")
	case errors.As(err, &verr):
		return b.reply(chatID, "Rejected: "+verr.Reason)
	default:
		if sendErr := b.reply(chatID, "Something went wrong."); sendErr != nil {
			return sendErr
		}
		return err
	}
}

func parseID(args string) (uint, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(args), 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid id %q", args)
	}
	return uint(id), nil
}

// splitArrow splits "name > parent" style arguments. Without the separator
// the whole string is the name, so multi-word names stay intact.
func splitArrow(args string) (string, string) {
	parts := strings.SplitN(args, ">", 2)
	if len(parts) == 1 {
		return strings.TrimSpace(args), ""
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
}

func sameParent(a, b *uint) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}

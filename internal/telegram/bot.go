package telegram

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"fuelplanner/internal/app"
	"fuelplanner/internal/catalog"
	"fuelplanner/internal/config"
	"fuelplanner/internal/log"
	"fuelplanner/internal/metrics"
	"fuelplanner/internal/session"
	"fuelplanner/internal/validate"
)

const (
	helpText = "🏃 *Race fuel planner*\n\n" +
		"Start with " + planUsage + "\n\n" +
		"/hour <n> shows an hour with add buttons\n" +
		"/add <hour> <product-id> [source], /remove <hour> <entry>\n" +
		"/qty <hour> <entry> <n>, /fluid <hour> <entry> <ml>\n" +
		"/water <hour> <ml>, /source <hour> <source>, /clear\n" +
		"/products [gel|chew|drink_mix|caffeine|nocaffeine|favorites|all|<search>], /favorite <product-id>\n" +
		"/targets, /plan, /totals, /packing, /export, /brief, /close"

	promptBloatTokens = 4000
)

// sender is the part of the Telegram API the bot talks through.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Bot maps chat commands onto planning sessions, one open session per chat.
type Bot struct {
	api      sender
	webhook  *tgbotapi.BotAPI
	app      *app.App
	cfg      *config.Config
	sessions *SessionRepository
	log      zerolog.Logger

	mu   sync.Mutex
	open map[int64]*session.Session
}

// NewBot initializes the Telegram Bot and sets the Webhook.
func NewBot(cfg *config.Config, a *app.App, sessions *SessionRepository) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}

	b := newBot(api, cfg, a, sessions)
	b.webhook = api
	b.log.Info().Str("account", api.Self.UserName).Msg("authorized")

	wh, err := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook url %s: %w", cfg.TelegramWebhookURL, err)
	}
	resp, err := api.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
	}
	b.log.Info().Str("description", resp.Description).Msg("webhook set")
	return b, nil
}

func newBot(api sender, cfg *config.Config, a *app.App, sessions *SessionRepository) *Bot {
	return &Bot{
		api:      api,
		app:      a,
		cfg:      cfg,
		sessions: sessions,
		log:      log.WithComponent("telegram"),
		open:     map[int64]*session.Session{},
	}
}

// RegisterHandlers registers the webhook, health, and Prometheus handlers.
func (b *Bot) RegisterHandlers(mux *http.ServeMux) {
	mux.HandleFunc("/webhook", b.handleWebhook)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})
	mux.Handle("/metrics", metrics.Handler())
}

// Close saves and closes every open session.
func (b *Bot) Close(ctx context.Context) {
	b.mu.Lock()
	open := b.open
	b.open = map[int64]*session.Session{}
	b.mu.Unlock()

	for chatID, s := range open {
		if err := s.Flush(ctx); err != nil {
			b.log.Warn().Err(err).Int64("chat_id", chatID).Msg("failed to flush session")
		}
		s.Close()
	}
}

func (b *Bot) handleWebhook(w http.ResponseWriter, r *http.Request) {
	update, err := b.webhook.HandleUpdate(r)
	if err != nil {
		b.log.Warn().Err(err).Msg("error parsing update")
		return
	}

	if q := update.CallbackQuery; q != nil {
		if q.From == nil || !b.cfg.IsAllowedTelegramUser(q.From.ID) || q.Message == nil {
			return
		}
		go b.handleCallbackQuery(context.Background(), q)
		return
	}

	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}
	if !b.cfg.IsAllowedTelegramUser(msg.From.ID) {
		b.log.Warn().Int64("user_id", msg.From.ID).Str("username", msg.From.UserName).Msg("unauthorized access attempt")
		return
	}

	go b.processMessage(context.Background(), msg.Chat.ID, msg.From.ID, msg.Text)
}

func (b *Bot) processMessage(ctx context.Context, chatID, fromID int64, text string) {
	cmd, ok := ParseCommand(text)
	if !ok {
		b.reply(chatID, helpText)
		return
	}

	switch cmd.Name {
	case "start", "help":
		b.reply(chatID, helpText)
	case "metrics":
		b.handleMetricsCommand(ctx, chatID, fromID)
	case "plan":
		if len(cmd.Args) == 0 {
			b.withSession(ctx, chatID, func(s *session.Session) {
				b.reply(chatID, formatOverview(s.Hours(), s.Report()))
			})
			return
		}
		b.handlePlanCommand(ctx, chatID, fromID, cmd.Args)
	case "close":
		b.handleCloseCommand(ctx, chatID)
	default:
		b.withSession(ctx, chatID, func(s *session.Session) {
			b.handleSessionCommand(ctx, chatID, s, cmd)
		})
	}
}

func (b *Bot) handlePlanCommand(ctx context.Context, chatID, fromID int64, args []string) {
	pa, err := ParsePlanArgs(args)
	if err != nil {
		b.reply(chatID, "❌ "+err.Error())
		return
	}

	cs := ChatSession{
		ChatID:      chatID,
		UserID:      telegramUserID(fromID),
		RacePlanID:  pa.RacePlanID,
		ContextData: pa.Context,
	}
	if err := b.sessions.Save(ctx, cs); err != nil {
		b.log.Error().Err(err).Int64("chat_id", chatID).Msg("failed to bind chat")
		b.reply(chatID, "❌ Could not open the plan.")
		return
	}

	b.closeOpen(ctx, chatID)
	s, err := b.openSession(ctx, cs)
	if err != nil {
		b.reply(chatID, "❌ Could not open the plan.")
		return
	}
	b.reply(chatID, fmt.Sprintf("📂 Plan *%s* opened.\n\n%s", pa.RacePlanID, formatTargets(s.HourlyTargets(), s.TotalTargets())))
}

func (b *Bot) handleCloseCommand(ctx context.Context, chatID int64) {
	b.closeOpen(ctx, chatID)
	if err := b.sessions.Delete(ctx, chatID); err != nil {
		b.log.Warn().Err(err).Int64("chat_id", chatID).Msg("failed to unbind chat")
	}
	b.reply(chatID, "👋 Plan saved and closed.")
}

func (b *Bot) handleSessionCommand(ctx context.Context, chatID int64, s *session.Session, cmd Command) {
	switch cmd.Name {
	case "targets":
		b.reply(chatID, formatTargets(s.HourlyTargets(), s.TotalTargets()))
	case "totals":
		b.reply(chatID, formatTotals(s.RunningTotals(), s.Warnings(), s.Recommendations()))
	case "packing":
		b.reply(chatID, "🎒 *Packing list*\n\n"+b.app.Packing(s).Text())
	case "hour":
		b.handleHourCommand(chatID, s, cmd.Args)
	case "products":
		s.SetFilters(filterPatch(cmd.Args))
		b.reply(chatID, formatProducts(s.FilteredProducts(), s.Favorites()))
	case "favorite":
		if len(cmd.Args) != 1 {
			b.reply(chatID, "usage: /favorite <product-id>")
			return
		}
		if _, ok := s.Lookup().Product(cmd.Args[0]); !ok {
			b.reply(chatID, "❌ Unknown product.")
			return
		}
		if s.ToggleFavorite(cmd.Args[0]) {
			b.reply(chatID, "⭐ Added to favorites.")
		} else {
			b.reply(chatID, "Removed from favorites.")
		}
	case "export":
		b.handleExportCommand(chatID, s)
	case "brief":
		b.handleBriefCommand(ctx, chatID, s)
	default:
		in, err := IntentFor(cmd)
		if err != nil {
			b.reply(chatID, "❌ "+err.Error())
			return
		}
		if !s.Dispatch(in) {
			b.reply(chatID, "Nothing changed. Check the hour and entry numbers.")
			return
		}
		b.reply(chatID, b.hourSummary(s, hourOf(in)))
	}
}

func (b *Bot) handleHourCommand(chatID int64, s *session.Session, args []string) {
	if len(args) != 1 {
		b.reply(chatID, "usage: /hour <n>")
		return
	}
	n, err := strconv.Atoi(args[0])
	if err != nil || n < 1 || n > len(s.Hours()) {
		b.reply(chatID, "❌ No such hour.")
		return
	}
	idx := n - 1
	if selected, ok := s.SelectedHour(); !ok || selected != idx {
		s.Dispatch(session.SelectHour{HourIndex: idx})
	}

	msg := tgbotapi.NewMessage(chatID, b.hourSummary(s, idx))
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.ReplyMarkup = productKeyboard(idx, s.FilteredProducts())
	b.send(msg)
}

func (b *Bot) handleExportCommand(chatID int64, s *session.Session) {
	path, err := b.app.Export(s)
	if err != nil {
		b.log.Error().Err(err).Str("race_plan_id", s.RacePlanID()).Msg("export failed")
		b.reply(chatID, "❌ Export failed.")
		return
	}
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(path))
	doc.Caption = "Per-hour plan for " + s.RacePlanID()
	b.send(doc)
}

func (b *Bot) handleBriefCommand(ctx context.Context, chatID int64, s *session.Session) {
	status, err := b.api.Send(tgbotapi.NewMessage(chatID, "🧑‍⚕️ Writing your race-day briefing..."))
	if err != nil {
		b.log.Warn().Err(err).Msg("failed to send initial reply")
		return
	}

	res, err := b.app.Brief(ctx, s)
	if err != nil {
		b.log.Error().Err(err).Str("race_plan_id", s.RacePlanID()).Msg("briefing failed")
		b.send(tgbotapi.NewEditMessageText(chatID, status.MessageID, "❌ Could not write a briefing: "+err.Error()))
		return
	}
	if res.Meta.Usage.PromptTokens > promptBloatTokens {
		b.sendAdminAlert(fmt.Sprintf("⚠️ *Context Bloat Alert*\nAgent: %s\nModel: %s\nPrompt Tokens: %d",
			res.Meta.AgentName, res.Meta.Usage.Model, res.Meta.Usage.PromptTokens))
	}
	b.send(tgbotapi.NewEditMessageText(chatID, status.MessageID, res.Text))
}

func (b *Bot) handleCallbackQuery(ctx context.Context, q *tgbotapi.CallbackQuery) {
	chatID := q.Message.Chat.ID
	answer := ""
	defer func() {
		if _, err := b.api.Request(tgbotapi.NewCallback(q.ID, answer)); err != nil {
			b.log.Debug().Err(err).Msg("failed to answer callback")
		}
	}()

	in, err := ParseCallback(q.Data)
	if err != nil {
		b.log.Warn().Err(err).Msg("bad callback")
		return
	}

	b.withSession(ctx, chatID, func(s *session.Session) {
		if !s.Dispatch(in) {
			answer = "Nothing changed"
			return
		}
		if _, ok := in.(session.AddProduct); ok {
			answer = "Added"
		}

		idx := hourOf(in)
		edit := tgbotapi.NewEditMessageText(chatID, q.Message.MessageID, b.hourSummary(s, idx))
		edit.ParseMode = tgbotapi.ModeMarkdown
		if selected, ok := s.SelectedHour(); ok && selected == idx {
			kb := productKeyboard(idx, s.FilteredProducts())
			edit.ReplyMarkup = &kb
		}
		b.send(edit)
	})
}

func (b *Bot) handleMetricsCommand(ctx context.Context, chatID, fromID int64) {
	if fromID != b.cfg.AdminTelegramID {
		b.reply(chatID, "⛔ *Access Denied*: Admin only.")
		return
	}
	usage, err := b.app.Metrics().GetDailyUsage(ctx, 7)
	if err != nil {
		b.reply(chatID, "❌ Error fetching metrics.")
		return
	}
	b.reply(chatID, formatMetrics(usage, metrics.GetSysHealth(b.app.DataDir())))
}

// withSession runs fn with the chat's open session, reopening it from the
// stored binding after a restart.
func (b *Bot) withSession(ctx context.Context, chatID int64, fn func(*session.Session)) {
	b.mu.Lock()
	s, ok := b.open[chatID]
	b.mu.Unlock()
	if ok {
		fn(s)
		return
	}

	cs, err := b.sessions.Get(ctx, chatID)
	if err != nil {
		b.log.Error().Err(err).Int64("chat_id", chatID).Msg("failed to load chat binding")
		b.reply(chatID, "❌ Could not load your plan.")
		return
	}
	if cs == nil {
		b.reply(chatID, "No plan is open. Start with "+planUsage)
		return
	}
	s, err = b.openSession(ctx, *cs)
	if err != nil {
		b.reply(chatID, "❌ Could not load your plan.")
		return
	}
	fn(s)
}

func (b *Bot) openSession(ctx context.Context, cs ChatSession) (*session.Session, error) {
	s, err := b.app.OpenUserSession(ctx, session.Params{
		RacePlanID: cs.RacePlanID,
		UserID:     cs.UserID,
		Race:       cs.ContextData.Race,
		Athlete:    cs.ContextData.Athlete,
		Weather:    cs.ContextData.Weather,
	})
	if err != nil {
		b.log.Error().Err(err).Int64("chat_id", cs.ChatID).Msg("failed to open session")
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if existing, ok := b.open[cs.ChatID]; ok {
		s.Close()
		return existing, nil
	}
	b.open[cs.ChatID] = s
	return s, nil
}

func (b *Bot) closeOpen(ctx context.Context, chatID int64) {
	b.mu.Lock()
	s, ok := b.open[chatID]
	delete(b.open, chatID)
	b.mu.Unlock()
	if !ok {
		return
	}
	if err := s.Flush(ctx); err != nil {
		b.log.Warn().Err(err).Int64("chat_id", chatID).Msg("failed to flush session")
	}
	s.Close()
}

func (b *Bot) hourSummary(s *session.Session, idx int) string {
	hours := s.Hours()
	if idx < 0 || idx >= len(hours) {
		return formatOverview(hours, s.Report())
	}
	var res validate.HourResult
	if report := s.Report(); idx < len(report.Hours) {
		res = report.Hours[idx]
	}
	return formatHour(hours[idx], s.Lookup(), res)
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	b.send(msg)
}

func (b *Bot) send(c tgbotapi.Chattable) {
	if _, err := b.api.Send(c); err != nil {
		b.log.Warn().Err(err).Msg("failed to send message")
	}
}

func (b *Bot) sendAdminAlert(text string) {
	if b.cfg.AdminTelegramID == 0 {
		return
	}
	b.reply(b.cfg.AdminTelegramID, text)
}

func telegramUserID(id int64) string {
	return "tg:" + strconv.FormatInt(id, 10)
}

// hourOf returns the hour an intent touched, or -1.
func hourOf(in session.Intent) int {
	switch in := in.(type) {
	case session.AddProduct:
		return in.HourIndex
	case session.RemoveProduct:
		return in.HourIndex
	case session.UpdateQuantity:
		return in.HourIndex
	case session.UpdateFluid:
		return in.HourIndex
	case session.SetWater:
		return in.HourIndex
	case session.SetWaterSource:
		return in.HourIndex
	case session.SelectHour:
		return in.HourIndex
	}
	return -1
}

func filterPatch(args []string) catalog.FilterPatch {
	on, off := true, false
	if len(args) == 0 {
		return catalog.FilterPatch{}
	}
	arg := strings.ToLower(strings.Join(args, " "))
	switch arg {
	case "all":
		var none catalog.Category
		empty := ""
		return catalog.FilterPatch{Category: &none, Search: &empty, CaffeineOnly: &off, CaffeineFree: &off, FavoritesOnly: &off}
	case "caffeine":
		return catalog.FilterPatch{CaffeineOnly: &on}
	case "nocaffeine":
		return catalog.FilterPatch{CaffeineFree: &on}
	case "favorites":
		return catalog.FilterPatch{FavoritesOnly: &on}
	}
	if c := catalog.Category(arg); c.Valid() {
		return catalog.FilterPatch{Category: &c}
	}
	return catalog.FilterPatch{Search: &arg}
}

// Package bot wires the Telegram transport to the dialogue engine. It owns
// the telebot instance, normalizes updates into dialogue events, and applies
// the inbound middleware chain.
package bot

import (
	"context"
	"fmt"
	"log/slog"

	telebot "gopkg.in/telebot.v3"

	"github.com/ka-abfall/abfallbot/internal/dialog"
	"github.com/ka-abfall/abfallbot/pkg/config"
)

// Engine is the dialogue surface the transport drives.
type Engine interface {
	HandleEvent(ctx context.Context, ev dialog.Event) error
}

// Bot wraps telebot.Bot with the application dependencies required for
// handling updates.
type Bot struct {
	telebot *telebot.Bot
	engine  Engine
	locks   *chatLocks
	log     *slog.Logger
}

// NewTelebot builds the raw telebot instance configured according to the
// application settings. It is created separately from the Bot so the outbound
// sender can wrap the same instance the inbound handlers run on.
func NewTelebot(cfg config.Config) (*telebot.Bot, error) {
	settings := telebot.Settings{
		Token: cfg.Bot.Token,
	}

	if cfg.Bot.Mode == "webhook" {
		settings.Poller = &telebot.Webhook{
			Listen: cfg.Server.Port,
		}
	} else {
		settings.Poller = &telebot.LongPoller{
			Timeout: cfg.Bot.Timeout,
		}
	}

	tb, err := telebot.NewBot(settings)
	if err != nil {
		return nil, fmt.Errorf("initialize telebot: %w", err)
	}

	return tb, nil
}

// New wires the middleware chain and update handlers. Admission runs before
// any handler; everything the admission middleware drops never reaches the
// dialogue engine.
func New(
	tb *telebot.Bot,
	log *slog.Logger,
	engine Engine,
	admission *AdmissionMiddleware,
	extra ...telebot.MiddlewareFunc,
) *Bot {
	b := &Bot{
		telebot: tb,
		engine:  engine,
		locks:   newChatLocks(),
		log:     log,
	}

	tb.Use(RecoveryMiddleware(log))
	tb.Use(LoggingMiddleware(log))
	tb.Use(extra...)
	if admission != nil {
		tb.Use(admission.Handle)
	}

	b.registerHandlers()

	return b
}

// Start runs the telegram bot event loop.
func (b *Bot) Start() {
	if b.telebot != nil {
		b.telebot.Start()
	}
}

// Stop gracefully stops the telegram bot.
func (b *Bot) Stop() {
	if b.telebot == nil {
		return
	}

	if b.log != nil {
		b.log.Info("stopping telegram bot...")
	}

	b.telebot.Stop()
}

// Telebot exposes the underlying telebot.Bot instance, e.g. for the outbound
// sender and health checks.
func (b *Bot) Telebot() *telebot.Bot {
	return b.telebot
}

func (b *Bot) registerHandlers() {
	b.telebot.Handle(telebot.OnText, b.route)
	b.telebot.Handle(telebot.OnLocation, b.route)

	// Every other payload still advances the state machine, as KindOther.
	for _, endpoint := range []string{
		telebot.OnPhoto,
		telebot.OnDocument,
		telebot.OnSticker,
		telebot.OnVoice,
		telebot.OnAudio,
		telebot.OnVideo,
		telebot.OnVideoNote,
		telebot.OnContact,
		telebot.OnVenue,
	} {
		b.telebot.Handle(endpoint, b.route)
	}
}

// route runs one dialogue step. Steps for the same chat never overlap: a
// second update for an in-flight chat waits its turn instead of racing the
// session record.
func (b *Bot) route(c telebot.Context) error {
	ev, ok := EventFromContext(c)
	if !ok {
		return nil
	}

	lock := b.locks.acquire(ev.ChatID)
	defer b.locks.release(ev.ChatID, lock)

	return b.engine.HandleEvent(context.Background(), ev)
}

// EventFromContext normalizes a telebot update into a dialogue event. ok is
// false when the update carries no chat to answer to.
func EventFromContext(c telebot.Context) (dialog.Event, bool) {
	if c == nil || c.Chat() == nil {
		return dialog.Event{}, false
	}

	ev := dialog.Event{
		ChatID: c.Chat().ID,
		Kind:   dialog.KindOther,
	}
	if sender := c.Sender(); sender != nil {
		ev.FirstName = sender.FirstName
		ev.LastName = sender.LastName
	}

	msg := c.Message()
	if msg == nil {
		return ev, true
	}

	switch {
	case msg.Location != nil:
		ev.Kind = dialog.KindLocation
		ev.Lat = float64(msg.Location.Lat)
		ev.Lon = float64(msg.Location.Lng)
	case msg.Text != "":
		ev.Kind = dialog.KindText
		ev.Text = msg.Text
	}

	return ev, true
}

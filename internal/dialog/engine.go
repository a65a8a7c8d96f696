package dialog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	telebot "gopkg.in/telebot.v3"

	"github.com/ka-abfall/abfallbot/internal/backend"
	apperrors "github.com/ka-abfall/abfallbot/internal/errors"
	"github.com/ka-abfall/abfallbot/internal/geocode"
	"github.com/ka-abfall/abfallbot/internal/session"
	"github.com/ka-abfall/abfallbot/pkg/metrics"
)

// Geocoder resolves coordinates into a postal address.
type Geocoder interface {
	Lookup(ctx context.Context, lat, lon float64) (*geocode.Location, error)
}

// Outbound delivers a message to a chat. Delivery failures are not the
// dialogue's problem; the implementation retries and logs.
type Outbound interface {
	Send(ctx context.Context, chatID int64, text string, opts ...interface{})
}

// Engine drives the per-chat dialogue state machine. One event in, at most
// one state transition out; the session record carries everything the flow
// accumulated so far.
type Engine struct {
	sessions session.Store
	backend  backend.Service
	geocoder Geocoder
	sender   Outbound
	errs     *apperrors.Handler
	log      *slog.Logger
}

func NewEngine(
	sessions session.Store,
	svc backend.Service,
	geocoder Geocoder,
	sender Outbound,
	errs *apperrors.Handler,
	log *slog.Logger,
) *Engine {
	return &Engine{
		sessions: sessions,
		backend:  svc,
		geocoder: geocoder,
		sender:   sender,
		errs:     errs,
		log:      log,
	}
}

// streetSearchLimit caps the candidates offered after a manual street search.
const streetSearchLimit = 5

// HandleEvent runs one dialogue step for the event's chat. It loads the
// session (creating a fresh one at the start state when none exists),
// dispatches on the current state, and persists or clears the session
// depending on whether the step was terminal.
func (e *Engine) HandleEvent(ctx context.Context, ev Event) error {
	record, err := e.sessions.Get(ctx, ev.ChatID)
	switch {
	case errors.Is(err, session.ErrNotFound):
		record = session.NewRecord(ev.ChatID, string(StateStart))
	case err != nil:
		msg, _ := e.errs.Handle(ctx, err)
		e.sender.Send(ctx, ev.ChatID, msg)
		return fmt.Errorf("load session for chat %d: %w", ev.ChatID, err)
	}

	current := State(record.State)
	if !Known(current) {
		e.errs.Handle(ctx, apperrors.NewProtocolError(
			fmt.Sprintf("chat %d has unknown dialogue state %q", ev.ChatID, record.State)))
		return e.terminate(ctx, current, ev.ChatID)
	}

	var (
		next     State
		terminal bool
	)

	switch current {
	case StateStart:
		next, terminal = e.stepStart(ctx, ev)
	case StateMainMenu:
		next, terminal = e.stepMainMenu(ctx, ev)
	case StateSearch:
		next, terminal = e.stepSearch(ctx, record, ev)
	case StateSearchManually:
		next, terminal = e.stepSearchManually(ctx, record, ev)
	case StateSearchManuallyKeyboard:
		next, terminal = e.stepSearchManuallyKeyboard(ctx, record, ev)
	case StateSearchManuallyHouseNumber:
		next, terminal = e.stepSearchManuallyHouseNumber(ctx, record, ev)
	case StateSearchManuallyHouseNumberKeyboard:
		next, terminal = e.stepSearchManuallyHouseNumberKeyboard(ctx, record, ev)
	case StateSearchAskIfOk:
		next, terminal = e.stepSearchAskIfOk(ctx, record, ev)
	case StateRemove:
		next, terminal = e.stepRemove(ctx, ev)
	}

	if terminal {
		metrics.RecordDialogStep(string(current), "terminal")
		return e.terminate(ctx, current, ev.ChatID)
	}

	metrics.RecordDialogStep(string(current), "continue")
	if next != current {
		transitionRecorder(string(current), string(next))
	}
	record.State = string(next)
	if err := e.sessions.Save(ctx, record); err != nil {
		msg, _ := e.errs.Handle(ctx, err)
		e.sender.Send(ctx, ev.ChatID, msg)
		return fmt.Errorf("save session for chat %d: %w", ev.ChatID, err)
	}
	return nil
}

// terminate clears the chat's session so the next contact starts fresh.
func (e *Engine) terminate(ctx context.Context, from State, chatID int64) error {
	transitionRecorder(string(from), string(StateStart))
	if err := e.sessions.Clear(ctx, chatID); err != nil {
		e.errs.Handle(ctx, err)
		return fmt.Errorf("clear session for chat %d: %w", chatID, err)
	}
	return nil
}

func (e *Engine) stepStart(ctx context.Context, ev Event) (State, bool) {
	greeting := textHello
	if ev.FirstName != "" {
		greeting += " " + ev.FirstName
	}
	greeting += "!\n\n" + textAskWhatUserWant

	e.sender.Send(ctx, ev.ChatID, greeting, MainMenuKeyboard())
	return StateMainMenu, false
}

func (e *Engine) stepMainMenu(ctx context.Context, ev Event) (State, bool) {
	switch ev.Kind {
	case KindLocation:
		// A stray location here means the user answered an already-finished
		// search. Stay in the menu.
		return StateMainMenu, false
	case KindText:
	default:
		return StateStart, true
	}

	choice, ok := ParseMainMenuChoice(ev.Text)
	if !ok {
		e.errs.Handle(ctx, apperrors.NewProtocolError(
			fmt.Sprintf("chat %d sent no menu choice: %q", ev.ChatID, ev.Text)))
		return StateStart, true
	}

	switch choice {
	case MenuSearch:
		e.sender.Send(ctx, ev.ChatID, textAskSearchMode, SearchModeKeyboard())
		return StateSearch, false
	case MenuToggleNotifications:
		e.toggleNotifications(ctx, ev.ChatID)
		return StateMainMenu, false
	case MenuRequestTomorrow:
		e.sendTomorrowsPickups(ctx, ev.ChatID)
		return StateMainMenu, false
	case MenuRequestData:
		e.sendUserData(ctx, ev.ChatID)
		return StateMainMenu, false
	case MenuDelete:
		e.sender.Send(ctx, ev.ChatID, textDeletionQuestion, YesNoKeyboard())
		return StateRemove, false
	}
	return StateStart, true
}

func (e *Engine) stepSearch(ctx context.Context, record *session.Record, ev Event) (State, bool) {
	switch ev.Kind {
	case KindLocation:
	case KindText:
		e.sender.Send(ctx, ev.ChatID, textEnterStreetName)
		return StateSearchManually, false
	default:
		return StateStart, false
	}

	loc, err := e.geocoder.Lookup(ctx, ev.Lat, ev.Lon)
	if err != nil {
		if !errors.Is(err, geocode.ErrNotFound) {
			e.errs.Handle(ctx, apperrors.NewGeocodeError(err))
		}
		e.sender.Send(ctx, ev.ChatID, textAskForManualEntry)
		return StateSearchManually, false
	}

	if err := record.Set(keyLocation, loc); err != nil {
		return e.protocolFailure(ctx, err)
	}

	id, found, err := e.backend.StreetID(ctx, loc.Street)
	if err != nil {
		e.errs.Handle(ctx, err)
		e.sender.Send(ctx, ev.ChatID, textStreetSearchFailed)
		return StateStart, true
	}
	if !found {
		e.sender.Send(ctx, ev.ChatID, textSearchCouldNotFind)
		return StateSearchManually, false
	}

	if err := record.Set(keyStreetID, id); err != nil {
		return e.protocolFailure(ctx, err)
	}
	if err := record.Set(keyStreetNumber, loc.HouseNumber); err != nil {
		return e.protocolFailure(ctx, err)
	}

	text := textConfirmStreetAndNumber + "\n\n*" + loc.String() + "*"
	e.sender.Send(ctx, ev.ChatID, text, LocationConfirmKeyboard(), telebot.ModeMarkdown)
	return StateSearchAskIfOk, false
}

func (e *Engine) stepSearchManually(ctx context.Context, record *session.Record, ev Event) (State, bool) {
	if ev.Kind != KindText {
		return StateStart, true
	}

	streets, err := e.backend.SearchStreets(ctx, strings.TrimSpace(ev.Text), streetSearchLimit)
	if err != nil {
		e.errs.Handle(ctx, err)
		e.sender.Send(ctx, ev.ChatID, textStreetSearchFailed)
		return StateStart, true
	}
	if len(streets) == 0 {
		e.sender.Send(ctx, ev.ChatID, textHelp)
		return StateSearchManually, false
	}

	if err := record.Set(keyStreetSearch, streets); err != nil {
		return e.protocolFailure(ctx, err)
	}

	e.sender.Send(ctx, ev.ChatID, textConfirmOneOfStreets, StreetsKeyboard(streets))
	return StateSearchManuallyKeyboard, false
}

func (e *Engine) stepSearchManuallyKeyboard(ctx context.Context, record *session.Record, ev Event) (State, bool) {
	if ev.Kind != KindText {
		return StateStart, true
	}

	var streets []backend.Street
	if err := record.Get(keyStreetSearch, &streets); err != nil {
		return e.protocolFailure(ctx, err)
	}

	text := strings.TrimSpace(ev.Text)
	for _, street := range streets {
		if text != street.Name {
			continue
		}
		if err := record.Set(keyStreetID, street.ID); err != nil {
			return e.protocolFailure(ctx, err)
		}
		e.sender.Send(ctx, ev.ChatID, textHouseNumber)
		return StateSearchManuallyHouseNumber, false
	}

	e.sender.Send(ctx, ev.ChatID, textHelp)
	return StateSearchManually, false
}

func (e *Engine) stepSearchManuallyHouseNumber(ctx context.Context, record *session.Record, ev Event) (State, bool) {
	if ev.Kind != KindText {
		return StateStart, true
	}

	number := strings.TrimSpace(ev.Text)
	if err := record.Set(keyStreetNumber, number); err != nil {
		return e.protocolFailure(ctx, err)
	}

	text := textHouseNumberQuestion1 + " *" + number + "*?\n\n" + textHouseNumberQuestion2
	e.sender.Send(ctx, ev.ChatID, text, YesNoKeyboard(), telebot.ModeMarkdown)
	return StateSearchManuallyHouseNumberKeyboard, false
}

func (e *Engine) stepSearchManuallyHouseNumberKeyboard(ctx context.Context, record *session.Record, ev Event) (State, bool) {
	if ev.Kind != KindText {
		return StateStart, true
	}

	if strings.TrimSpace(ev.Text) != captionYes {
		e.sender.Send(ctx, ev.ChatID, textEnterHouseNumber)
		return StateSearchManuallyHouseNumber, false
	}

	return e.registerUser(ctx, record, ev)
}

func (e *Engine) stepSearchAskIfOk(ctx context.Context, record *session.Record, ev Event) (State, bool) {
	if ev.Kind != KindText {
		return StateStart, false
	}

	choice, ok := ParseLocationChoice(ev.Text)
	if !ok {
		e.errs.Handle(ctx, apperrors.NewProtocolError(
			fmt.Sprintf("chat %d sent no address confirmation: %q", ev.ChatID, ev.Text)))
		return StateStart, true
	}

	switch choice {
	case LocationCorrect:
		e.sender.Send(ctx, ev.ChatID, textSaveLocation)
		return e.registerUser(ctx, record, ev)
	case LocationNumberFalse:
		e.sender.Send(ctx, ev.ChatID, textEnterHouseNumber)
		return StateSearchManuallyHouseNumber, false
	default:
		e.sender.Send(ctx, ev.ChatID, textEnterStreetName)
		return StateSearchManually, false
	}
}

func (e *Engine) stepRemove(ctx context.Context, ev Event) (State, bool) {
	if ev.Kind != KindText {
		return StateStart, true
	}
	if strings.TrimSpace(ev.Text) != captionYes {
		e.sender.Send(ctx, ev.ChatID, textNothingHappens)
		return StateStart, true
	}

	affected, err := e.backend.RemoveUserData(ctx, ev.ChatID)
	if err != nil {
		e.errs.Handle(ctx, err)
		e.sender.Send(ctx, ev.ChatID, textDeleteFailed)
		return StateStart, true
	}

	if affected > 0 {
		e.sender.Send(ctx, ev.ChatID, textDeleted)
	} else {
		e.sender.Send(ctx, ev.ChatID, textNothingToDelete)
	}
	return StateStart, true
}

// registerUser writes the address accumulated in the session to the data
// service. Always terminal.
func (e *Engine) registerUser(ctx context.Context, record *session.Record, ev Event) (State, bool) {
	var streetID int64
	if err := record.Get(keyStreetID, &streetID); err != nil {
		return e.protocolFailure(ctx, err)
	}
	var number string
	if err := record.Get(keyStreetNumber, &number); err != nil {
		return e.protocolFailure(ctx, err)
	}

	user := backend.UserRecord{
		ChatID:      record.ChatID,
		FirstName:   ev.FirstName,
		LastName:    ev.LastName,
		StreetID:    streetID,
		HouseNumber: number,
	}
	if err := e.backend.AddUser(ctx, user); err != nil {
		e.errs.Handle(ctx, err)
		e.sender.Send(ctx, ev.ChatID, textAddressAddFailed)
		return StateStart, true
	}

	e.sender.Send(ctx, ev.ChatID, textAddressAdded)
	return StateStart, true
}

func (e *Engine) toggleNotifications(ctx context.Context, chatID int64) {
	enabled, found, err := e.backend.NotificationStatus(ctx, chatID)
	if err != nil {
		e.errs.Handle(ctx, err)
		e.sender.Send(ctx, chatID, textNotificationFailed)
		return
	}
	if !found {
		e.sender.Send(ctx, chatID, textNotificationNoUser)
		return
	}

	now, err := e.backend.SetNotification(ctx, chatID, !enabled)
	if err != nil {
		e.errs.Handle(ctx, err)
		e.sender.Send(ctx, chatID, textNotificationFailed)
		return
	}

	if now {
		e.sender.Send(ctx, chatID, textNotificationsOn)
	} else {
		e.sender.Send(ctx, chatID, textNotificationsOff)
	}
}

func (e *Engine) sendTomorrowsPickups(ctx context.Context, chatID int64) {
	pickups, err := e.backend.TomorrowsPickups(ctx, chatID)
	if err != nil {
		msg, _ := e.errs.Handle(ctx, err)
		e.sender.Send(ctx, chatID, msg)
		return
	}

	e.sender.Send(ctx, chatID, RenderPickups(pickups))
}

func (e *Engine) sendUserData(ctx context.Context, chatID int64) {
	data, err := e.backend.UserData(ctx, chatID)
	if err != nil {
		msg, _ := e.errs.Handle(ctx, err)
		e.sender.Send(ctx, chatID, msg)
		return
	}
	if len(data) == 0 {
		e.sender.Send(ctx, chatID, textUserDataNotFound)
		return
	}

	keys := make([]string, 0, len(data))
	for key := range data {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	lines := make([]string, 0, len(keys))
	for _, key := range keys {
		lines = append(lines, key+": "+data[key])
	}
	e.sender.Send(ctx, chatID, strings.Join(lines, "\n"))
}

// protocolFailure logs a broken dialogue contract and terminates the session.
func (e *Engine) protocolFailure(ctx context.Context, err error) (State, bool) {
	e.errs.Handle(ctx, apperrors.NewProtocolError(err.Error()))
	return StateStart, true
}

// RenderPickups formats tomorrow's collection events for a chat message. The
// notification job shares the format with the manual request.
func RenderPickups(pickups []backend.Pickup) string {
	if len(pickups) == 0 {
		return textNoPickupsTomorrow
	}

	lines := make([]string, 0, len(pickups)+1)
	lines = append(lines, textPickupsTomorrow)
	for _, pickup := range pickups {
		lines = append(lines, "- "+pickup.TrashType)
	}
	return strings.Join(lines, "\n")
}

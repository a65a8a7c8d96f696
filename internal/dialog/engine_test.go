package dialog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ka-abfall/abfallbot/internal/backend"
	apperrors "github.com/ka-abfall/abfallbot/internal/errors"
	"github.com/ka-abfall/abfallbot/internal/geocode"
	"github.com/ka-abfall/abfallbot/internal/session"
)

const testChatID = int64(42)

type mockBackend struct {
	mock.Mock
}

func (m *mockBackend) SearchStreets(ctx context.Context, query string, limit int) ([]backend.Street, error) {
	args := m.Called(ctx, query, limit)
	streets, _ := args.Get(0).([]backend.Street)
	return streets, args.Error(1)
}

func (m *mockBackend) StreetID(ctx context.Context, exactName string) (int64, bool, error) {
	args := m.Called(ctx, exactName)
	return args.Get(0).(int64), args.Bool(1), args.Error(2)
}

func (m *mockBackend) AddUser(ctx context.Context, user backend.UserRecord) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockBackend) NotificationStatus(ctx context.Context, chatID int64) (bool, bool, error) {
	args := m.Called(ctx, chatID)
	return args.Bool(0), args.Bool(1), args.Error(2)
}

func (m *mockBackend) SetNotification(ctx context.Context, chatID int64, enabled bool) (bool, error) {
	args := m.Called(ctx, chatID, enabled)
	return args.Bool(0), args.Error(1)
}

func (m *mockBackend) RemoveUserData(ctx context.Context, chatID int64) (int64, error) {
	args := m.Called(ctx, chatID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockBackend) TomorrowsPickups(ctx context.Context, chatID int64) ([]backend.Pickup, error) {
	args := m.Called(ctx, chatID)
	pickups, _ := args.Get(0).([]backend.Pickup)
	return pickups, args.Error(1)
}

func (m *mockBackend) UserData(ctx context.Context, chatID int64) (map[string]string, error) {
	args := m.Called(ctx, chatID)
	data, _ := args.Get(0).(map[string]string)
	return data, args.Error(1)
}

func (m *mockBackend) NotificationRecipients(ctx context.Context) ([]int64, error) {
	args := m.Called(ctx)
	chats, _ := args.Get(0).([]int64)
	return chats, args.Error(1)
}

type sentMessage struct {
	ChatID int64
	Text   string
}

type captureSender struct {
	messages []sentMessage
}

func (s *captureSender) Send(_ context.Context, chatID int64, text string, _ ...interface{}) {
	s.messages = append(s.messages, sentMessage{ChatID: chatID, Text: text})
}

func (s *captureSender) texts() []string {
	out := make([]string, 0, len(s.messages))
	for _, msg := range s.messages {
		out = append(out, msg.Text)
	}
	return out
}

type stubGeocoder struct {
	loc *geocode.Location
	err error
}

func (g *stubGeocoder) Lookup(context.Context, float64, float64) (*geocode.Location, error) {
	return g.loc, g.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type engineFixture struct {
	engine   *Engine
	sessions session.Store
	backend  *mockBackend
	geocoder *stubGeocoder
	sender   *captureSender
}

func newEngineFixture(t *testing.T) *engineFixture {
	t.Helper()

	f := &engineFixture{
		sessions: session.NewMemoryStore(),
		backend:  &mockBackend{},
		geocoder: &stubGeocoder{},
		sender:   &captureSender{},
	}
	f.engine = NewEngine(
		f.sessions,
		f.backend,
		f.geocoder,
		f.sender,
		apperrors.NewHandler(testLogger(), false),
		testLogger(),
	)
	return f
}

// seed puts the chat into the given state with optional session values.
func (f *engineFixture) seed(t *testing.T, state State, values map[string]any) {
	t.Helper()

	record := session.NewRecord(testChatID, string(state))
	for key, value := range values {
		require.NoError(t, record.Set(key, value))
	}
	require.NoError(t, f.sessions.Save(context.Background(), record))
}

func (f *engineFixture) state(t *testing.T) (State, bool) {
	t.Helper()

	record, err := f.sessions.Get(context.Background(), testChatID)
	if errors.Is(err, session.ErrNotFound) {
		return "", false
	}
	require.NoError(t, err)
	return State(record.State), true
}

func textEvent(text string) Event {
	return Event{ChatID: testChatID, FirstName: "Max", Kind: KindText, Text: text}
}

func locationEvent(lat, lon float64) Event {
	return Event{ChatID: testChatID, FirstName: "Max", Kind: KindLocation, Lat: lat, Lon: lon}
}

func TestEngineFirstContactGreets(t *testing.T) {
	f := newEngineFixture(t)

	require.NoError(t, f.engine.HandleEvent(context.Background(), textEvent("Hi")))

	state, ok := f.state(t)
	require.True(t, ok)
	assert.Equal(t, StateMainMenu, state)
	require.Len(t, f.sender.messages, 1)
	assert.Contains(t, f.sender.messages[0].Text, "Hallo Max!")
	assert.Contains(t, f.sender.messages[0].Text, textAskWhatUserWant)
}

func TestEngineMainMenu(t *testing.T) {
	testCases := []struct {
		name        string
		event       Event
		setupMocks  func(mb *mockBackend)
		wantState   State
		wantCleared bool
		wantTexts   []string
	}{
		{
			name:      "search choice",
			event:     textEvent(MenuSearch.Caption()),
			wantState: StateSearch,
			wantTexts: []string{textAskSearchMode},
		},
		{
			name:      "caption with surrounding whitespace",
			event:     textEvent("  " + MenuSearch.Caption() + " \n"),
			wantState: StateSearch,
			wantTexts: []string{textAskSearchMode},
		},
		{
			name:      "delete choice",
			event:     textEvent(MenuDelete.Caption()),
			wantState: StateRemove,
			wantTexts: []string{textDeletionQuestion},
		},
		{
			name:  "toggle notifications on",
			event: textEvent(MenuToggleNotifications.Caption()),
			setupMocks: func(mb *mockBackend) {
				mb.On("NotificationStatus", mock.Anything, testChatID).Return(false, true, nil).Once()
				mb.On("SetNotification", mock.Anything, testChatID, true).Return(true, nil).Once()
			},
			wantState: StateMainMenu,
			wantTexts: []string{textNotificationsOn},
		},
		{
			name:  "toggle notifications without registration",
			event: textEvent(MenuToggleNotifications.Caption()),
			setupMocks: func(mb *mockBackend) {
				mb.On("NotificationStatus", mock.Anything, testChatID).Return(false, false, nil).Once()
			},
			wantState: StateMainMenu,
			wantTexts: []string{textNotificationNoUser},
		},
		{
			name:  "manual pickup request",
			event: textEvent(MenuRequestTomorrow.Caption()),
			setupMocks: func(mb *mockBackend) {
				mb.On("TomorrowsPickups", mock.Anything, testChatID).
					Return([]backend.Pickup{{TrashType: "Bioabfall"}, {TrashType: "Papier"}}, nil).Once()
			},
			wantState: StateMainMenu,
			wantTexts: []string{textPickupsTomorrow + "\n- Bioabfall\n- Papier"},
		},
		{
			name:  "manual pickup request with empty schedule",
			event: textEvent(MenuRequestTomorrow.Caption()),
			setupMocks: func(mb *mockBackend) {
				mb.On("TomorrowsPickups", mock.Anything, testChatID).
					Return([]backend.Pickup{}, nil).Once()
			},
			wantState: StateMainMenu,
			wantTexts: []string{textNoPickupsTomorrow},
		},
		{
			name:  "stored data request",
			event: textEvent(MenuRequestData.Caption()),
			setupMocks: func(mb *mockBackend) {
				mb.On("UserData", mock.Anything, testChatID).
					Return(map[string]string{"street": "Kaiserstraße", "house_number": "12"}, nil).Once()
			},
			wantState: StateMainMenu,
			wantTexts: []string{"house_number: 12\nstreet: Kaiserstraße"},
		},
		{
			name:        "unknown text terminates",
			event:       textEvent("weißnicht"),
			wantCleared: true,
			wantTexts:   []string{},
		},
		{
			name:      "stray location stays in menu",
			event:     locationEvent(49.0, 8.4),
			wantState: StateMainMenu,
			wantTexts: []string{},
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			f := newEngineFixture(t)
			f.seed(t, StateMainMenu, nil)
			if tc.setupMocks != nil {
				tc.setupMocks(f.backend)
			}

			require.NoError(t, f.engine.HandleEvent(context.Background(), tc.event))

			state, ok := f.state(t)
			if tc.wantCleared {
				assert.False(t, ok, "session should be cleared")
			} else {
				require.True(t, ok)
				assert.Equal(t, tc.wantState, state)
			}
			assert.Equal(t, tc.wantTexts, append([]string{}, f.sender.texts()...))
			f.backend.AssertExpectations(t)
		})
	}
}

func TestEngineSearchWithLocation(t *testing.T) {
	loc := &geocode.Location{Street: "Kaiserstraße", HouseNumber: "12", City: "Karlsruhe", Country: "Deutschland"}

	testCases := []struct {
		name       string
		geocoder   stubGeocoder
		setupMocks func(mb *mockBackend)
		wantState  State
		wantText   string
	}{
		{
			name:     "resolved and known street",
			geocoder: stubGeocoder{loc: loc},
			setupMocks: func(mb *mockBackend) {
				mb.On("StreetID", mock.Anything, "Kaiserstraße").Return(int64(7), true, nil).Once()
			},
			wantState: StateSearchAskIfOk,
			wantText:  textConfirmStreetAndNumber,
		},
		{
			name:      "geocoder found nothing",
			geocoder:  stubGeocoder{err: geocode.ErrNotFound},
			wantState: StateSearchManually,
			wantText:  textAskForManualEntry,
		},
		{
			name:      "geocoder failed",
			geocoder:  stubGeocoder{err: errors.New("provider down")},
			wantState: StateSearchManually,
			wantText:  textAskForManualEntry,
		},
		{
			name:      "worker stopped",
			geocoder:  stubGeocoder{err: geocode.ErrStopped},
			wantState: StateSearchManually,
			wantText:  textAskForManualEntry,
		},
		{
			name:     "street not in calendar",
			geocoder: stubGeocoder{loc: loc},
			setupMocks: func(mb *mockBackend) {
				mb.On("StreetID", mock.Anything, "Kaiserstraße").Return(int64(0), false, nil).Once()
			},
			wantState: StateSearchManually,
			wantText:  textSearchCouldNotFind,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			f := newEngineFixture(t)
			f.seed(t, StateSearch, nil)
			*f.geocoder = tc.geocoder
			if tc.setupMocks != nil {
				tc.setupMocks(f.backend)
			}

			require.NoError(t, f.engine.HandleEvent(context.Background(), locationEvent(49.0, 8.4)))

			state, ok := f.state(t)
			require.True(t, ok)
			assert.Equal(t, tc.wantState, state)
			require.Len(t, f.sender.messages, 1)
			assert.Contains(t, f.sender.messages[0].Text, tc.wantText)
			f.backend.AssertExpectations(t)
		})
	}
}

func TestEngineSearchStoresGeocodedAddress(t *testing.T) {
	f := newEngineFixture(t)
	f.seed(t, StateSearch, nil)
	f.geocoder.loc = &geocode.Location{Street: "Kaiserstraße", HouseNumber: "12", City: "Karlsruhe"}
	f.backend.On("StreetID", mock.Anything, "Kaiserstraße").Return(int64(7), true, nil).Once()

	require.NoError(t, f.engine.HandleEvent(context.Background(), locationEvent(49.0, 8.4)))

	record, err := f.sessions.Get(context.Background(), testChatID)
	require.NoError(t, err)

	var streetID int64
	require.NoError(t, record.Get(keyStreetID, &streetID))
	assert.Equal(t, int64(7), streetID)

	var number string
	require.NoError(t, record.Get(keyStreetNumber, &number))
	assert.Equal(t, "12", number)
}

func TestEngineSearchTextSwitchesToManual(t *testing.T) {
	f := newEngineFixture(t)
	f.seed(t, StateSearch, nil)

	require.NoError(t, f.engine.HandleEvent(context.Background(), textEvent(captionEnterManually)))

	state, ok := f.state(t)
	require.True(t, ok)
	assert.Equal(t, StateSearchManually, state)
	assert.Equal(t, []string{textEnterStreetName}, f.sender.texts())
}

func TestEngineManualSearch(t *testing.T) {
	streets := []backend.Street{{ID: 1, Name: "Kaiserstraße"}, {ID: 2, Name: "Kaiserallee"}}

	t.Run("candidates offered", func(t *testing.T) {
		f := newEngineFixture(t)
		f.seed(t, StateSearchManually, nil)
		f.backend.On("SearchStreets", mock.Anything, "Kaiser", streetSearchLimit).Return(streets, nil).Once()

		require.NoError(t, f.engine.HandleEvent(context.Background(), textEvent("Kaiser")))

		state, ok := f.state(t)
		require.True(t, ok)
		assert.Equal(t, StateSearchManuallyKeyboard, state)
		assert.Equal(t, []string{textConfirmOneOfStreets}, f.sender.texts())
		f.backend.AssertExpectations(t)
	})

	t.Run("no candidates keeps asking", func(t *testing.T) {
		f := newEngineFixture(t)
		f.seed(t, StateSearchManually, nil)
		f.backend.On("SearchStreets", mock.Anything, "xyz", streetSearchLimit).
			Return([]backend.Street{}, nil).Once()

		require.NoError(t, f.engine.HandleEvent(context.Background(), textEvent("xyz")))

		state, ok := f.state(t)
		require.True(t, ok)
		assert.Equal(t, StateSearchManually, state)
		assert.Equal(t, []string{textHelp}, f.sender.texts())
	})

	t.Run("search failure terminates with apology", func(t *testing.T) {
		f := newEngineFixture(t)
		f.seed(t, StateSearchManually, nil)
		f.backend.On("SearchStreets", mock.Anything, "Kaiser", streetSearchLimit).
			Return(nil, apperrors.NewBackendError("search_streets", errors.New("boom"))).Once()

		require.NoError(t, f.engine.HandleEvent(context.Background(), textEvent("Kaiser")))

		_, ok := f.state(t)
		assert.False(t, ok, "session should be cleared")
		assert.Equal(t, []string{textStreetSearchFailed}, f.sender.texts())
	})
}

func TestEngineStreetKeyboard(t *testing.T) {
	streets := []backend.Street{{ID: 1, Name: "Kaiserstraße"}, {ID: 2, Name: "Kaiserallee"}}

	t.Run("candidate picked", func(t *testing.T) {
		f := newEngineFixture(t)
		f.seed(t, StateSearchManuallyKeyboard, map[string]any{keyStreetSearch: streets})

		require.NoError(t, f.engine.HandleEvent(context.Background(), textEvent("Kaiserallee")))

		record, err := f.sessions.Get(context.Background(), testChatID)
		require.NoError(t, err)
		assert.Equal(t, StateSearchManuallyHouseNumber, State(record.State))

		var streetID int64
		require.NoError(t, record.Get(keyStreetID, &streetID))
		assert.Equal(t, int64(2), streetID)
		assert.Equal(t, []string{textHouseNumber}, f.sender.texts())
	})

	t.Run("no candidate matches", func(t *testing.T) {
		f := newEngineFixture(t)
		f.seed(t, StateSearchManuallyKeyboard, map[string]any{keyStreetSearch: streets})

		require.NoError(t, f.engine.HandleEvent(context.Background(), textEvent(captionNoStreetListed)))

		state, ok := f.state(t)
		require.True(t, ok)
		assert.Equal(t, StateSearchManually, state)
		assert.Equal(t, []string{textHelp}, f.sender.texts())
	})

	t.Run("missing search results terminate silently", func(t *testing.T) {
		f := newEngineFixture(t)
		f.seed(t, StateSearchManuallyKeyboard, nil)

		require.NoError(t, f.engine.HandleEvent(context.Background(), textEvent("Kaiserallee")))

		_, ok := f.state(t)
		assert.False(t, ok, "session should be cleared")
		assert.Empty(t, f.sender.messages)
	})
}

func TestEngineHouseNumberFlow(t *testing.T) {
	f := newEngineFixture(t)
	f.seed(t, StateSearchManuallyHouseNumber, map[string]any{keyStreetID: int64(7)})

	require.NoError(t, f.engine.HandleEvent(context.Background(), textEvent(" 12a ")))

	record, err := f.sessions.Get(context.Background(), testChatID)
	require.NoError(t, err)
	assert.Equal(t, StateSearchManuallyHouseNumberKeyboard, State(record.State))

	var number string
	require.NoError(t, record.Get(keyStreetNumber, &number))
	assert.Equal(t, "12a", number)
	require.Len(t, f.sender.messages, 1)
	assert.Contains(t, f.sender.messages[0].Text, "12a")
}

func TestEngineHouseNumberConfirmation(t *testing.T) {
	seedValues := map[string]any{keyStreetID: int64(7), keyStreetNumber: "12"}

	t.Run("confirmed registers user", func(t *testing.T) {
		f := newEngineFixture(t)
		f.seed(t, StateSearchManuallyHouseNumberKeyboard, seedValues)
		f.backend.On("AddUser", mock.Anything, backend.UserRecord{
			ChatID:      testChatID,
			FirstName:   "Max",
			StreetID:    7,
			HouseNumber: "12",
		}).Return(nil).Once()

		require.NoError(t, f.engine.HandleEvent(context.Background(), textEvent(captionYes)))

		_, ok := f.state(t)
		assert.False(t, ok, "session should be cleared")
		assert.Equal(t, []string{textAddressAdded}, f.sender.texts())
		f.backend.AssertExpectations(t)
	})

	t.Run("registration failure apologizes", func(t *testing.T) {
		f := newEngineFixture(t)
		f.seed(t, StateSearchManuallyHouseNumberKeyboard, seedValues)
		f.backend.On("AddUser", mock.Anything, mock.Anything).
			Return(apperrors.NewBackendError("add_user", errors.New("boom"))).Once()

		require.NoError(t, f.engine.HandleEvent(context.Background(), textEvent(captionYes)))

		_, ok := f.state(t)
		assert.False(t, ok)
		assert.Equal(t, []string{textAddressAddFailed}, f.sender.texts())
	})

	t.Run("declined asks again", func(t *testing.T) {
		f := newEngineFixture(t)
		f.seed(t, StateSearchManuallyHouseNumberKeyboard, seedValues)

		require.NoError(t, f.engine.HandleEvent(context.Background(), textEvent(captionNo)))

		state, ok := f.state(t)
		require.True(t, ok)
		assert.Equal(t, StateSearchManuallyHouseNumber, state)
		assert.Equal(t, []string{textEnterHouseNumber}, f.sender.texts())
	})

	t.Run("confirmed without session values terminates silently", func(t *testing.T) {
		f := newEngineFixture(t)
		f.seed(t, StateSearchManuallyHouseNumberKeyboard, nil)

		require.NoError(t, f.engine.HandleEvent(context.Background(), textEvent(captionYes)))

		_, ok := f.state(t)
		assert.False(t, ok)
		assert.Empty(t, f.sender.messages)
	})
}

func TestEngineAddressConfirmation(t *testing.T) {
	seedValues := map[string]any{keyStreetID: int64(7), keyStreetNumber: "12"}

	t.Run("both correct registers user", func(t *testing.T) {
		f := newEngineFixture(t)
		f.seed(t, StateSearchAskIfOk, seedValues)
		f.backend.On("AddUser", mock.Anything, backend.UserRecord{
			ChatID:      testChatID,
			FirstName:   "Max",
			StreetID:    7,
			HouseNumber: "12",
		}).Return(nil).Once()

		require.NoError(t, f.engine.HandleEvent(context.Background(), textEvent(LocationCorrect.Caption())))

		_, ok := f.state(t)
		assert.False(t, ok)
		assert.Equal(t, []string{textSaveLocation, textAddressAdded}, f.sender.texts())
		f.backend.AssertExpectations(t)
	})

	t.Run("house number wrong", func(t *testing.T) {
		f := newEngineFixture(t)
		f.seed(t, StateSearchAskIfOk, seedValues)

		require.NoError(t, f.engine.HandleEvent(context.Background(), textEvent(LocationNumberFalse.Caption())))

		state, ok := f.state(t)
		require.True(t, ok)
		assert.Equal(t, StateSearchManuallyHouseNumber, state)
		assert.Equal(t, []string{textEnterHouseNumber}, f.sender.texts())
	})

	t.Run("everything wrong", func(t *testing.T) {
		f := newEngineFixture(t)
		f.seed(t, StateSearchAskIfOk, seedValues)

		require.NoError(t, f.engine.HandleEvent(context.Background(), textEvent(LocationAllFalse.Caption())))

		state, ok := f.state(t)
		require.True(t, ok)
		assert.Equal(t, StateSearchManually, state)
		assert.Equal(t, []string{textEnterStreetName}, f.sender.texts())
	})

	t.Run("free text terminates silently", func(t *testing.T) {
		f := newEngineFixture(t)
		f.seed(t, StateSearchAskIfOk, seedValues)

		require.NoError(t, f.engine.HandleEvent(context.Background(), textEvent("vielleicht")))

		_, ok := f.state(t)
		assert.False(t, ok)
		assert.Empty(t, f.sender.messages)
	})
}

func TestEngineRemove(t *testing.T) {
	testCases := []struct {
		name       string
		text       string
		setupMocks func(mb *mockBackend)
		wantTexts  []string
	}{
		{
			name: "confirmed with stored data",
			text: captionYes,
			setupMocks: func(mb *mockBackend) {
				mb.On("RemoveUserData", mock.Anything, testChatID).Return(int64(1), nil).Once()
			},
			wantTexts: []string{textDeleted},
		},
		{
			name: "confirmed without stored data",
			text: captionYes,
			setupMocks: func(mb *mockBackend) {
				mb.On("RemoveUserData", mock.Anything, testChatID).Return(int64(0), nil).Once()
			},
			wantTexts: []string{textNothingToDelete},
		},
		{
			name: "deletion failure",
			text: captionYes,
			setupMocks: func(mb *mockBackend) {
				mb.On("RemoveUserData", mock.Anything, testChatID).
					Return(int64(0), apperrors.NewBackendError("remove_user_data", errors.New("boom"))).Once()
			},
			wantTexts: []string{textDeleteFailed},
		},
		{
			name:      "declined",
			text:      captionNo,
			wantTexts: []string{textNothingHappens},
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			f := newEngineFixture(t)
			f.seed(t, StateRemove, nil)
			if tc.setupMocks != nil {
				tc.setupMocks(f.backend)
			}

			require.NoError(t, f.engine.HandleEvent(context.Background(), textEvent(tc.text)))

			_, ok := f.state(t)
			assert.False(t, ok, "remove is always terminal")
			assert.Equal(t, tc.wantTexts, f.sender.texts())
			f.backend.AssertExpectations(t)
		})
	}
}

func TestEngineRemoveIgnoresNonText(t *testing.T) {
	f := newEngineFixture(t)
	f.seed(t, StateRemove, nil)

	ev := Event{ChatID: testChatID, Kind: KindOther}
	require.NoError(t, f.engine.HandleEvent(context.Background(), ev))

	_, ok := f.state(t)
	assert.False(t, ok, "remove is always terminal")
	assert.Empty(t, f.sender.texts(), "a stray sticker gets no reply")
}

func TestEngineMenuActionsKeepMenuAlive(t *testing.T) {
	f := newEngineFixture(t)
	f.seed(t, StateMainMenu, nil)
	f.backend.On("NotificationStatus", mock.Anything, testChatID).Return(false, true, nil).Once()
	f.backend.On("SetNotification", mock.Anything, testChatID, true).Return(true, nil).Once()

	require.NoError(t, f.engine.HandleEvent(context.Background(), textEvent(MenuToggleNotifications.Caption())))

	state, ok := f.state(t)
	require.True(t, ok, "menu actions must not end the session")
	assert.Equal(t, StateMainMenu, state)

	// The follow-up message is still a menu choice, not a fresh greeting.
	require.NoError(t, f.engine.HandleEvent(context.Background(), textEvent(MenuSearch.Caption())))

	state, ok = f.state(t)
	require.True(t, ok)
	assert.Equal(t, StateSearch, state)
	assert.Equal(t, []string{textNotificationsOn, textAskSearchMode}, f.sender.texts())
	f.backend.AssertExpectations(t)
}

func TestEngineUnknownStateTerminates(t *testing.T) {
	f := newEngineFixture(t)
	f.seed(t, State("garbage"), nil)

	require.NoError(t, f.engine.HandleEvent(context.Background(), textEvent("Hi")))

	_, ok := f.state(t)
	assert.False(t, ok)
	assert.Empty(t, f.sender.messages)
}

func TestEngineStatesStayInDefinedSet(t *testing.T) {
	f := newEngineFixture(t)
	f.backend.On("SearchStreets", mock.Anything, mock.Anything, mock.Anything).
		Return([]backend.Street{{ID: 1, Name: "Kaiserstraße"}}, nil).Maybe()
	f.backend.On("StreetID", mock.Anything, mock.Anything).Return(int64(1), true, nil).Maybe()
	f.geocoder.loc = &geocode.Location{Street: "Kaiserstraße", HouseNumber: "1"}

	events := []Event{
		textEvent("Hi"),
		textEvent(MenuSearch.Caption()),
		locationEvent(49.0, 8.4),
		textEvent(LocationAllFalse.Caption()),
		textEvent("Kaiser"),
		textEvent("Kaiserstraße"),
		textEvent("12"),
	}

	for _, ev := range events {
		require.NoError(t, f.engine.HandleEvent(context.Background(), ev))
		if state, ok := f.state(t); ok {
			assert.True(t, Known(state), "state %q left the defined set", state)
		}
	}
}

func TestMenuCaptionRoundTrip(t *testing.T) {
	for choice := range mainMenuCaptions {
		parsed, ok := ParseMainMenuChoice(choice.Caption())
		require.True(t, ok)
		assert.Equal(t, choice, parsed)
	}
	for choice := range locationCaptions {
		parsed, ok := ParseLocationChoice(choice.Caption())
		require.True(t, ok)
		assert.Equal(t, choice, parsed)
	}

	_, ok := ParseMainMenuChoice("straße auswählen/ändern")
	assert.False(t, ok, "caption match is case sensitive")
}

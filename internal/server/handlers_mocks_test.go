package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/require"

	"github.com/colin-cd72/cards/internal/config"
	"github.com/colin-cd72/cards/internal/domain"
	"github.com/colin-cd72/cards/internal/live"
)

// --- Mock repositories ---

type mockUserRepo struct {
	getByIDFn         func(ctx context.Context, id int64) (*domain.User, error)
	getByUsernameFn   func(ctx context.Context, username string) (*domain.User, error)
	listFn            func(ctx context.Context) ([]domain.User, error)
	createFn          func(ctx context.Context, username, email, passwordHash string, role domain.Role) (int64, error)
	updateFn          func(ctx context.Context, id int64, update domain.UserUpdate) error
	updatePasswordFn  func(ctx context.Context, id int64, passwordHash string) error
	updateLastLoginFn func(ctx context.Context, id int64) error
	deleteFn          func(ctx context.Context, id int64) error
}

func (m *mockUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrUserNotFound
}

func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	if m.getByUsernameFn != nil {
		return m.getByUsernameFn(ctx, username)
	}
	return nil, domain.ErrUserNotFound
}

func (m *mockUserRepo) List(ctx context.Context) ([]domain.User, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockUserRepo) Create(ctx context.Context, username, email, passwordHash string, role domain.Role) (int64, error) {
	if m.createFn != nil {
		return m.createFn(ctx, username, email, passwordHash, role)
	}
	return 1, nil
}

func (m *mockUserRepo) Update(ctx context.Context, id int64, update domain.UserUpdate) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, update)
	}
	return nil
}

func (m *mockUserRepo) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	if m.updatePasswordFn != nil {
		return m.updatePasswordFn(ctx, id, passwordHash)
	}
	return nil
}

func (m *mockUserRepo) UpdateLastLogin(ctx context.Context, id int64) error {
	if m.updateLastLoginFn != nil {
		return m.updateLastLoginFn(ctx, id)
	}
	return nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

type mockCardRepo struct {
	createFn        func(ctx context.Context, userID int64, draft domain.CardDraft) (int64, error)
	getByIDFn       func(ctx context.Context, id int64) (*domain.Card, error)
	historyFn       func(ctx context.Context, limit, offset int) ([]domain.Card, error)
	historyByUserFn func(ctx context.Context, userID int64, limit, offset int) ([]domain.Card, error)
}

func (m *mockCardRepo) Create(ctx context.Context, userID int64, draft domain.CardDraft) (int64, error) {
	if m.createFn != nil {
		return m.createFn(ctx, userID, draft)
	}
	return 1, nil
}

func (m *mockCardRepo) GetByID(ctx context.Context, id int64) (*domain.Card, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrCardNotFound
}

func (m *mockCardRepo) History(ctx context.Context, limit, offset int) ([]domain.Card, error) {
	if m.historyFn != nil {
		return m.historyFn(ctx, limit, offset)
	}
	return nil, nil
}

func (m *mockCardRepo) HistoryByUser(ctx context.Context, userID int64, limit, offset int) ([]domain.Card, error) {
	if m.historyByUserFn != nil {
		return m.historyByUserFn(ctx, userID, limit, offset)
	}
	return nil, nil
}

func (m *mockCardRepo) Latest(ctx context.Context) (*domain.Card, error) {
	return nil, domain.ErrCardNotFound
}

type mockPresetRepo struct {
	listForUserFn func(ctx context.Context, userID int64) ([]domain.Preset, error)
	getByIDFn     func(ctx context.Context, id int64) (*domain.Preset, error)
	searchFn      func(ctx context.Context, userID int64, query string) ([]domain.Preset, error)
	createFn      func(ctx context.Context, userID int64, draft domain.PresetDraft) (int64, error)
	updateFn      func(ctx context.Context, id int64, draft domain.PresetDraft) error
	deleteFn      func(ctx context.Context, id int64) error
}

func (m *mockPresetRepo) ListForUser(ctx context.Context, userID int64) ([]domain.Preset, error) {
	if m.listForUserFn != nil {
		return m.listForUserFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockPresetRepo) GetByID(ctx context.Context, id int64) (*domain.Preset, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, domain.ErrPresetNotFound
}

func (m *mockPresetRepo) Search(ctx context.Context, userID int64, query string) ([]domain.Preset, error) {
	if m.searchFn != nil {
		return m.searchFn(ctx, userID, query)
	}
	return nil, nil
}

func (m *mockPresetRepo) Create(ctx context.Context, userID int64, draft domain.PresetDraft) (int64, error) {
	if m.createFn != nil {
		return m.createFn(ctx, userID, draft)
	}
	return 1, nil
}

func (m *mockPresetRepo) Update(ctx context.Context, id int64, draft domain.PresetDraft) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, id, draft)
	}
	return nil
}

func (m *mockPresetRepo) Delete(ctx context.Context, id int64) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

type mockSettingsRepo struct {
	listFn   func(ctx context.Context) ([]domain.Setting, error)
	getFn    func(ctx context.Context, key string) (*domain.Setting, error)
	upsertFn func(ctx context.Context, key string, value json.RawMessage) error
}

func (m *mockSettingsRepo) List(ctx context.Context) ([]domain.Setting, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockSettingsRepo) Get(ctx context.Context, key string) (*domain.Setting, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return nil, domain.ErrSettingNotFound
}

func (m *mockSettingsRepo) Upsert(ctx context.Context, key string, value json.RawMessage) error {
	if m.upsertFn != nil {
		return m.upsertFn(ctx, key, value)
	}
	return nil
}

// --- Live fakes ---

type settingsBroadcast struct {
	key   string
	value json.RawMessage
}

type fakeCoordinator struct {
	mu        sync.Mutex
	connected []uuid.UUID
	settings  []settingsBroadcast
	counts    live.Counts
}

func (f *fakeCoordinator) Connect(id uuid.UUID, sub live.Subscriber) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.connected = append(f.connected, id)
	return nil
}

func (f *fakeCoordinator) JoinDisplay(id uuid.UUID)  {}
func (f *fakeCoordinator) JoinProducer(id uuid.UUID) {}
func (f *fakeCoordinator) Leave(id uuid.UUID)        {}
func (f *fakeCoordinator) Disconnect(id uuid.UUID)   {}

func (f *fakeCoordinator) BroadcastSettings(key string, value json.RawMessage) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settings = append(f.settings, settingsBroadcast{key: key, value: value})
}

func (f *fakeCoordinator) Counts() live.Counts {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts
}

func (f *fakeCoordinator) settingsBroadcasts() []settingsBroadcast {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]settingsBroadcast(nil), f.settings...)
}

type fakeCardSender struct {
	mu      sync.Mutex
	sendErr error
	drafts  []domain.CardDraft
	cleared int
}

func (f *fakeCardSender) Send(ctx context.Context, userID int64, draft domain.CardDraft) (*live.SendConfirmation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	f.drafts = append(f.drafts, draft)
	return &live.SendConfirmation{CardID: 42, SentAt: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)}, nil
}

func (f *fakeCardSender) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared++
}

func (f *fakeCardSender) sentDrafts() []domain.CardDraft {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.CardDraft(nil), f.drafts...)
}

// --- Test helpers ---

func testUser(id int64, role domain.Role) *domain.User {
	return &domain.User{
		ID:       id,
		Username: "alice",
		Email:    "alice@example.com",
		Role:     role,
		IsActive: true,
	}
}

func newTestServer(t *testing.T, deps Deps) *Server {
	t.Helper()

	cfg := &config.Config{
		AppEnv:         "test",
		Port:           "0",
		SessionSecret:  "test-secret-key-32-bytes-long!!!",
		MaxConnections: 10,
	}

	if deps.Users == nil {
		deps.Users = &mockUserRepo{}
	}
	if deps.Cards == nil {
		deps.Cards = &mockCardRepo{}
	}
	if deps.Presets == nil {
		deps.Presets = &mockPresetRepo{}
	}
	if deps.Settings == nil {
		deps.Settings = &mockSettingsRepo{}
	}
	if deps.CardService == nil {
		deps.CardService = &fakeCardSender{}
	}
	if deps.Coordinator == nil {
		deps.Coordinator = &fakeCoordinator{}
	}
	if deps.Store == nil {
		deps.Store = live.NewCardStore()
	}
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}

	return NewServer(cfg, deps)
}

// authCookie fabricates a session cookie for the given user ID, so handler
// tests do not have to go through the login endpoint.
func authCookie(t *testing.T, srv *Server, userID int64) *http.Cookie {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	session, err := srv.sessionStore.Get(req, sessionName)
	require.NoError(t, err)
	session.Values[sessionKeyUserID] = userID
	require.NoError(t, session.Save(req, rec))

	cookies := rec.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies[0]
}

func doRequest(srv *Server, method, target string, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	srv.echo.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

// activeUserRepo returns a repo whose GetByID resolves the given users,
// keyed by ID. Used to back requireAuth in handler tests.
func activeUserRepo(users ...*domain.User) *mockUserRepo {
	byID := make(map[int64]*domain.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}
	return &mockUserRepo{
		getByIDFn: func(_ context.Context, id int64) (*domain.User, error) {
			if u, ok := byID[id]; ok {
				return u, nil
			}
			return nil, domain.ErrUserNotFound
		},
	}
}

var errDatabase = errors.New("connection refused")

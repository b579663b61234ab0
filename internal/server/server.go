package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"
	"github.com/labstack/echo/v4"

	"github.com/colin-cd72/cards/internal/config"
	"github.com/colin-cd72/cards/internal/domain"
	"github.com/colin-cd72/cards/internal/live"
)

// Session keys
const (
	sessionName      = "cards-session"
	sessionKeyUserID = "user_id"
	sessionMaxAge    = 7 * 24 * time.Hour
)

// liveCoordinator is the slice of the presence coordinator the HTTP layer
// drives: attaching WebSocket connections, relaying their join/leave events,
// and pushing settings updates.
type liveCoordinator interface {
	Connect(id uuid.UUID, sub live.Subscriber) error
	JoinDisplay(id uuid.UUID)
	JoinProducer(id uuid.UUID)
	Leave(id uuid.UUID)
	Disconnect(id uuid.UUID)
	BroadcastSettings(key string, value json.RawMessage)
	Counts() live.Counts
}

// cardSender orchestrates card send/clear against persistence and the live
// channel.
type cardSender interface {
	Send(ctx context.Context, userID int64, draft domain.CardDraft) (*live.SendConfirmation, error)
	Clear()
}

type Server struct {
	echo   *echo.Echo
	config *config.Config

	users    domain.UserRepository
	cards    domain.CardRepository
	presets  domain.PresetRepository
	settings domain.SettingsRepository

	cardService cardSender
	coordinator liveCoordinator
	store       *live.CardStore

	sessionStore *sessions.CookieStore
	clock        clockwork.Clock
	upgrader     websocket.Upgrader
	healthChecks []HealthCheck
	startTime    time.Time
}

type Deps struct {
	Users    domain.UserRepository
	Cards    domain.CardRepository
	Presets  domain.PresetRepository
	Settings domain.SettingsRepository

	CardService cardSender
	Coordinator liveCoordinator
	Store       *live.CardStore

	Clock        clockwork.Clock
	HealthChecks []HealthCheck
}

func NewServer(cfg *config.Config, deps Deps) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:         e,
		config:       cfg,
		users:        deps.Users,
		cards:        deps.Cards,
		presets:      deps.Presets,
		settings:     deps.Settings,
		cardService:  deps.CardService,
		coordinator:  deps.Coordinator,
		store:        deps.Store,
		sessionStore: setupSessionStore(cfg),
		clock:        deps.Clock,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// Output displays run as browser sources on machines we do not
			// control, so any origin may connect.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		healthChecks: deps.HealthChecks,
		startTime:    deps.Clock.Now(),
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	if err := s.echo.Start(":" + s.config.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

func setupSessionStore(cfg *config.Config) *sessions.CookieStore {
	store := sessions.NewCookieStore([]byte(cfg.SessionSecret))
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(sessionMaxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.AppEnv == "production",
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/colin-cd72/cards/internal/domain"
	apperrors "github.com/colin-cd72/cards/internal/errors"
	"github.com/colin-cd72/cards/internal/sanitize"
)

const (
	maxHeaderTextLength  = 255
	maxBadgeNumberLength = 10
	defaultHistoryLimit  = 50
	maxHistoryLimit      = 200
)

type sendCardRequest struct {
	HeaderText  string          `json:"header_text"`
	BodyContent json.RawMessage `json:"body_content"`
	BodyHTML    string          `json:"body_html"`
	BadgeNumber string          `json:"badge_number"`
	HideHeader  bool            `json:"hide_header"`
	PresetID    *int64          `json:"preset_id"`
}

func (r *sendCardRequest) validate() error {
	if strings.TrimSpace(r.HeaderText) == "" {
		return apperrors.ValidationError("header_text is required")
	}
	if len(r.HeaderText) > maxHeaderTextLength {
		return apperrors.ValidationError(fmt.Sprintf("header_text exceeds %d characters", maxHeaderTextLength))
	}
	if strings.TrimSpace(r.BodyHTML) == "" {
		return apperrors.ValidationError("body_html is required")
	}
	if len(r.BadgeNumber) > maxBadgeNumberLength {
		return apperrors.ValidationError(fmt.Sprintf("badge_number exceeds %d characters", maxBadgeNumberLength))
	}
	if r.PresetID != nil && *r.PresetID <= 0 {
		return apperrors.ValidationError("preset_id must be positive")
	}
	return nil
}

type cardResponse struct {
	ID          int64           `json:"id"`
	HeaderText  string          `json:"headerText"`
	BodyContent json.RawMessage `json:"bodyContent,omitempty"`
	BodyHTML    string          `json:"bodyHtml"`
	BadgeNumber string          `json:"badgeNumber"`
	HideHeader  bool            `json:"hideHeader"`
	PresetID    *int64          `json:"presetId,omitempty"`
	SentAt      time.Time       `json:"sentAt"`
	SentBy      string          `json:"sentBy"`
}

func toCardResponse(card domain.Card) cardResponse {
	return cardResponse{
		ID:          card.ID,
		HeaderText:  card.HeaderText,
		BodyContent: card.BodyContent,
		BodyHTML:    card.BodyHTML,
		BadgeNumber: card.BadgeNumber,
		HideHeader:  card.HideHeader,
		PresetID:    card.PresetID,
		SentAt:      card.SentAt,
		SentBy:      card.SentBy,
	}
}

func (s *Server) handleSendCard(c echo.Context) error {
	user := currentUser(c)

	var req sendCardRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if err := req.validate(); err != nil {
		return err
	}

	draft := domain.CardDraft{
		HeaderText:  req.HeaderText,
		BodyContent: req.BodyContent,
		BodyHTML:    sanitize.BodyHTML(req.BodyHTML),
		BadgeNumber: req.BadgeNumber,
		HideHeader:  req.HideHeader,
		PresetID:    req.PresetID,
	}

	confirmation, err := s.cardService.Send(c.Request().Context(), user.ID, draft)
	if err != nil {
		return apperrors.InternalError("failed to send card", err).WithField("user_id", user.ID)
	}

	response := map[string]any{
		"success": true,
		"cardId":  confirmation.CardID,
		"sentAt":  confirmation.SentAt,
	}
	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleClearCard(c echo.Context) error {
	s.cardService.Clear()

	if err := c.JSON(http.StatusOK, map[string]bool{"success": true}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

// handleCurrentCard is public: output displays poll it as a fallback when
// their WebSocket is down. The card field is null when nothing is on air.
func (s *Server) handleCurrentCard(c echo.Context) error {
	response := map[string]any{"card": nil}
	if card, ok := s.store.Current(); ok {
		response["card"] = card
	}

	if err := c.JSON(http.StatusOK, response); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func (s *Server) handleCardHistory(c echo.Context) error {
	user := currentUser(c)
	ctx := c.Request().Context()

	limit := queryInt(c, "limit", defaultHistoryLimit)
	if limit <= 0 || limit > maxHistoryLimit {
		limit = defaultHistoryLimit
	}
	offset := queryInt(c, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	var (
		cards []domain.Card
		err   error
	)
	if c.QueryParam("mine") == "true" {
		cards, err = s.cards.HistoryByUser(ctx, user.ID, limit, offset)
	} else {
		cards, err = s.cards.History(ctx, limit, offset)
	}
	if err != nil {
		return apperrors.InternalError("failed to load card history", err)
	}

	responses := make([]cardResponse, 0, len(cards))
	for _, card := range cards {
		responses = append(responses, toCardResponse(card))
	}

	if err := c.JSON(http.StatusOK, map[string]any{"cards": responses}); err != nil {
		return fmt.Errorf("failed to send JSON response: %w", err)
	}
	return nil
}

func queryInt(c echo.Context, name string, defaultValue int) int {
	value := c.QueryParam(name)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

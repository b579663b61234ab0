package server

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colin-cd72/cards/internal/domain"
)

func presetOwnedBy(userID int64) *domain.Preset {
	return &domain.Preset{
		ID:           3,
		UserID:       userID,
		PresetNumber: 12,
		Subject:      "halftime",
		HeaderText:   "HALFTIME",
		BodyHTML:     "<p>scores</p>",
	}
}

func TestListPresets(t *testing.T) {
	var listedFor int64
	presets := &mockPresetRepo{
		listForUserFn: func(_ context.Context, userID int64) ([]domain.Preset, error) {
			listedFor = userID
			return []domain.Preset{*presetOwnedBy(7)}, nil
		},
	}
	srv := newTestServer(t, Deps{
		Users:   activeUserRepo(testUser(7, domain.RoleProducer)),
		Presets: presets,
	})

	rec := doRequest(srv, http.MethodGet, "/api/presets", "", authCookie(t, srv, 7))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(7), listedFor)
}

func TestSearchPresets_RequiresQuery(t *testing.T) {
	srv := newTestServer(t, Deps{Users: activeUserRepo(testUser(7, domain.RoleProducer))})

	rec := doRequest(srv, http.MethodGet, "/api/presets/search", "", authCookie(t, srv, 7))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchPresets(t *testing.T) {
	var gotQuery string
	presets := &mockPresetRepo{
		searchFn: func(_ context.Context, userID int64, query string) ([]domain.Preset, error) {
			gotQuery = query
			return nil, nil
		},
	}
	srv := newTestServer(t, Deps{
		Users:   activeUserRepo(testUser(7, domain.RoleProducer)),
		Presets: presets,
	})

	rec := doRequest(srv, http.MethodGet, "/api/presets/search?q=halftime", "", authCookie(t, srv, 7))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "halftime", gotQuery)
}

func TestGetPreset_PrivateHiddenFromOthers(t *testing.T) {
	presets := &mockPresetRepo{
		getByIDFn: func(context.Context, int64) (*domain.Preset, error) {
			return presetOwnedBy(99), nil
		},
	}
	srv := newTestServer(t, Deps{
		Users:   activeUserRepo(testUser(7, domain.RoleProducer)),
		Presets: presets,
	})

	rec := doRequest(srv, http.MethodGet, "/api/presets/3", "", authCookie(t, srv, 7))

	// Responds as not-found, not forbidden, so preset IDs cannot be probed.
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetPreset_GlobalVisibleToEveryone(t *testing.T) {
	global := presetOwnedBy(99)
	global.IsGlobal = true
	presets := &mockPresetRepo{
		getByIDFn: func(context.Context, int64) (*domain.Preset, error) { return global, nil },
	}
	srv := newTestServer(t, Deps{
		Users:   activeUserRepo(testUser(7, domain.RoleViewer)),
		Presets: presets,
	})

	rec := doRequest(srv, http.MethodGet, "/api/presets/3", "", authCookie(t, srv, 7))

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCreatePreset_Success(t *testing.T) {
	var created domain.PresetDraft
	presets := &mockPresetRepo{
		createFn: func(_ context.Context, userID int64, draft domain.PresetDraft) (int64, error) {
			created = draft
			return 3, nil
		},
	}
	srv := newTestServer(t, Deps{
		Users:   activeUserRepo(testUser(7, domain.RoleProducer)),
		Presets: presets,
	})

	payload := `{"preset_number":12,"subject":"halftime","header_text":"HALFTIME","body_html":"<p>x</p><script>bad()</script>"}`
	rec := doRequest(srv, http.MethodPost, "/api/presets", payload, authCookie(t, srv, 7))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "halftime", created.Subject)
	assert.NotContains(t, created.BodyHTML, "script")
}

func TestCreatePreset_GlobalRequiresAdmin(t *testing.T) {
	srv := newTestServer(t, Deps{Users: activeUserRepo(testUser(7, domain.RoleProducer))})

	payload := `{"preset_number":12,"subject":"halftime","is_global":true}`
	rec := doRequest(srv, http.MethodPost, "/api/presets", payload, authCookie(t, srv, 7))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUpdatePreset_OtherOwnerForbidden(t *testing.T) {
	presets := &mockPresetRepo{
		getByIDFn: func(context.Context, int64) (*domain.Preset, error) {
			return presetOwnedBy(99), nil
		},
	}
	srv := newTestServer(t, Deps{
		Users:   activeUserRepo(testUser(7, domain.RoleProducer)),
		Presets: presets,
	})

	payload := `{"preset_number":12,"subject":"halftime"}`
	rec := doRequest(srv, http.MethodPut, "/api/presets/3", payload, authCookie(t, srv, 7))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestUpdatePreset_AdminMayEditAnything(t *testing.T) {
	updatedCalled := false
	global := presetOwnedBy(99)
	global.IsGlobal = true
	presets := &mockPresetRepo{
		getByIDFn: func(context.Context, int64) (*domain.Preset, error) { return global, nil },
		updateFn: func(context.Context, int64, domain.PresetDraft) error {
			updatedCalled = true
			return nil
		},
	}
	srv := newTestServer(t, Deps{
		Users:   activeUserRepo(testUser(7, domain.RoleAdmin)),
		Presets: presets,
	})

	payload := `{"preset_number":12,"subject":"halftime","is_global":true}`
	rec := doRequest(srv, http.MethodPut, "/api/presets/3", payload, authCookie(t, srv, 7))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, updatedCalled)
}

func TestDeletePreset_OwnerSucceeds(t *testing.T) {
	var deletedID int64
	presets := &mockPresetRepo{
		getByIDFn: func(context.Context, int64) (*domain.Preset, error) {
			return presetOwnedBy(7), nil
		},
		deleteFn: func(_ context.Context, id int64) error {
			deletedID = id
			return nil
		},
	}
	srv := newTestServer(t, Deps{
		Users:   activeUserRepo(testUser(7, domain.RoleProducer)),
		Presets: presets,
	})

	rec := doRequest(srv, http.MethodDelete, "/api/presets/3", "", authCookie(t, srv, 7))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(3), deletedID)
}

func TestDeletePreset_NotFound(t *testing.T) {
	srv := newTestServer(t, Deps{Users: activeUserRepo(testUser(7, domain.RoleProducer))})

	rec := doRequest(srv, http.MethodDelete, "/api/presets/3", "", authCookie(t, srv, 7))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPreset_InvalidID(t *testing.T) {
	srv := newTestServer(t, Deps{Users: activeUserRepo(testUser(7, domain.RoleProducer))})

	rec := doRequest(srv, http.MethodGet, "/api/presets/banana", "", authCookie(t, srv, 7))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// Package server implements the HTTP server using Echo framework.
//
// Routes: auth (session login), cards (send/clear/current/history), presets,
// users (admin), settings, /ws (live connections), health, metrics.
// Handlers split by domain: handlers_auth.go, handlers_cards.go,
// handlers_presets.go, handlers_users.go, handlers_settings.go,
// handlers_ws.go.
package server

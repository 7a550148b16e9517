// Package app exposes the character-sheet service over HTTP and websocket.
package app

import (
	"context"
	"net/http"

	"github.com/louisbranch/dungeonsheet/internal/services/sheet/push"
	"github.com/louisbranch/dungeonsheet/internal/sheet/dice"
	"github.com/louisbranch/dungeonsheet/internal/sheet/domain"
)

// SheetService is the mutation-engine surface the handlers depend on.
type SheetService interface {
	GetCharacter(ctx context.Context, characterID string) (domain.Character, error)
	RollSkill(ctx context.Context, characterID, skillName string) (dice.Check, error)
	AdjustHP(ctx context.Context, characterID string, amount int) (domain.HitPoints, error)
	AdjustGold(ctx context.Context, characterID string, amount int) (int, error)
	LevelUp(ctx context.Context, characterID string) (int, error)
	AddItem(ctx context.Context, characterID string, item domain.Item) ([]domain.Item, error)
	UseItem(ctx context.Context, characterID string, index int) ([]domain.Item, error)
}

// Server wires the sheet routes: read and mutation endpoints plus the
// per-character websocket push channel.
type Server struct {
	service SheetService
	hub     *push.Hub
	auth    *GMAuthorizer
}

// NewServer creates the sheet server. A nil authorizer leaves the privileged
// mutation routes unavailable rather than open.
func NewServer(service SheetService, hub *push.Hub, auth *GMAuthorizer) *Server {
	return &Server{service: service, hub: hub, auth: auth}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /up", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	mux.HandleFunc("GET /character/{characterID}", s.handleGetCharacter)
	mux.HandleFunc("POST /character/{characterID}/roll", s.handleRollSkill)
	mux.HandleFunc("POST /character/{characterID}/use-item", s.handleUseItem)

	mux.HandleFunc("POST /character/{characterID}/adjust-hp", s.requireGM(s.handleAdjustHP))
	mux.HandleFunc("POST /character/{characterID}/adjust-gold", s.requireGM(s.handleAdjustGold))
	mux.HandleFunc("POST /character/{characterID}/level-up", s.requireGM(s.handleLevelUp))
	mux.HandleFunc("POST /character/{characterID}/add-item", s.requireGM(s.handleAddItem))

	mux.Handle("GET /ws/{characterID}", s.observerHandler())

	return mux
}

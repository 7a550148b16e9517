package app

import (
	"encoding/json"
	stderrors "errors"
	"log"
	"net/http"
	"strings"

	apperrors "github.com/louisbranch/dungeonsheet/internal/platform/errors"
	"github.com/louisbranch/dungeonsheet/internal/sheet/domain"
	"github.com/louisbranch/dungeonsheet/internal/sheet/event"
)

type rollRequest struct {
	SkillName string `json:"skill_name"`
}

type amountRequest struct {
	Amount *int `json:"amount"`
}

type addItemRequest struct {
	Name  string         `json:"name"`
	Type  string         `json:"type"`
	Count int            `json:"count"`
	Stats map[string]int `json:"stats"`
}

type useItemRequest struct {
	Index *int `json:"index"`
}

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (s *Server) handleGetCharacter(w http.ResponseWriter, r *http.Request) {
	character, err := s.service.GetCharacter(r.Context(), r.PathValue("characterID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, character)
}

func (s *Server) handleRollSkill(w http.ResponseWriter, r *http.Request) {
	var body rollRequest
	if !decodeBody(w, r, &body) {
		return
	}

	check, err := s.service.RollSkill(r.Context(), r.PathValue("characterID"), body.SkillName)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, event.RollPayload{
		Skill: check.Skill,
		D20:   check.Die,
		Mod:   check.Modifier,
		Total: check.Total,
		Crit:  check.Critical(),
	})
}

func (s *Server) handleAdjustHP(w http.ResponseWriter, r *http.Request) {
	amount, ok := decodeAmount(w, r)
	if !ok {
		return
	}

	hp, err := s.service.AdjustHP(r.Context(), r.PathValue("characterID"), amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]domain.HitPoints{"hp": hp})
}

func (s *Server) handleAdjustGold(w http.ResponseWriter, r *http.Request) {
	amount, ok := decodeAmount(w, r)
	if !ok {
		return
	}

	gold, err := s.service.AdjustGold(r.Context(), r.PathValue("characterID"), amount)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"gold": gold})
}

func (s *Server) handleLevelUp(w http.ResponseWriter, r *http.Request) {
	level, err := s.service.LevelUp(r.Context(), r.PathValue("characterID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"level": level})
}

func (s *Server) handleAddItem(w http.ResponseWriter, r *http.Request) {
	var body addItemRequest
	if !decodeBody(w, r, &body) {
		return
	}

	inventory, err := s.service.AddItem(r.Context(), r.PathValue("characterID"), domain.Item{
		Name:  body.Name,
		Type:  body.Type,
		Count: body.Count,
		Stats: body.Stats,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]domain.Item{"inventory": inventory})
}

func (s *Server) handleUseItem(w http.ResponseWriter, r *http.Request) {
	var body useItemRequest
	if !decodeBody(w, r, &body) {
		return
	}
	if body.Index == nil {
		writeError(w, apperrors.New(apperrors.CodeItemInvalidIndex, "item index is required"))
		return
	}

	inventory, err := s.service.UseItem(r.Context(), r.PathValue("characterID"), *body.Index)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]domain.Item{"inventory": inventory})
}

// requireGM rejects the request before any record access unless it carries
// a valid gm credential.
func (s *Server) requireGM(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.auth == nil {
			writeJSON(w, http.StatusServiceUnavailable, errorEnvelope{Error: errorBody{
				Code:    string(apperrors.CodeUnauthorized),
				Message: "gm auth is not configured",
			}})
			return
		}
		if err := s.auth.Validate(bearerToken(r)); err != nil {
			log.Printf("sheet: unauthorized %s %s remote=%s err=%v", r.Method, r.URL.Path, r.RemoteAddr, err)
			writeError(w, err)
			return
		}
		next(w, r)
	}
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// decodeAmount reads an {amount} body, rejecting absent or zero deltas.
func decodeAmount(w http.ResponseWriter, r *http.Request) (int, bool) {
	var body amountRequest
	if !decodeBody(w, r, &body) {
		return 0, false
	}
	if body.Amount == nil {
		writeError(w, apperrors.New(apperrors.CodeInvalidAmount, "amount is required"))
		return 0, false
	}
	if *body.Amount == 0 {
		writeError(w, apperrors.New(apperrors.CodeInvalidAmount, "amount must be non-zero"))
		return 0, false
	}
	return *body.Amount, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, apperrors.Wrap(apperrors.CodeInvalidBody, "invalid request body", err))
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, err error) {
	code := apperrors.CodeOf(err)
	message := err.Error()
	var appErr *apperrors.Error
	if stderrors.As(err, &appErr) {
		message = appErr.Message
	}
	if code.HTTPStatus() == http.StatusInternalServerError {
		log.Printf("sheet: internal error: %v", err)
		message = "internal error"
	}
	writeJSON(w, code.HTTPStatus(), errorEnvelope{Error: errorBody{
		Code:    string(code),
		Message: message,
	}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("sheet: failed to encode response: %v", err)
	}
}

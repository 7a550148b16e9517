package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/louisbranch/dungeonsheet/internal/platform/errors"
	"github.com/louisbranch/dungeonsheet/internal/services/sheet/push"
	"github.com/louisbranch/dungeonsheet/internal/sheet/dice"
	"github.com/louisbranch/dungeonsheet/internal/sheet/domain"
)

const testGMSecret = "test-gm-secret"

type fakeSheetService struct {
	character domain.Character
	check     dice.Check
	hp        domain.HitPoints
	gold      int
	level     int
	inventory []domain.Item
	err       error

	calls []string
}

func (f *fakeSheetService) record(call string) {
	f.calls = append(f.calls, call)
}

func (f *fakeSheetService) GetCharacter(_ context.Context, characterID string) (domain.Character, error) {
	f.record("get:" + characterID)
	return f.character, f.err
}

func (f *fakeSheetService) RollSkill(_ context.Context, characterID, skillName string) (dice.Check, error) {
	f.record("roll:" + characterID + ":" + skillName)
	return f.check, f.err
}

func (f *fakeSheetService) AdjustHP(_ context.Context, characterID string, amount int) (domain.HitPoints, error) {
	f.record("hp:" + characterID)
	return f.hp, f.err
}

func (f *fakeSheetService) AdjustGold(_ context.Context, characterID string, amount int) (int, error) {
	f.record("gold:" + characterID)
	return f.gold, f.err
}

func (f *fakeSheetService) LevelUp(_ context.Context, characterID string) (int, error) {
	f.record("level:" + characterID)
	return f.level, f.err
}

func (f *fakeSheetService) AddItem(_ context.Context, characterID string, item domain.Item) ([]domain.Item, error) {
	f.record("add:" + characterID + ":" + item.Name)
	return f.inventory, f.err
}

func (f *fakeSheetService) UseItem(_ context.Context, characterID string, index int) ([]domain.Item, error) {
	f.record("use:" + characterID)
	return f.inventory, f.err
}

func newTestHandler(t *testing.T, service SheetService) http.Handler {
	t.Helper()
	return NewServer(service, push.NewHub(), NewGMAuthorizer(testGMSecret)).Handler()
}

func doRequest(t *testing.T, handler http.Handler, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func gmToken(t *testing.T) string {
	t.Helper()
	token, err := MintGMToken(testGMSecret, time.Minute, nil)
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func decodeErrorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope errorEnvelope
	if err := json.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("decode error envelope: %v (%s)", err, rec.Body.String())
	}
	return envelope.Error.Code
}

func TestGetCharacterReturnsProjectedRecord(t *testing.T) {
	service := &fakeSheetService{character: domain.Character{ID: "carl_001", Name: "Carl", Level: 5}}
	handler := newTestHandler(t, service)

	rec := doRequest(t, handler, http.MethodGet, "/character/carl_001", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var got domain.Character
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if got.ID != "carl_001" || got.Name != "Carl" || got.Level != 5 {
		t.Fatalf("unexpected body %+v", got)
	}
}

func TestGetCharacterMissingReturns404(t *testing.T) {
	service := &fakeSheetService{err: apperrors.New(apperrors.CodeCharacterNotFound, "character missing")}
	handler := newTestHandler(t, service)

	rec := doRequest(t, handler, http.MethodGet, "/character/nobody", "", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if code := decodeErrorCode(t, rec); code != string(apperrors.CodeCharacterNotFound) {
		t.Fatalf("expected CHARACTER_NOT_FOUND, got %s", code)
	}
}

func TestRollSkillReturnsPayload(t *testing.T) {
	service := &fakeSheetService{check: dice.Check{Skill: "brawling", Die: 12, Modifier: 5, Total: 17}}
	handler := newTestHandler(t, service)

	rec := doRequest(t, handler, http.MethodPost, "/character/carl_001/roll",
		`{"skill_name":"brawling"}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var got struct {
		Skill string `json:"skill"`
		D20   int    `json:"d20"`
		Mod   int    `json:"mod"`
		Total int    `json:"total"`
		Crit  bool   `json:"crit"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if got.Skill != "brawling" || got.D20 != 12 || got.Mod != 5 || got.Total != 17 || got.Crit {
		t.Fatalf("unexpected payload %+v", got)
	}
}

func TestRollSkillRejectsMalformedBody(t *testing.T) {
	service := &fakeSheetService{}
	handler := newTestHandler(t, service)

	rec := doRequest(t, handler, http.MethodPost, "/character/carl_001/roll", `{not json`, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if code := decodeErrorCode(t, rec); code != string(apperrors.CodeInvalidBody) {
		t.Fatalf("expected INVALID_BODY, got %s", code)
	}
	if len(service.calls) != 0 {
		t.Fatal("malformed body must not reach the service")
	}
}

func TestPrivilegedRoutesRequireGMToken(t *testing.T) {
	routes := []struct {
		path string
		body string
	}{
		{"/character/carl_001/adjust-hp", `{"amount":5}`},
		{"/character/carl_001/adjust-gold", `{"amount":5}`},
		{"/character/carl_001/level-up", ""},
		{"/character/carl_001/add-item", `{"name":"Rope","count":1}`},
	}
	for _, route := range routes {
		t.Run(route.path, func(t *testing.T) {
			service := &fakeSheetService{}
			handler := newTestHandler(t, service)

			rec := doRequest(t, handler, http.MethodPost, route.path, route.body, "")
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
			if len(service.calls) != 0 {
				t.Fatal("unauthorized request must not reach the service")
			}
		})
	}
}

func TestAdjustHPWithValidToken(t *testing.T) {
	service := &fakeSheetService{hp: domain.HitPoints{Current: 45, Max: 40}}
	handler := newTestHandler(t, service)

	rec := doRequest(t, handler, http.MethodPost, "/character/carl_001/adjust-hp",
		`{"amount":5}`, gmToken(t))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var got map[string]domain.HitPoints
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if got["hp"].Current != 45 {
		t.Fatalf("unexpected hp %+v", got)
	}
}

func TestAdjustGoldRejectsZeroAmount(t *testing.T) {
	service := &fakeSheetService{}
	handler := newTestHandler(t, service)

	rec := doRequest(t, handler, http.MethodPost, "/character/carl_001/adjust-gold",
		`{"amount":0}`, gmToken(t))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if code := decodeErrorCode(t, rec); code != string(apperrors.CodeInvalidAmount) {
		t.Fatalf("expected INVALID_AMOUNT, got %s", code)
	}
	if len(service.calls) != 0 {
		t.Fatal("zero amount must not reach the service")
	}
}

func TestAdjustGoldRejectsMissingAmount(t *testing.T) {
	service := &fakeSheetService{}
	handler := newTestHandler(t, service)

	rec := doRequest(t, handler, http.MethodPost, "/character/carl_001/adjust-gold",
		`{}`, gmToken(t))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestLevelUpWithValidToken(t *testing.T) {
	service := &fakeSheetService{level: 6}
	handler := newTestHandler(t, service)

	rec := doRequest(t, handler, http.MethodPost, "/character/carl_001/level-up", "", gmToken(t))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var got map[string]int
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if got["level"] != 6 {
		t.Fatalf("expected level 6, got %+v", got)
	}
}

func TestUseItemNeedsNoToken(t *testing.T) {
	service := &fakeSheetService{inventory: []domain.Item{}}
	handler := newTestHandler(t, service)

	rec := doRequest(t, handler, http.MethodPost, "/character/carl_001/use-item",
		`{"index":0}`, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(service.calls) != 1 || service.calls[0] != "use:carl_001" {
		t.Fatalf("unexpected calls %v", service.calls)
	}
}

func TestUseItemRejectsMissingIndex(t *testing.T) {
	service := &fakeSheetService{}
	handler := newTestHandler(t, service)

	rec := doRequest(t, handler, http.MethodPost, "/character/carl_001/use-item", `{}`, "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if code := decodeErrorCode(t, rec); code != string(apperrors.CodeItemInvalidIndex) {
		t.Fatalf("expected ITEM_INVALID_INDEX, got %s", code)
	}
}

func TestAddItemWithValidToken(t *testing.T) {
	service := &fakeSheetService{inventory: []domain.Item{{Name: "Rope", Type: "General", Count: 1}}}
	handler := newTestHandler(t, service)

	rec := doRequest(t, handler, http.MethodPost, "/character/carl_001/add-item",
		`{"name":"Rope","count":1}`, gmToken(t))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if len(service.calls) != 1 || service.calls[0] != "add:carl_001:Rope" {
		t.Fatalf("unexpected calls %v", service.calls)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	handler := newTestHandler(t, &fakeSheetService{})

	rec := doRequest(t, handler, http.MethodGet, "/character/carl_001/roll", "", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", rec.Code)
	}
}

func TestUpRoute(t *testing.T) {
	handler := newTestHandler(t, &fakeSheetService{})

	rec := doRequest(t, handler, http.MethodGet, "/up", "", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
		t.Fatalf("expected OK, got %d %q", rec.Code, rec.Body.String())
	}
}

func TestNilAuthorizerDisablesPrivilegedRoutes(t *testing.T) {
	service := &fakeSheetService{}
	handler := NewServer(service, push.NewHub(), nil).Handler()

	rec := doRequest(t, handler, http.MethodPost, "/character/carl_001/level-up", "", gmToken(t))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if len(service.calls) != 0 {
		t.Fatal("disabled auth must not reach the service")
	}
}

func TestStorageFailureHidesDetail(t *testing.T) {
	service := &fakeSheetService{err: apperrors.New(apperrors.CodeStorageFailure, "disk on fire at /var/db")}
	handler := newTestHandler(t, service)

	rec := doRequest(t, handler, http.MethodGet, "/character/carl_001", "", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "/var/db") {
		t.Fatalf("internal detail leaked: %s", rec.Body.String())
	}
}

func TestValidateRejectsForgedTokens(t *testing.T) {
	auth := NewGMAuthorizer(testGMSecret)

	forged, err := MintGMToken("some-other-secret", time.Minute, nil)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := auth.Validate(forged); apperrors.CodeOf(err) != apperrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestValidateRejectsExpiredTokens(t *testing.T) {
	auth := NewGMAuthorizer(testGMSecret)

	past := func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, err := MintGMToken(testGMSecret, time.Minute, past)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := auth.Validate(expired); apperrors.CodeOf(err) != apperrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestValidateRejectsMissingRole(t *testing.T) {
	auth := NewGMAuthorizer(testGMSecret)

	claims := jwt.RegisteredClaims{
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testGMSecret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if err := auth.Validate(token); apperrors.CodeOf(err) != apperrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestValidateAcceptsMintedToken(t *testing.T) {
	auth := NewGMAuthorizer(testGMSecret)
	if err := auth.Validate(gmToken(t)); err != nil {
		t.Fatalf("expected valid token, got %v", err)
	}
}

func TestNewGMAuthorizerEmptySecret(t *testing.T) {
	if NewGMAuthorizer("  ") != nil {
		t.Fatal("expected nil authorizer for empty secret")
	}
}

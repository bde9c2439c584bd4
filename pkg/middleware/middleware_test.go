package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"hotel-booking/internal/data/entity"
	"hotel-booking/pkg/utils"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubSessions struct {
	sessions map[uuid.UUID]*entity.Session
}

func (s *stubSessions) Create(_ context.Context, session *entity.Session) error {
	s.sessions[session.ID] = session
	return nil
}

func (s *stubSessions) FindValidSession(_ context.Context, id uuid.UUID) (*entity.Session, error) {
	session := s.sessions[id]
	if !session.Active(time.Now()) {
		return nil, nil
	}
	return session, nil
}

func (s *stubSessions) Revoke(_ context.Context, id uuid.UUID) error {
	now := time.Now()
	s.sessions[id].RevokedAt = &now
	return nil
}

func (s *stubSessions) RevokeAllUserSessions(context.Context, uuid.UUID) error { return nil }
func (s *stubSessions) CleanExpiredSessions(context.Context) (int64, error)    { return 0, nil }

type authFixture struct {
	tokens   *utils.TokenManager
	sessions *stubSessions
	auth     utils.AuthConfig
	handler  http.Handler
}

func newAuthFixture(t *testing.T, guard func(*zap.Logger) func(http.Handler) http.Handler) *authFixture {
	t.Helper()
	f := &authFixture{
		tokens:   utils.NewTokenManager(utils.JWTConfig{Secret: "test-secret", Issuer: "hotel-booking", ExpiryHours: 1}),
		sessions: &stubSessions{sessions: map[uuid.UUID]*entity.Session{}},
		auth:     utils.AuthConfig{ServiceToken: "svc-token", ServiceUserID: uuid.NewString()},
	}

	echo := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, _ := utils.GetUserIDFromContext(r.Context())
		role, _ := utils.GetRoleFromContext(r.Context())
		utils.ResponseSuccess(w, "ok", map[string]string{"user_id": userID.String(), "role": role})
	})

	log := zap.NewNop()
	var h http.Handler = echo
	if guard != nil {
		h = guard(log)(h)
	}
	f.handler = Authenticate(f.tokens, f.sessions, f.auth, log)(h)
	return f
}

func (f *authFixture) login(t *testing.T, role string) (string, uuid.UUID) {
	t.Helper()
	userID, sessionID := uuid.New(), uuid.New()
	f.sessions.sessions[sessionID] = &entity.Session{
		BaseSimple: entity.BaseSimple{ID: sessionID, CreatedAt: time.Now()},
		UserID:     userID,
		ExpiresAt:  time.Now().Add(time.Hour),
	}
	token, _, err := f.tokens.Issue(userID, role, sessionID)
	require.NoError(t, err)
	return token, sessionID
}

func (f *authFixture) do(token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/user/profile", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func TestAuthenticate(t *testing.T) {
	f := newAuthFixture(t, nil)

	token, sessionID := f.login(t, "user")
	assert.Equal(t, http.StatusOK, f.do(token).Code)

	assert.Equal(t, http.StatusUnauthorized, f.do("").Code)
	assert.Equal(t, http.StatusUnauthorized, f.do("not-a-jwt").Code)

	require.NoError(t, f.sessions.Revoke(context.Background(), sessionID))
	assert.Equal(t, http.StatusUnauthorized, f.do(token).Code, "revoked session")
}

func TestAuthenticateRejectsForeignSignature(t *testing.T) {
	f := newAuthFixture(t, nil)
	_, sessionID := f.login(t, "user")

	other := utils.NewTokenManager(utils.JWTConfig{Secret: "other-secret", Issuer: "hotel-booking", ExpiryHours: 1})
	forged, _, err := other.Issue(f.sessions.sessions[sessionID].UserID, "admin", sessionID)
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, f.do(forged).Code)
}

func TestServiceTokenActsAsAdmin(t *testing.T) {
	f := newAuthFixture(t, Admin)

	rec := f.do("svc-token")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), f.auth.ServiceUserID)
	assert.Contains(t, rec.Body.String(), `"role":"admin"`)

	assert.Equal(t, http.StatusUnauthorized, f.do("svc-token-x").Code)
}

func TestRoleGuards(t *testing.T) {
	tests := []struct {
		name  string
		guard func(*zap.Logger) func(http.Handler) http.Handler
		role  string
		want  int
	}{
		{"guest allows user", GuestUser, "user", http.StatusOK},
		{"guest allows admin", GuestUser, "admin", http.StatusOK},
		{"guest rejects manager", GuestUser, "hotel_manager", http.StatusForbidden},
		{"manager allows manager", HotelManager, "hotel_manager", http.StatusOK},
		{"manager rejects user", HotelManager, "user", http.StatusForbidden},
		{"admin rejects user", Admin, "user", http.StatusForbidden},
		{"admin allows admin", Admin, "admin", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newAuthFixture(t, tt.guard)
			token, _ := f.login(t, tt.role)
			assert.Equal(t, tt.want, f.do(token).Code)
		})
	}
}

func TestRecover(t *testing.T) {
	h := Recover(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"status":false,"message":"Internal server error"}`, rec.Body.String())
}

func TestRateLimitMemoryStore(t *testing.T) {
	mw, err := RateLimit("2-M", "login", nil, zap.NewNop())
	require.NoError(t, err)
	h := mw(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	codes := make([]int, 0, 3)
	for range 3 {
		req := httptest.NewRequest(http.MethodPost, "/api/login", nil)
		req.RemoteAddr = "203.0.113.7:4000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusNoContent, http.StatusNoContent, http.StatusTooManyRequests}, codes)

	_, err = RateLimit("lots", "login", nil, zap.NewNop())
	assert.Error(t, err)
}

func TestCORS(t *testing.T) {
	h := CORS([]string{"https://hotel.example"})(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	preflight := httptest.NewRequest(http.MethodOptions, "/api/hotels", nil)
	preflight.Header.Set("Origin", "https://hotel.example")
	preflight.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, preflight)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://hotel.example", rec.Header().Get("Access-Control-Allow-Origin"))

	other := httptest.NewRequest(http.MethodGet, "/api/hotels", nil)
	other.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, other)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

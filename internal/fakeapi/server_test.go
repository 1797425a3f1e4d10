package fakeapi

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/abhisek/lingo/internal/mastery"
)

const (
	testEmail    = "learner@example.com"
	testPassword = "secret-pass"
)

func newTestServer(t *testing.T, opts ...Option) (*Server, *httptest.Server) {
	t.Helper()
	opts = append([]Option{WithBcryptCost(bcrypt.MinCost)}, opts...)
	fake := New(opts...)
	ts := httptest.NewServer(fake.Handler())
	t.Cleanup(ts.Close)
	return fake, ts
}

func call(t *testing.T, ts *httptest.Server, method, path, token string, body any) (int, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, ts.URL+path, &buf)
	require.NoError(t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return resp.StatusCode, out
}

func login(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	status, body := call(t, ts, http.MethodPost, "/api/login", "", map[string]string{
		"email": testEmail, "password": testPassword,
	})
	require.Equal(t, http.StatusOK, status)
	return body["token"].(string)
}

func TestRegisterThenLogin(t *testing.T) {
	_, ts := newTestServer(t)

	status, _ := call(t, ts, http.MethodPost, "/api/register", "", map[string]string{
		"email": testEmail, "password": testPassword,
	})
	require.Equal(t, http.StatusCreated, status)

	status, body := call(t, ts, http.MethodPost, "/api/register", "", map[string]string{
		"email": testEmail, "password": testPassword,
	})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "Email already exists", body["error"])

	assert.NotEmpty(t, login(t, ts))

	status, _ = call(t, ts, http.MethodPost, "/api/login", "", map[string]string{
		"email": testEmail, "password": "wrong-pass",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestAuthRequired(t *testing.T) {
	_, ts := newTestServer(t)

	status, body := call(t, ts, http.MethodGet, "/api/levels", "", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Authorization header required", body["error"])

	status, _ = call(t, ts, http.MethodGet, "/api/levels", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestExpiredToken(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	fake, ts := newTestServer(t, WithClock(func() time.Time { return now }))
	require.NoError(t, fake.AddUser(testEmail, testPassword, false))

	token, err := fake.TokenFor(testEmail, time.Hour)
	require.NoError(t, err)

	now = now.Add(2 * time.Hour)
	status, body := call(t, ts, http.MethodGet, "/api/levels", token, nil)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Token has expired", body["error"])
}

func TestSaveProgressUpdatesStatusAndStats(t *testing.T) {
	fake, ts := newTestServer(t)
	require.NoError(t, fake.AddUser(testEmail, testPassword, false))
	token := login(t, ts)

	status, _ := call(t, ts, http.MethodPost, "/api/progress/save", token, map[string]any{"sentence_id": 1, "is_correct": true})
	require.Equal(t, http.StatusOK, status)
	status, _ = call(t, ts, http.MethodPost, "/api/progress/save", token, map[string]any{"sentence_id": 2, "is_correct": false})
	require.Equal(t, http.StatusOK, status)

	assert.Equal(t, mastery.StatusMastered, fake.StatusOf(testEmail, 1))
	assert.Equal(t, mastery.StatusLearning, fake.StatusOf(testEmail, 2))
	assert.Equal(t, mastery.StatusUnattempted, fake.StatusOf(testEmail, 3))

	status, body := call(t, ts, http.MethodGet, "/api/levels", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.InDelta(t, 50.0, body["accuracy"], 1e-9)
	assert.EqualValues(t, 8, body["total_lessons"])
	assert.EqualValues(t, 24, body["total_stars"])
}

func TestFailSaves(t *testing.T) {
	fake, ts := newTestServer(t)
	require.NoError(t, fake.AddUser(testEmail, testPassword, false))
	token := login(t, ts)

	fake.FailSaves(1)
	status, _ := call(t, ts, http.MethodPost, "/api/progress/save", token, map[string]any{"sentence_id": 1, "is_correct": true})
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, mastery.StatusUnattempted, fake.StatusOf(testEmail, 1))

	status, _ = call(t, ts, http.MethodPost, "/api/progress/save", token, map[string]any{"sentence_id": 1, "is_correct": true})
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, 2, fake.SaveCalls())
}

func TestPremiumGate(t *testing.T) {
	fake, ts := newTestServer(t)
	require.NoError(t, fake.AddUser(testEmail, testPassword, false))
	token := login(t, ts)

	status, _ := call(t, ts, http.MethodGet, "/api/lessons/8/sentences", token, nil)
	assert.Equal(t, http.StatusForbidden, status)

	fake.SetPremium(testEmail, true)
	status, _ = call(t, ts, http.MethodGet, "/api/lessons/8/sentences", token, nil)
	assert.Equal(t, http.StatusOK, status)

	status, _ = call(t, ts, http.MethodGet, "/api/lessons/999/sentences", token, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestExplain(t *testing.T) {
	fake, ts := newTestServer(t)
	require.NoError(t, fake.AddUser(testEmail, testPassword, false))
	token := login(t, ts)

	body := map[string]string{"prompt_ru": "Привет!", "correct_en": "Hello!", "user_answer_en": "Hi"}
	status, out := call(t, ts, http.MethodPost, "/api/ai/explain-error", token, body)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, out["explanation"], "Hello!")

	fake.SetExplainer(nil)
	status, out = call(t, ts, http.MethodPost, "/api/ai/explain-error", token, body)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "AI config error", out["error"])
	assert.Equal(t, 2, fake.ExplainCalls())
}

func TestStudyTime(t *testing.T) {
	base := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	u := &user{progress: map[int]*progress{
		1: {updatedAt: base},
		2: {updatedAt: base.Add(5 * time.Minute)},
		3: {updatedAt: base.Add(2 * time.Hour)},
		4: {updatedAt: base.Add(2*time.Hour + time.Minute)},
	}}
	assert.Equal(t, 6*time.Minute, studyTime(u))
}

package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"interviewai/internal/features"
	"interviewai/internal/repo"
	"interviewai/internal/utils/redis"
	"interviewai/internal/utils/token"
	rabbit "interviewai/pkg/rabbit/pkg"
)

const testOrigin = "http://localhost:5173"

// fakeModel answers question and feedback prompts with valid arrays.
type fakeModel struct {
	err error
}

func (f *fakeModel) Generate(ctx context.Context, prompt string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	var items []string
	for i := 1; i <= 5; i++ {
		if strings.Contains(prompt, "feedback of this interview") {
			items = append(items, fmt.Sprintf(`{"questionno":"Question %d","question":"q%d","answer":"a","rating":"%d","pros":"p","cons":"c","suggestion":"s"}`, i, i, 2*i))
		} else {
			items = append(items, fmt.Sprintf(`{"questionno":"Question %d","question":"q%d?","answer":""}`, i, i))
		}
	}
	return "```json\n[" + strings.Join(items, ",") + "]\n```", nil
}

// fakeGoogle accepts only the credentials it knows.
type fakeGoogle map[string]*token.GoogleIdentity

func (f fakeGoogle) Verify(ctx context.Context, credential string) (*token.GoogleIdentity, error) {
	if id, ok := f[credential]; ok {
		return id, nil
	}
	return nil, token.ErrInvalidToken
}

var testGoogle = fakeGoogle{
	"grace-cred": {Email: "grace@example.com", Name: "Grace Hopper"},
	"ada-cred":   {Email: "ada@example.com", GivenName: "Evil", FamilyName: "Attacker"},
}

func newTestServer(t *testing.T, model *fakeModel) (*gin.Engine, *features.InterviewAI) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := repo.NewMemory()
	svc := features.New(r,
		features.NewRelay(model, zap.NewNop()),
		redis.Dummy(),
		&rabbit.Dummy{},
		token.NewProvider(&token.Config{Secret: "test", TTL: time.Hour}),
		features.Options{SessionIdleTTL: time.Hour, Worker: features.WorkerConfig{Size: 1}, Google: testGoogle},
		zap.NewNop())
	t.Cleanup(svc.Shutdown)
	return NewRouter(New(svc, zap.NewNop()), testOrigin), svc
}

func do(router http.Handler, method, path, body string, cookies []*http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func signUp(t *testing.T, router http.Handler) []*http.Cookie {
	t.Helper()
	w := do(router, http.MethodPost, "/api/auth/signup",
		`{"firstName":"Ada","lastName":"Lovelace","email":"ada@example.com","password":"Passw0rd!","confirmPassword":"Passw0rd!"}`, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return w.Result().Cookies()
}

func TestTestRoute(t *testing.T) {
	router, _ := newTestServer(t, &fakeModel{})
	w := do(router, http.MethodGet, "/test", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Server is working", w.Body.String())
}

func TestGenerateQuestions(t *testing.T) {
	router, _ := newTestServer(t, &fakeModel{})
	w := do(router, http.MethodPost, "/api/generate-questions",
		`{"jobRole":"Dev","experienceLevel":"Mid","jobDescription":"Go"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, strings.HasPrefix(body["questions"], "```json"), "raw text is returned verbatim")

	w = do(router, http.MethodPost, "/api/generate-questions", `{"jobRole":"Dev"}`, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Error generating questions"}`, w.Body.String())

	router, _ = newTestServer(t, &fakeModel{err: status.Error(codes.Unavailable, "down")})
	w = do(router, http.MethodPost, "/api/generate-questions",
		`{"jobRole":"Dev","experienceLevel":"Mid","jobDescription":"Go"}`, nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"Error generating questions"}`, w.Body.String())
}

func TestGenerateFeedback(t *testing.T) {
	router, _ := newTestServer(t, &fakeModel{})
	w := do(router, http.MethodPost, "/api/generate-feedback",
		`{"interviewID":"1","questionList":["q1"],"answers":["a1"],"jobRole":"Dev","experienceLevel":"Mid","jobDescription":"Go"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"feedback"`)

	w = do(router, http.MethodPost, "/api/generate-feedback",
		`{"interviewID":"1","questionList":[],"answers":[]}`, nil)
	assert.Equal(t, http.StatusOK, w.Code, "empty lists are forwarded upstream")

	for _, body := range []string{
		`{"interviewID":"1","questionList":"q1","answers":["a1"]}`,
		`{"interviewID":"1","questionList":["q1"]}`,
		`not json`,
	} {
		w = do(router, http.MethodPost, "/api/generate-feedback", body, nil)
		assert.Equal(t, http.StatusInternalServerError, w.Code, body)
		assert.JSONEq(t, `{"error":"Error generating feedback"}`, w.Body.String())
	}
}

func TestAuthCookiesAndProfile(t *testing.T) {
	router, _ := newTestServer(t, &fakeModel{})

	w := do(router, http.MethodGet, "/api/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	cookies := signUp(t, router)
	names := map[string]*http.Cookie{}
	for _, c := range cookies {
		names[c.Name] = c
	}
	require.Contains(t, names, "authToken")
	require.Contains(t, names, "email")
	assert.Equal(t, "ada@example.com", names["email"].Value)
	assert.Equal(t, 86400, names["email"].MaxAge)

	w = do(router, http.MethodGet, "/api/profile", "", cookies)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"firstName":"Ada"`)

	forged := []*http.Cookie{names["authToken"], {Name: "email", Value: "eve@example.com"}}
	w = do(router, http.MethodGet, "/api/profile", "", forged)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(router, http.MethodPut, "/api/profile", `{"firstName":"Ada1","lastName":"L"}`, cookies)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "First name must contain only alphabets.")

	w = do(router, http.MethodPost, "/api/auth/signin", `{"email":"ada@example.com","password":"nope"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(router, http.MethodPost, "/api/auth/signout", "", cookies)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestGoogleUserPasswordChange(t *testing.T) {
	router, _ := newTestServer(t, &fakeModel{})
	w := do(router, http.MethodPost, "/api/auth/google", `{"credential":"grace-cred"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"lastName":"Hopper"`)

	w = do(router, http.MethodPut, "/api/profile/password",
		`{"currentPassword":"x","newPassword":"N3wPass!!","confirmPassword":"N3wPass!!"}`, w.Result().Cookies())
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Since you signed up using Google")
}

func TestGoogleSignInRequiresVerifiedCredential(t *testing.T) {
	router, _ := newTestServer(t, &fakeModel{})
	cookies := signUp(t, router)

	w := do(router, http.MethodPost, "/api/auth/google",
		`{"email":"ada@example.com","displayName":"Evil Attacker"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, w.Result().Cookies())

	w = do(router, http.MethodPost, "/api/auth/google", `{"credential":"ada-cred"}`, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Empty(t, w.Result().Cookies())
	assert.Contains(t, w.Body.String(), "Sign in with your password")

	w = do(router, http.MethodGet, "/api/profile", "", cookies)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"firstName":"Ada"`)
	assert.Contains(t, w.Body.String(), `"lastName":"Lovelace"`)
}

func TestInterviewFlow(t *testing.T) {
	router, _ := newTestServer(t, &fakeModel{})
	cookies := signUp(t, router)

	w := do(router, http.MethodPost, "/api/interview/next", `{"answer":"x"}`, cookies)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(router, http.MethodPost, "/api/interview/start",
		`{"jobRole":"Dev","experienceLevel":"Mid","jobDescription":"Go"}`, cookies)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"state":"answering"`)

	for _, answer := range []string{"one", "", "three", ""} {
		w = do(router, http.MethodPost, "/api/interview/next", fmt.Sprintf(`{"answer":%q}`, answer), cookies)
		require.Equal(t, http.StatusOK, w.Code)
	}
	assert.Contains(t, w.Body.String(), `"state":"ready_to_submit"`)

	w = do(router, http.MethodPost, "/api/interview/submit", `{"answer":"five"}`, cookies)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var submitted struct {
		InterviewID string `json:"interviewId"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &submitted))
	assert.Contains(t, w.Body.String(), "Did not answer this question")

	w = do(router, http.MethodGet, "/api/feedback/"+submitted.InterviewID, "", cookies)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"feedbackID":"`+submitted.InterviewID+`"`)

	w = do(router, http.MethodGet, "/api/history?search=dev", "", cookies)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Interviews []struct {
			ID            string   `json:"id"`
			AverageRating *float64 `json:"averageRating"`
		} `json:"interviews"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	require.Len(t, list.Interviews, 1)
	require.NotNil(t, list.Interviews[0].AverageRating)
	assert.InDelta(t, 3.0, *list.Interviews[0].AverageRating, 1e-9)

	w = do(router, http.MethodGet, "/api/history?from=2024-02-01&to=2024-01-01", "", cookies)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = do(router, http.MethodGet, "/api/history?from=yesterday", "", cookies)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(router, http.MethodDelete, "/api/history/"+submitted.InterviewID, "", cookies)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(router, http.MethodGet, "/api/history/"+submitted.InterviewID, "", cookies)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestQuitInterview(t *testing.T) {
	router, _ := newTestServer(t, &fakeModel{})
	cookies := signUp(t, router)
	w := do(router, http.MethodPost, "/api/interview/start",
		`{"jobRole":"Dev","experienceLevel":"Mid","jobDescription":"Go"}`, cookies)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(router, http.MethodPost, "/api/interview/quit", "", cookies)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"state":"idle"`)

	w = do(router, http.MethodGet, "/api/history", "", cookies)
	assert.JSONEq(t, `{"interviews":[]}`, w.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	router, _ := newTestServer(t, &fakeModel{})
	req := httptest.NewRequest(http.MethodOptions, "/api/generate-questions", nil)
	req.Header.Set("Origin", testOrigin)
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, testOrigin, w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
}

func TestRequestIDHeader(t *testing.T) {
	router, _ := newTestServer(t, &fakeModel{})
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	req.Header.Set("x-request-id", "abc")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "abc", w.Header().Get("x-request-id"))

	w = do(router, http.MethodGet, "/test", "", nil)
	assert.NotEmpty(t, w.Header().Get("x-request-id"))
}

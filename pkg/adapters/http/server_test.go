package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/bookclub/pkg/adapters/memory"
	"github.com/aretw0/bookclub/pkg/admin"
	"github.com/aretw0/bookclub/pkg/domain"
	"github.com/aretw0/bookclub/pkg/flow"
	"github.com/aretw0/bookclub/pkg/session"
)

// flakyInserter fails while err is set.
type flakyInserter struct {
	mu      sync.Mutex
	err     error
	records *memory.RecordStore
}

func (f *flakyInserter) Insert(ctx context.Context, r domain.AnswerRecord) error {
	f.mu.Lock()
	err := f.err
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.records.Insert(ctx, r)
}

type testEnv struct {
	handler  http.Handler
	records  *memory.RecordStore
	inserter *flakyInserter
	auth     *memory.Authenticator
	streams  *StreamManager
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		records: memory.NewRecordStore(),
		auth:    memory.NewAuthenticator(),
		streams: NewStreamManager(nil),
	}
	env.inserter = &flakyInserter{records: env.records}

	flows, err := flow.NewService(flow.DefaultScript(), session.NewManager(memory.NewStore()), env.inserter,
		flow.WithChangeListener(env.streams.Listener()))
	require.NoError(t, err)

	require.NoError(t, env.auth.SignUp(context.Background(), "admin@club.com", "s3cret", "Admin"))
	adm := admin.NewService(env.auth, env.records)

	env.handler = NewHandler(flows, adm, WithStreams(env.streams), WithVersion("1.2.3"))
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body any, header ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	e.handler.ServeHTTP(w, req)
	return w
}

func decodeView(t *testing.T, w *httptest.ResponseRecorder) flow.View {
	t.Helper()
	var v flow.View
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealthAndInfo(t *testing.T) {
	env := newEnv(t)

	w := env.do(t, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = env.do(t, "GET", "/info", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var info map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &info))
	assert.Equal(t, "1.2.3", info["version"])
	assert.Equal(t, "1.0.0", info["api_version"])

	w = env.do(t, "GET", "/openapi.yaml", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "openapi: 3.0.3")
}

func TestFlowAPI_FullSignup(t *testing.T) {
	env := newEnv(t)

	w := env.do(t, "POST", "/api/flows/s1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	v := decodeView(t, w)
	assert.Equal(t, 0, v.Step)
	assert.Equal(t, 10, v.Total)

	answers := map[string]string{
		"full_name":        "Ana Souza",
		"age":              "29",
		"phone":            "11987654321",
		"motivation":       "Ler mais",
		"reading_relation": "Estou retomando agora",
		"availability":     "Alto",
		"group_behavior":   "Observar mais do que falar",
		"why_match":        "Compromisso",
	}
	for v.Step < 8 {
		w = env.do(t, "POST", "/api/flows/s1/advance", nil)
		require.Equal(t, http.StatusOK, w.Code)
		v = decodeView(t, w)
		if f := v.Current.Field; f != "" {
			w = env.do(t, "PUT", "/api/flows/s1/fields/"+string(f), setFieldRequest{Value: answers[string(f)]})
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		}
	}

	w = env.do(t, "POST", "/api/flows/s1/submit", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	v = decodeView(t, w)
	assert.True(t, v.Submitted)
	assert.Equal(t, 9, v.Step)

	stored, err := env.records.List(context.Background())
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "(11) 98765-4321", stored[0].Phone)

	w = env.do(t, "POST", "/api/flows/s1/submit", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestFlowAPI_ErrorStatuses(t *testing.T) {
	env := newEnv(t)

	assert.Equal(t, http.StatusNotFound, env.do(t, "GET", "/api/flows/ghost", nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, "POST", "/api/flows/ghost/advance", nil).Code)

	require.Equal(t, http.StatusOK, env.do(t, "POST", "/api/flows/s1", nil).Code)
	assert.Equal(t, http.StatusBadRequest, env.do(t, "POST", "/api/flows/s1/submit", nil).Code, "submit from the cover")
	assert.Equal(t, http.StatusBadRequest, env.do(t, "PUT", "/api/flows/s1/fields/email", setFieldRequest{Value: "x"}).Code)

	huge := strings.Repeat("a", 5000)
	assert.Equal(t, http.StatusBadRequest, env.do(t, "PUT", "/api/flows/s1/fields/motivation", setFieldRequest{Value: huge}).Code)
}

func TestFlowAPI_SanitizesAnswers(t *testing.T) {
	env := newEnv(t)
	require.Equal(t, http.StatusOK, env.do(t, "POST", "/api/flows/s1", nil).Code)

	w := env.do(t, "PUT", "/api/flows/s1/fields/motivation", setFieldRequest{Value: "Gosto de <b>ficção</b><script>x()</script>"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Gosto de ficção", decodeView(t, w).Answers.Motivation)
}

func TestFlowAPI_SubmitFailure(t *testing.T) {
	env := newEnv(t)
	env.inserter.err = errors.New("connection refused")

	require.Equal(t, http.StatusOK, env.do(t, "POST", "/api/flows/s1", nil).Code)
	for i := 0; i < 8; i++ {
		require.Equal(t, http.StatusOK, env.do(t, "POST", "/api/flows/s1/advance", nil).Code)
	}

	w := env.do(t, "POST", "/api/flows/s1/submit", nil)
	require.Equal(t, http.StatusBadGateway, w.Code)
	var body errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotNil(t, body.View)
	assert.Equal(t, flow.SubmitFailureNotice, body.View.Notice)
	assert.Equal(t, 8, body.View.Step)
	assert.False(t, body.View.Busy)

	env.inserter.mu.Lock()
	env.inserter.err = nil
	env.inserter.mu.Unlock()
	w = env.do(t, "POST", "/api/flows/s1/submit", nil)
	assert.Equal(t, http.StatusOK, w.Code, "retry succeeds")
}

func TestFlowAPI_Abandon(t *testing.T) {
	env := newEnv(t)
	require.Equal(t, http.StatusOK, env.do(t, "POST", "/api/flows/s1", nil).Code)
	assert.Equal(t, http.StatusNoContent, env.do(t, "DELETE", "/api/flows/s1", nil).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, "GET", "/api/flows/s1", nil).Code)
}

func TestSubscribeEvents_Session(t *testing.T) {
	env := newEnv(t)
	require.Equal(t, http.StatusOK, env.do(t, "POST", "/api/flows/s1", nil).Code)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	wSub := httptest.NewRecorder()
	reqSub := httptest.NewRequest("GET", "/api/flows/s1/events?watch=answers", nil).WithContext(ctx)
	done := make(chan struct{})
	go func() {
		env.handler.ServeHTTP(wSub, reqSub)
		close(done)
	}()

	require.Eventually(t, func() bool {
		env.streams.mu.RLock()
		defer env.streams.mu.RUnlock()
		return len(env.streams.subscribers["s1"]) == 1
	}, time.Second, 10*time.Millisecond)

	// Filtered out: step only.
	require.Equal(t, http.StatusOK, env.do(t, "POST", "/api/flows/s1/advance", nil).Code)
	require.Equal(t, http.StatusOK, env.do(t, "PUT", "/api/flows/s1/fields/full_name", setFieldRequest{Value: "Ana"}).Code)

	time.Sleep(50 * time.Millisecond)
	cancel()
	<-done

	output := wSub.Body.String()
	assert.Contains(t, output, "event: ping")
	assert.Contains(t, output, `"full_name":"Ana"`)
	assert.NotContains(t, output, `"step":1`)
}

func TestStreamManager_UnsubscribeCleansUp(t *testing.T) {
	sm := NewStreamManager(nil)
	ch, cancel := sm.Subscribe("s1")
	sm.Broadcast("s1", "hello")
	assert.Equal(t, "hello", <-ch)

	cancel()
	_, open := <-ch
	assert.False(t, open)
	assert.Empty(t, sm.subscribers)

	sm.Broadcast("s1", "nobody listening")
}

func TestAdminAPI(t *testing.T) {
	env := newEnv(t)
	ctx := context.Background()
	require.NoError(t, env.records.Insert(ctx, domain.AnswerRecord{FullName: "Ana Souza", Phone: "(11) 98765-4321"}))

	assert.Equal(t, http.StatusUnauthorized, env.do(t, "GET", "/api/admin/candidates", nil).Code)
	assert.Equal(t, http.StatusUnauthorized,
		env.do(t, "POST", "/api/admin/login", loginRequest{Email: "admin@club.com", Password: "wrong"}).Code)

	w := env.do(t, "POST", "/api/admin/login", loginRequest{Email: "admin@club.com", Password: "s3cret"})
	require.Equal(t, http.StatusOK, w.Code)
	var sess domain.AdminSession
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sess))
	require.NotEmpty(t, sess.Token)
	assert.Contains(t, w.Header().Get("Set-Cookie"), AdminCookie+"=")
	auth := []string{"Authorization", "Bearer " + sess.Token}

	w = env.do(t, "GET", "/api/admin/session", nil, auth...)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "admin@club.com")

	w = env.do(t, "GET", "/api/admin/candidates", nil, auth...)
	require.Equal(t, http.StatusOK, w.Code)
	var records []domain.StoredRecord
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &records))
	require.Len(t, records, 1)
	id := records[0].ID

	w = env.do(t, "GET", "/api/admin/candidates/"+id+"/whatsapp", nil, auth...)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "https://wa.me/5511987654321")

	w = env.do(t, "GET", "/api/admin/candidates.csv", nil, auth...)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "Ana Souza")

	assert.Equal(t, http.StatusNotImplemented, env.do(t, "POST", "/api/admin/candidates/"+id+"/share", nil, auth...).Code)
	assert.Equal(t, http.StatusNoContent, env.do(t, "DELETE", "/api/admin/candidates/"+id, nil, auth...).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, "DELETE", "/api/admin/candidates/"+id, nil, auth...).Code)

	assert.Equal(t, http.StatusNoContent, env.do(t, "POST", "/api/admin/logout", nil, auth...).Code)
	assert.Equal(t, http.StatusUnauthorized, env.do(t, "GET", "/api/admin/candidates", nil, auth...).Code)
}

func TestBookPages(t *testing.T) {
	env := newEnv(t)

	req := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	env.handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "FORMULÁRIO")
	assert.Contains(t, w.Body.String(), "Começar")

	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	cookie := cookies[0]
	require.Equal(t, SessionCookie, cookie.Name)

	post := func(form url.Values) *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", "/form", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.AddCookie(cookie)
		w := httptest.NewRecorder()
		env.handler.ServeHTTP(w, req)
		return w
	}
	get := func() string {
		req := httptest.NewRequest("GET", "/", nil)
		req.AddCookie(cookie)
		w := httptest.NewRecorder()
		env.handler.ServeHTTP(w, req)
		return w.Body.String()
	}

	assert.Equal(t, http.StatusSeeOther, post(url.Values{"action": {"advance"}}).Code)
	assert.Contains(t, get(), "1. Nome Completo")

	assert.Equal(t, http.StatusSeeOther, post(url.Values{"action": {"advance"}, "value": {"Ana Souza"}}).Code)
	page := get()
	assert.Contains(t, page, "2. Idade")

	assert.Equal(t, http.StatusSeeOther, post(url.Values{"action": {"retreat"}}).Code)
	assert.Contains(t, get(), `value="Ana Souza"`)
}

func TestAdminPages(t *testing.T) {
	env := newEnv(t)
	require.NoError(t, env.records.Insert(context.Background(), domain.AnswerRecord{FullName: "Bruno Lima", Availability: "Médio"}))

	req := httptest.NewRequest("GET", "/admin", nil)
	w := httptest.NewRecorder()
	env.handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Área Administrativa")

	form := url.Values{"email": {"admin@club.com"}, "password": {"s3cret"}}
	req = httptest.NewRequest("POST", "/admin/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w = httptest.NewRecorder()
	env.handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusSeeOther, w.Code)

	var adminCookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == AdminCookie {
			adminCookie = c
		}
	}
	require.NotNil(t, adminCookie)

	req = httptest.NewRequest("GET", "/admin", nil)
	req.AddCookie(adminCookie)
	w = httptest.NewRecorder()
	env.handler.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Inscrições (1)")
	assert.Contains(t, body, "Bruno Lima")
	assert.Contains(t, body, "Médio")
	assert.NotContains(t, body, "Enviar ao Telegram")

	form = url.Values{"email": {"admin@club.com"}, "password": {"nope"}}
	req = httptest.NewRequest("POST", "/admin/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w = httptest.NewRecorder()
	env.handler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "E-mail ou senha inválidos.")
}

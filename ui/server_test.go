package ui

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"xaistudy/adapters/backend"
	"xaistudy/adapters/excel"
	"xaistudy/app"
	"xaistudy/internal"
	"xaistudy/internal/config"
	"xaistudy/internal/metrics"
	"xaistudy/internal/testkit"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeBackend answers every backend call with a fixed body and records what it saw
type fakeBackend struct {
	mu       sync.Mutex
	status   int
	body     string
	requests []*http.Request
}

func (f *fakeBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	f.requests = append(f.requests, r.Clone(context.Background()))
	status, body := f.status, f.body
	f.mu.Unlock()
	if status == 0 {
		status = http.StatusOK
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func (f *fakeBackend) respond(status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status, f.body = status, body
}

func (f *fakeBackend) last() *http.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		return nil
	}
	return f.requests[len(f.requests)-1]
}

type testEnv struct {
	server  *Server
	store   *testkit.InMemoryStore
	backend *fakeBackend
	metrics *metrics.Metrics
}

func newTestEnv(t *testing.T, study config.StudyConfig) *testEnv {
	t.Helper()
	logger := internal.NewLogger(internal.LogLevelError)
	store := testkit.NewInMemoryStore()
	fake := &fakeBackend{body: `{"ok":true}`}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	m := metrics.New()
	client := backend.NewClient(backend.Config{BaseURL: srv.URL, Metrics: m, Logger: logger})
	groups := app.NewStudyGroupService(store, study, m, logger)

	server := NewServer(Dependencies{
		Participants:   store,
		Setup:          app.NewSetupService(store, store, groups, logger),
		StudyGroups:    groups,
		Participant:    app.NewParticipantService(store, store, store, logger),
		Questionnaires: app.NewQuestionnaireService(store, store, logger),
		Attention:      app.NewAttentionService(store, study.ComprehensionCheckID),
		Testing:        app.NewTestingResponseService(store, client, logger),
		Export:         app.NewExportService(store, store),
		Backend:        client,
		Metrics:        m,
		Logger:         logger,
	})
	return &testEnv{server: server, store: store, backend: fake, metrics: m}
}

func (e *testEnv) do(method, target string, body interface{}) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.server.Handler().ServeHTTP(w, req)
	return w
}

func (e *testEnv) setup(t *testing.T, userID string) {
	t.Helper()
	w := e.do(http.MethodPost, "/api/setup", map[string]interface{}{
		"user_id":      userID,
		"profile_data": map[string]interface{}{"age": 30, "ml_knowledge": "low"},
		"study_group":  "interactive",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestSetupEndpoint(t *testing.T) {
	env := newTestEnv(t, config.StudyConfig{ABSelection: "alternate", GroupName: "wave-2"})

	w := env.do(http.MethodPost, "/api/setup", map[string]interface{}{
		"user_id":        "u-1",
		"profile_data":   map[string]interface{}{"age": 30},
		"study_group":    "interactive",
		"matrikelnummer": "123456",
		"prolific_id":    "p-9",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())

	p, err := env.store.GetParticipant(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, "wave-2", p.Profile["study_group_name"])
	assert.Equal(t, "interactive", p.StudyGroup.String)
	assert.Equal(t, "123456", p.MatrikNum.String)
	assert.Equal(t, "p-9", p.ProlificID.String)
}

func TestSetupEndpointErrors(t *testing.T) {
	env := newTestEnv(t, config.StudyConfig{})

	w := env.do(http.MethodPost, "/api/setup", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	env.setup(t, "u-1")
	w = env.do(http.MethodPost, "/api/setup", map[string]interface{}{"user_id": "u-1", "study_group": "chat"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStudyGroupEndpoint(t *testing.T) {
	env := newTestEnv(t, config.StudyConfig{ABSelection: "alternate"})

	w := env.do(http.MethodGet, "/api/study-group", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"study_group":"interactive","study_group_name":"interactive"}`, w.Body.String())

	expected := `
# HELP xaistudy_study_group_assignments_total Study group assignments by arm and whether the fallback arm was used.
# TYPE xaistudy_study_group_assignments_total counter
xaistudy_study_group_assignments_total{fallback="false",group="interactive"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(env.metrics.Registry, strings.NewReader(expected), "xaistudy_study_group_assignments_total"))
}

func TestStudyGroupEndpointNameMatchesArm(t *testing.T) {
	env := newTestEnv(t, config.StudyConfig{ABSelection: "alternate", GroupName: "wave-2"})

	w := env.do(http.MethodGet, "/api/study-group", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"study_group":"interactive","study_group_name":"wave-2"}`, w.Body.String())
}

func TestSetupEndpointCountsNoAssignment(t *testing.T) {
	env := newTestEnv(t, config.StudyConfig{ABSelection: "alternate"})
	env.setup(t, "u-1")

	count, err := testutil.GatherAndCount(env.metrics.Registry, "xaistudy_study_group_assignments_total")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestNewSessionEndpoint(t *testing.T) {
	env := newTestEnv(t, config.StudyConfig{})
	w := env.do(http.MethodGet, "/api/session/new", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body["user_id"], 36)
}

func TestParticipantFlow(t *testing.T) {
	env := newTestEnv(t, config.StudyConfig{})
	env.setup(t, "u-1")
	ctx := context.Background()

	w := env.do(http.MethodPost, "/api/events", map[string]interface{}{"user_id": "u-1", "source": "ui", "action": "start"})
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(http.MethodPost, "/api/questionnaires", map[string]interface{}{
		"user_id": "u-1", "questions": []string{"q1", "q2"}, "answers": []int{1, 3},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"mean":2`)

	w = env.do(http.MethodPost, "/api/feedback", map[string]interface{}{"user_id": "u-1", "feedback": "fine"})
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(http.MethodPost, "/api/completed", map[string]interface{}{"user_id": "u-1"})
	assert.Equal(t, http.StatusNoContent, w.Code)

	p, err := env.store.GetParticipant(ctx, "u-1")
	require.NoError(t, err)
	assert.True(t, p.Completed)
	assert.Contains(t, p.Questionnaires, "exit")
	assert.Len(t, p.Feedback, 1)

	events, err := env.store.ListEvents(ctx, "u-1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "questionnaire_saved", events[1].Action)

	w = env.do(http.MethodGet, "/api/participants/u-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"completed":true`)
}

func TestUserIDFromHeader(t *testing.T) {
	env := newTestEnv(t, config.StudyConfig{})
	env.setup(t, "u-1")

	req := httptest.NewRequest(http.MethodPost, "/api/feedback", strings.NewReader(`{"feedback":"via header"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "u-1")
	w := httptest.NewRecorder()
	env.server.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusNoContent, w.Code)

	p, err := env.store.GetParticipant(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, "via header", p.Feedback[0].Feedback)
}

func TestUnknownParticipantIs404(t *testing.T) {
	env := newTestEnv(t, config.StudyConfig{})

	w := env.do(http.MethodPost, "/api/feedback", map[string]interface{}{"user_id": "ghost", "feedback": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(http.MethodGet, "/api/participants/ghost", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAttentionEndpoints(t *testing.T) {
	env := newTestEnv(t, config.StudyConfig{})

	for id, data := range map[string]string{
		"1": `{"selected":"a","correct":"b"}`,
		"2": `{"selected":"a","correct":"b"}`,
		"3": `{"selected":"a","correct":["b","c"]}`,
	} {
		w := env.do(http.MethodPost, "/api/attention-checks", map[string]interface{}{
			"user_id": "u-1", "check_id": id, "data": json.RawMessage(data),
		})
		require.Equal(t, http.StatusNoContent, w.Code)
	}

	w := env.do(http.MethodGet, "/api/attention-checks/u-1", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"two_failed":true,"comprehension_failed":true,"failed_count":2}`, w.Body.String())

	w = env.do(http.MethodGet, "/api/attention-checks/nobody", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"two_failed":false,"comprehension_failed":false,"failed_count":0}`, w.Body.String())
}

func TestMatrikNumEndpoints(t *testing.T) {
	env := newTestEnv(t, config.StudyConfig{})
	w := env.do(http.MethodPost, "/api/setup", map[string]interface{}{
		"user_id": "u-1", "study_group": "static", "matrikelnummer": "123456",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodGet, "/api/participants/u-1/matrikelnummer", nil)
	assert.JSONEq(t, `{"matrikelnummer":"123456"}`, w.Body.String())

	w = env.do(http.MethodDelete, "/api/participants/u-1/matrikelnummer", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(http.MethodGet, "/api/participants/u-1/matrikelnummer", nil)
	assert.JSONEq(t, `{"matrikelnummer":""}`, w.Body.String())
}

func TestConfigEndpoints(t *testing.T) {
	env := newTestEnv(t, config.StudyConfig{})

	w := env.do(http.MethodGet, "/api/config/dataset/sf_crime", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"name":"adult"`)

	w = env.do(http.MethodGet, "/api/config/questionnaire?study_group=static&dataset=adult", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"arm":"static"`)
}

func TestExportEndpoint(t *testing.T) {
	env := newTestEnv(t, config.StudyConfig{})
	env.setup(t, "u-1")

	w := env.do(http.MethodGet, "/api/export/participants.xlsx", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))

	rows, err := excel.ReadSheet(bytes.NewReader(w.Body.Bytes()), "Participants")
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestHealthAndMetrics(t *testing.T) {
	env := newTestEnv(t, config.StudyConfig{})

	w := env.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "xaistudy_http_requests_total")
}

func TestBackendRelay(t *testing.T) {
	env := newTestEnv(t, config.StudyConfig{})
	env.backend.respond(http.StatusTeapot, `{"correct":3}`)

	w := env.do(http.MethodGet, "/api/xai/u-1/get_user_correctness", nil)
	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.JSONEq(t, `{"correct":3}`, w.Body.String())

	last := env.backend.last()
	require.NotNil(t, last)
	assert.Equal(t, "/get_user_correctness", last.URL.Path)
	assert.Equal(t, "u-1", last.URL.Query().Get("user_id"))
}

func TestBackendInitUsesStoredKnowledge(t *testing.T) {
	env := newTestEnv(t, config.StudyConfig{})
	env.setup(t, "u-1")

	w := env.do(http.MethodGet, "/api/xai/u-1/init?study_group=static", nil)
	require.Equal(t, http.StatusOK, w.Code)

	q := env.backend.last().URL.Query()
	assert.Equal(t, "low", q.Get("ml_knowledge"))
	assert.Equal(t, "static", q.Get("study_group"))

	w = env.do(http.MethodGet, "/api/xai/u-1/init?ml_knowledge=high", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "high", env.backend.last().URL.Query().Get("ml_knowledge"))
}

func TestSetUserPredictionRequiresPrediction(t *testing.T) {
	env := newTestEnv(t, config.StudyConfig{})

	w := env.do(http.MethodPost, "/api/xai/u-1/set_user_prediction", map[string]interface{}{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(http.MethodPost, "/api/xai/u-1/set_user_prediction", map[string]interface{}{"user_prediction": "yes"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.False(t, env.backend.last().URL.Query().Has("datapoint_count"))
}

func TestChatStream(t *testing.T) {
	env := newTestEnv(t, config.StudyConfig{})
	env.backend.respond(http.StatusOK, "data: {\"text\":\"hi\"}\n\ndata: not-json\n\ndata: {\"text\":\"!\"}\n\n")

	w := env.do(http.MethodPost, "/api/xai/u-1/get_response_nl_stream", map[string]string{"message": "why?"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Header().Get("Content-Type"), "text/event-stream"), w.Header().Get("Content-Type"))

	body := w.Body.String()
	assert.Equal(t, 2, strings.Count(body, "event:message"))
	assert.Contains(t, body, `data:{"text":"hi"}`)
	assert.Contains(t, body, `data:{"text":"!"}`)
	assert.NotContains(t, body, "not-json")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(body), "data:{}"))
	assert.Contains(t, body, "event:done")
}

func TestChatStreamBackendFailure(t *testing.T) {
	env := newTestEnv(t, config.StudyConfig{})
	env.backend.respond(http.StatusInternalServerError, "boom")

	w := env.do(http.MethodPost, "/api/xai/u-1/get_response_nl_stream", map[string]string{"message": "why?"})
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.JSONEq(t, `{"error":"experiment backend unavailable"}`, w.Body.String())
}

func TestTestingResponseForwardsPrediction(t *testing.T) {
	env := newTestEnv(t, config.StudyConfig{})
	env.setup(t, "u-1")

	w := env.do(http.MethodPost, "/api/testing-responses", map[string]interface{}{
		"user_id": "u-1", "datapoint_count": 4, "test_response": ">50K", "true_label": "<=50K",
	})
	require.Equal(t, http.StatusNoContent, w.Code)

	stored := env.store.TestingResponses()
	require.Len(t, stored, 1)
	assert.Equal(t, ">50K", stored[0].Response)
	assert.Equal(t, "/set_user_prediction", env.backend.last().URL.Path)
	assert.Equal(t, "4", env.backend.last().URL.Query().Get("datapoint_count"))
}

package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fabtrain/console/internal/config"
	"github.com/fabtrain/console/internal/feed"
	"github.com/fabtrain/console/internal/handler"
	"github.com/fabtrain/console/internal/hub"
	"github.com/fabtrain/console/internal/middleware"
	"github.com/fabtrain/console/internal/router"
	"github.com/fabtrain/console/internal/service"
	"github.com/fabtrain/console/internal/transport"
	"github.com/fabtrain/console/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend stands in for the transport client.
type fakeBackend struct {
	mu        sync.Mutex
	connected bool
	err       error
	frames    []json.RawMessage
}

func (f *fakeBackend) Emit(event string, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	f.frames = append(f.frames, raw)
	return nil
}

func (f *fakeBackend) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeBackend) sent() []json.RawMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]json.RawMessage(nil), f.frames...)
}

type testEnv struct {
	router  *gin.Engine
	backend *fakeBackend
	hub     *hub.Hub
	feed    *service.FeedService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validator.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	log := zerolog.Nop()
	backend := &fakeBackend{connected: true}
	h := hub.New(nil, "test:events", log)

	formService := service.NewFormService(backend, h, time.Minute, log)
	feedService := service.NewFeedService(feed.NewMemoryStore(), h, h, log)
	ledgerService := service.NewLedgerService(backend, h, log)

	handlers := &router.Handlers{
		Form:   handler.NewFormHandler(formService),
		Train:  handler.NewTrainHandler(formService, feedService, ledgerService),
		WS:     handler.NewWSHandler(h, feedService, backend, log, nil),
		System: handler.NewSystemHandler(backend, h, formService),
	}
	cfg := &config.Config{GinMode: gin.TestMode}
	r := router.SetupRouter(handlers, middleware.NewRateLimiter(ctx, 100, time.Minute), cfg)

	return &testEnv{router: r, backend: backend, hub: h, feed: feedService}
}

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Error *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Fields  map[string]string `json:"fields"`
	} `json:"error"`
	Metadata struct {
		RequestID string `json:"request_id"`
	} `json:"metadata"`
}

func (e *testEnv) do(t *testing.T, method, path, body string) (int, envelope) {
	t.Helper()
	var rdr *bytes.Buffer
	if body != "" {
		rdr = bytes.NewBufferString(body)
	} else {
		rdr = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func openForm(t *testing.T, e *testEnv, kind string) string {
	t.Helper()
	code, env := e.do(t, http.MethodPost, "/api/v1/forms", `{"kind":"`+kind+`"}`)
	require.Equal(t, http.StatusCreated, code)

	var data struct {
		Form struct {
			ID string `json:"id"`
		} `json:"form"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	return data.Form.ID
}

func TestFormFlow_CreateSubmit(t *testing.T) {
	e := newTestEnv(t)
	id := openForm(t, e, "create")

	fields := map[string]string{
		"ID": "TRAIN10", "fname": "Jo", "gender": "M", "place": "NY", "class": "1", "status": "active",
	}
	for name, value := range fields {
		code, _ := e.do(t, http.MethodPut, "/api/v1/forms/"+id+"/fields/"+name, `{"value":"`+value+`"}`)
		require.Equal(t, http.StatusOK, code, name)
	}

	code, env := e.do(t, http.MethodPost, "/api/v1/forms/"+id+"/submit", "")
	require.Equal(t, http.StatusAccepted, code)
	assert.NotEmpty(t, env.Metadata.RequestID)

	sent := e.backend.sent()
	require.Len(t, sent, 1)
	assert.JSONEq(t, `{"action":"CREATE","data":{"ID":"TRAIN10","fname":"Jo","gender":"M","place":"NY","class":"1","status":"active"}}`, string(sent[0]))
	assert.Equal(t, 1, e.hub.Mode())
}

func TestFormFlow_ValidationMessage(t *testing.T) {
	e := newTestEnv(t)
	id := openForm(t, e, "change")

	code, _ := e.do(t, http.MethodPut, "/api/v1/forms/"+id+"/fields/ID", `{"value":"TRAIN10"}`)
	require.Equal(t, http.StatusOK, code)

	code, env := e.do(t, http.MethodPost, "/api/v1/forms/"+id+"/submit", "")
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "MISSING_FIELDS", env.Error.Code)
	assert.Equal(t, "All fields must be filled in.", env.Error.Message)
	assert.Empty(t, e.backend.sent())
	assert.Equal(t, 0, e.hub.Mode())
}

func TestFormFlow_Errors(t *testing.T) {
	e := newTestEnv(t)
	id := openForm(t, e, "change")

	code, env := e.do(t, http.MethodPut, "/api/v1/forms/"+id+"/fields/fname", `{"value":"Jo"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "UNKNOWN_FIELD", env.Error.Code)

	code, env = e.do(t, http.MethodGet, "/api/v1/forms/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "INVALID_ID", env.Error.Code)

	code, env = e.do(t, http.MethodGet, "/api/v1/forms/6f1f0b1e-0000-4000-8000-000000000000", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "FORM_NOT_FOUND", env.Error.Code)

	code, env = e.do(t, http.MethodPost, "/api/v1/forms", `{"kind":"delete"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Contains(t, env.Error.Fields, "kind")

	code, _ = e.do(t, http.MethodDelete, "/api/v1/forms/"+id, "")
	assert.Equal(t, http.StatusOK, code)
	code, _ = e.do(t, http.MethodPost, "/api/v1/forms/"+id+"/submit", "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestTrains_OneShotSubmit(t *testing.T) {
	e := newTestEnv(t)

	code, env := e.do(t, http.MethodPost, "/api/v1/trains",
		`{"ID":"train10","fname":"Jo","gender":"M","place":"NY","class":"1","status":"active"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "INVALID_ID_PREFIX", env.Error.Code)
	assert.Equal(t, "ID MUST CONTAIN 'TRAIN' FOLLOWED BY ID", env.Error.Message)

	code, env = e.do(t, http.MethodPost, "/api/v1/trains",
		`{"ID":"TRAIN12345a","fname":"Jo","gender":"M","place":"NY","class":"1","status":"active"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, code)
	assert.Equal(t, "INVALID_ID_SUFFIX", env.Error.Code)

	code, _ = e.do(t, http.MethodPost, "/api/v1/trains/status", `{"ID":"TRAIN10","newStatus":"Confirmed"}`)
	assert.Equal(t, http.StatusAccepted, code)

	sent := e.backend.sent()
	require.Len(t, sent, 1)
	assert.JSONEq(t, `{"action":"CHANGE","data":{"ID":"TRAIN10","newStatus":"Confirmed"}}`, string(sent[0]))
}

func TestTrains_Disconnected(t *testing.T) {
	e := newTestEnv(t)
	e.backend.connected = false

	code, env := e.do(t, http.MethodPost, "/api/v1/trains/status", `{"ID":"TRAIN10","newStatus":"RAC"}`)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "BACKEND_DISCONNECTED", env.Error.Code)

	code, env = e.do(t, http.MethodGet, "/api/v1/status", "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"connected":false,"mode":0,"labels":{"create":"DISCONNECTED","change":"DISCONNECTED"}}`, string(env.Data))
}

func TestTrains_QueueFull(t *testing.T) {
	e := newTestEnv(t)
	e.backend.err = transport.ErrQueueFull

	code, env := e.do(t, http.MethodPost, "/api/v1/trains/refresh", "")
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "BACKEND_BUSY", env.Error.Code)
}

func TestTrains_FeedAndQueries(t *testing.T) {
	e := newTestEnv(t)

	code, env := e.do(t, http.MethodGet, "/api/v1/trains", "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"feed":{"placeholder":true,"rows":[]}}`, string(env.Data))

	e.feed.HandleFrame(transport.Frame{
		Event:   transport.EventFeed,
		Payload: []byte(`[{"Key":"TRAIN4","Record":{"fname":"Kiran","gender":"Male","place":"Mysore-Mangalore","class":"AC","status":"Waiting list"}}]`),
	})
	code, env = e.do(t, http.MethodGet, "/api/v1/trains", "")
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"feed":{"placeholder":false,"rows":[{"primary":"TRAIN4","secondary":"AC Kiran Male (Mysore-Mangalore Waiting list)"}]}}`, string(env.Data))

	code, _ = e.do(t, http.MethodGet, "/api/v1/trains/TRAIN4", "")
	assert.Equal(t, http.StatusAccepted, code)
	code, _ = e.do(t, http.MethodPost, "/api/v1/trains/refresh", "")
	assert.Equal(t, http.StatusAccepted, code)
	code, _ = e.do(t, http.MethodPost, "/api/v1/ledger/init", "")
	assert.Equal(t, http.StatusAccepted, code)

	var actions []string
	for _, raw := range e.backend.sent() {
		var req struct {
			Action string `json:"action"`
		}
		require.NoError(t, json.Unmarshal(raw, &req))
		actions = append(actions, req.Action)
	}
	assert.Equal(t, []string{"QUERY", "QUERY_ALL", "INIT_LEDGER"}, actions)
}

func TestHealth(t *testing.T) {
	e := newTestEnv(t)
	code, env := e.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"connected":true`)
}

func TestConsoleStream(t *testing.T) {
	e := newTestEnv(t)
	srv := httptest.NewServer(e.router)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/v1/console"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() hub.Event {
		t.Helper()
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var ev hub.Event
		require.NoError(t, conn.ReadJSON(&ev))
		return ev
	}

	assert.Equal(t, hub.EventStatus, read().Event)
	assert.Equal(t, hub.EventMode, read().Event)
	assert.Equal(t, hub.EventFeed, read().Event)

	e.hub.SwitchTo(1)
	ev := read()
	assert.Equal(t, hub.EventMode, ev.Event)
	assert.EqualValues(t, 1, ev.Data)

	require.NoError(t, conn.WriteJSON(map[string]string{"action": "ping"}))
	assert.Equal(t, hub.EventPong, read().Event)
}

func TestTrains_EmptyBodyReportsFirstRule(t *testing.T) {
	e := newTestEnv(t)

	for _, path := range []string{"/api/v1/trains", "/api/v1/trains/status"} {
		code, env := e.do(t, http.MethodPost, path, "")
		assert.Equal(t, http.StatusUnprocessableEntity, code, path)
		require.NotNil(t, env.Error, path)
		assert.Equal(t, "MISSING_FIELDS", env.Error.Code, path)
		assert.Equal(t, "All fields must be filled in.", env.Error.Message, path)

		code, env = e.do(t, http.MethodPost, path, "{}")
		assert.Equal(t, http.StatusUnprocessableEntity, code, path)
		assert.Equal(t, "MISSING_FIELDS", env.Error.Code, path)
	}
	assert.Empty(t, e.backend.sent())
}

func TestTrains_MalformedBody(t *testing.T) {
	e := newTestEnv(t)

	code, env := e.do(t, http.MethodPost, "/api/v1/trains", `{"ID":`)
	assert.Equal(t, http.StatusBadRequest, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "INVALID_PAYLOAD", env.Error.Code)
	assert.Contains(t, env.Error.Fields, "detail")

	// an open form still needs a body
	code, env = e.do(t, http.MethodPost, "/api/v1/forms", "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "INVALID_PAYLOAD", env.Error.Code)
}

func TestTrains_QueryBlankID(t *testing.T) {
	e := newTestEnv(t)

	code, env := e.do(t, http.MethodGet, "/api/v1/trains/%20%20", "")
	assert.Equal(t, http.StatusBadRequest, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)
	assert.Equal(t, "id must not be blank", env.Error.Fields["id"])
	assert.Empty(t, e.backend.sent())
}

func TestUnknownRoute(t *testing.T) {
	e := newTestEnv(t)

	code, env := e.do(t, http.MethodGet, "/api/v1/nope", "")
	assert.Equal(t, http.StatusNotFound, code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "NOT_FOUND", env.Error.Code)
}

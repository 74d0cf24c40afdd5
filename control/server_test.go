package control

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/junctionlab/signalcore/adapter"
	"github.com/junctionlab/signalcore/config"
	"github.com/junctionlab/signalcore/controlloop"
)

func newTestServer() *Server {
	th := config.NewRuntimeConfig(config.Config{}).T
	ad := adapter.NewMockAdapter(7)
	ctx := controlloop.NewContext(ad, th, nil, nil)
	loop := controlloop.NewLoop(ctx)
	return NewServer(loop)
}

func TestHandleStartEnqueuesCommand(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/start", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"running":true`)
}

// setMode exercises set_mode end to end: POST /mode enqueues a
// CommandSetMode, which DrainCommands applies synchronously since no
// Run loop is draining the command queue in these tests.
func setMode(t *testing.T, s *Server, mode string) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/mode", strings.NewReader(`{"mode":"`+mode+`"}`))
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	s.loop.DrainCommands()
}

func TestHandleManualRejectedWhenModeIsAuto(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/manual", strings.NewReader(`{"approach":"east","duration_seconds":20}`))
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestHandleManualRejectsOutOfRangeDuration(t *testing.T) {
	s := newTestServer()
	setMode(t, s, "MANUAL")
	req := httptest.NewRequest(http.MethodPost, "/manual", strings.NewReader(`{"approach":"east","duration_seconds":5}`))
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleManualRequiresGroupOrApproach(t *testing.T) {
	s := newTestServer()
	setMode(t, s, "MANUAL")
	req := httptest.NewRequest(http.MethodPost, "/manual", strings.NewReader(`{"duration_seconds":20}`))
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleManualWithApproach(t *testing.T) {
	s := newTestServer()
	setMode(t, s, "MANUAL")
	req := httptest.NewRequest(http.MethodPost, "/manual", strings.NewReader(`{"approach":"east","duration_seconds":20}`))
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestHandleModeReportsAuto(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodGet, "/mode", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Contains(t, w.Body.String(), `"mode":"auto"`)
}

func TestHandleSetModeSwitchesToManual(t *testing.T) {
	s := newTestServer()
	setMode(t, s, "MANUAL")
	req := httptest.NewRequest(http.MethodGet, "/mode", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Contains(t, w.Body.String(), `"mode":"manual"`)
}

func TestHandleSetModeRejectsUnknownMode(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/mode", strings.NewReader(`{"mode":"SIDEWAYS"}`))
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleCancelManual(t *testing.T) {
	s := newTestServer()
	req := httptest.NewRequest(http.MethodPost, "/manual/cancel", nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

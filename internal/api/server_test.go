package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/lugegod/LugeRelay/internal/bluetooth"
	"github.com/lugegod/LugeRelay/internal/infrastructure/config"
	"github.com/lugegod/LugeRelay/internal/infrastructure/logging"
	"github.com/lugegod/LugeRelay/internal/sequence"
	"github.com/lugegod/LugeRelay/internal/settings"
)

// mockEngine implements SequenceRunner for handler tests.
type mockEngine struct {
	mu          sync.Mutex
	startErr    error
	stopErr     error
	snapshot    sequence.Snapshot
	lastParams  sequence.Parameters
	lastOffset  float64
	calibration bool
}

func (m *mockEngine) Start(_ context.Context, p sequence.Parameters) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.startErr != nil {
		return "", m.startErr
	}
	m.lastParams = p
	return "run-1", nil
}

func (m *mockEngine) StartCalibration(_ context.Context, offset float64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.startErr != nil {
		return "", m.startErr
	}
	m.calibration = true
	m.lastOffset = offset
	return "run-cal", nil
}

func (m *mockEngine) Stop() error {
	return m.stopErr
}

func (m *mockEngine) Status() sequence.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot
}

// mockRelayCtl implements RelayController.
type mockRelayCtl struct {
	mu     sync.Mutex
	active bool
}

func (m *mockRelayCtl) Activate() {
	m.mu.Lock()
	m.active = true
	m.mu.Unlock()
}

func (m *mockRelayCtl) Deactivate() {
	m.mu.Lock()
	m.active = false
	m.mu.Unlock()
}

func (m *mockRelayCtl) IsActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

func (m *mockRelayCtl) Available() bool { return true }

// mockSettingsRepo implements settings.Repository in memory.
type mockSettingsRepo struct {
	mu       sync.Mutex
	settings settings.Settings
	getErr   error
}

func (m *mockSettingsRepo) Get(_ context.Context) (*settings.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	s := m.settings
	return &s, nil
}

func (m *mockSettingsRepo) Update(_ context.Context, s *settings.Settings) error {
	if err := s.Validate(); err != nil {
		return err
	}
	m.mu.Lock()
	m.settings = *s
	m.mu.Unlock()
	return nil
}

func (m *mockSettingsRepo) SetAlignmentOffset(_ context.Context, offset float64) error {
	m.mu.Lock()
	m.settings.AlignmentOffset = offset
	m.mu.Unlock()
	return nil
}

// mockScanner implements Scanner.
type mockScanner struct {
	err      error
	scanning bool
	called   bool
}

func (m *mockScanner) Scan(_ context.Context) error {
	m.called = true
	return m.err
}

func (m *mockScanner) Scanning() bool  { return m.scanning }
func (m *mockScanner) Available() bool { return true }

func defaultTestSettings() settings.Settings {
	return settings.Settings{
		DefaultDelay1:     5,
		DefaultDelay2:     8,
		MinTotalTime:      8,
		MaxTotalTime:      20,
		GateOpenDuration:  3,
		AudioVolume:       0.8,
		Cue1File:          "beep1.wav",
		Cue2File:          "double_beep.wav",
		Cue3File:          "long_beep.wav",
		AutoRefreshMS:     100,
		CountdownUpdateMS: 50,
	}
}

type testFixture struct {
	engine  *mockEngine
	relay   *mockRelayCtl
	repo    *mockSettingsRepo
	scanner *mockScanner
	handler http.Handler
}

func newTestServer(t *testing.T) *testFixture {
	t.Helper()

	f := &testFixture{
		engine:  &mockEngine{},
		relay:   &mockRelayCtl{},
		repo:    &mockSettingsRepo{settings: defaultTestSettings()},
		scanner: &mockScanner{},
	}

	logger := logging.New(config.LoggingConfig{Level: "error", Format: "text"}, "test")
	srv, err := New(Deps{
		Logger:   logger,
		Engine:   f.engine,
		Relay:    f.relay,
		Settings: f.repo,
		Scanner:  f.scanner,
		Version:  "test",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	srv.hub = NewHub(config.WebSocketConfig{MaxMessageSize: 4096, PingInterval: 30, PongTimeout: 60}, logger)

	f.handler = srv.buildRouter()
	return f
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshalling request body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
}

func TestNewRequiresDependencies(t *testing.T) {
	logger := logging.New(config.LoggingConfig{Level: "error"}, "test")

	tests := []struct {
		name string
		deps Deps
	}{
		{name: "missing logger", deps: Deps{Engine: &mockEngine{}, Relay: &mockRelayCtl{}, Settings: &mockSettingsRepo{}}},
		{name: "missing engine", deps: Deps{Logger: logger, Relay: &mockRelayCtl{}, Settings: &mockSettingsRepo{}}},
		{name: "missing relay", deps: Deps{Logger: logger, Engine: &mockEngine{}, Settings: &mockSettingsRepo{}}},
		{name: "missing settings", deps: Deps{Logger: logger, Engine: &mockEngine{}, Relay: &mockRelayCtl{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.deps); err == nil {
				t.Error("New() succeeded with missing dependency")
			}
		})
	}
}

func TestHandleHealth(t *testing.T) {
	f := newTestServer(t)

	rec := doJSON(t, f.handler, http.MethodGet, "/api/v1/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body struct {
		Status     string            `json:"status"`
		Components map[string]string `json:"components"`
	}
	decodeBody(t, rec, &body)

	if body.Status != "ok" {
		t.Errorf("status = %q, want ok", body.Status)
	}
	if body.Components["relay"] != "ok" {
		t.Errorf("relay component = %q, want ok", body.Components["relay"])
	}
}

func TestHandleStartSequence(t *testing.T) {
	t.Run("explicit delays", func(t *testing.T) {
		f := newTestServer(t)

		rec := doJSON(t, f.handler, http.MethodPost, "/api/v1/sequence/start",
			map[string]float64{"delay1": 4, "delay2": 9, "gate_delay": 1})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}

		var resp startSequenceResponse
		decodeBody(t, rec, &resp)
		if resp.RunID != "run-1" {
			t.Errorf("run_id = %q, want run-1", resp.RunID)
		}

		want := sequence.Parameters{Delay1: 4, Delay2: 9, GateDelay: 1}
		if f.engine.lastParams != want {
			t.Errorf("engine params = %+v, want %+v", f.engine.lastParams, want)
		}
	})

	t.Run("empty body uses stored defaults", func(t *testing.T) {
		f := newTestServer(t)

		rec := doJSON(t, f.handler, http.MethodPost, "/api/v1/sequence/start", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}

		want := sequence.Parameters{Delay1: 5, Delay2: 8}
		if f.engine.lastParams != want {
			t.Errorf("engine params = %+v, want %+v", f.engine.lastParams, want)
		}
	})

	t.Run("out of range maps to 400", func(t *testing.T) {
		f := newTestServer(t)
		f.engine.startErr = sequence.ErrOutOfRange

		rec := doJSON(t, f.handler, http.MethodPost, "/api/v1/sequence/start",
			map[string]float64{"delay1": 1, "delay2": 1})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}

		var apiErr Error
		decodeBody(t, rec, &apiErr)
		if apiErr.Code != ErrCodeOutOfRange {
			t.Errorf("code = %q, want %q", apiErr.Code, ErrCodeOutOfRange)
		}
	})

	t.Run("already running maps to 409", func(t *testing.T) {
		f := newTestServer(t)
		f.engine.startErr = sequence.ErrAlreadyRunning

		rec := doJSON(t, f.handler, http.MethodPost, "/api/v1/sequence/start", map[string]float64{})
		if rec.Code != http.StatusConflict {
			t.Fatalf("status = %d, want 409", rec.Code)
		}

		var apiErr Error
		decodeBody(t, rec, &apiErr)
		if apiErr.Code != ErrCodeAlreadyRunning {
			t.Errorf("code = %q, want %q", apiErr.Code, ErrCodeAlreadyRunning)
		}
	})
}

func TestHandleStartRandomSequence(t *testing.T) {
	f := newTestServer(t)

	rec := doJSON(t, f.handler, http.MethodPost, "/api/v1/sequence/start-random", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp startSequenceResponse
	decodeBody(t, rec, &resp)

	if resp.Delay2 <= resp.Delay1 {
		t.Errorf("delay2 %v not greater than delay1 %v", resp.Delay2, resp.Delay1)
	}
	total := resp.Delay1 + resp.Delay2 + 3
	if total < 8 || total > 20 {
		t.Errorf("total time %v outside [8, 20]", total)
	}
}

func TestHandleStartTestSequence(t *testing.T) {
	t.Run("explicit offset", func(t *testing.T) {
		f := newTestServer(t)

		rec := doJSON(t, f.handler, http.MethodPost, "/api/v1/sequence/test",
			map[string]float64{"offset": -0.2})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}

		if !f.engine.calibration {
			t.Fatal("calibration run not started")
		}
		if f.engine.lastOffset != -0.2 {
			t.Errorf("offset = %v, want -0.2", f.engine.lastOffset)
		}
	})

	t.Run("omitted offset uses stored alignment", func(t *testing.T) {
		f := newTestServer(t)
		f.repo.settings.AlignmentOffset = -0.15

		rec := doJSON(t, f.handler, http.MethodPost, "/api/v1/sequence/test", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}

		if f.engine.lastOffset != -0.15 {
			t.Errorf("offset = %v, want -0.15", f.engine.lastOffset)
		}
	})
}

func TestHandleStopSequence(t *testing.T) {
	t.Run("running", func(t *testing.T) {
		f := newTestServer(t)

		rec := doJSON(t, f.handler, http.MethodPost, "/api/v1/sequence/stop", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
	})

	t.Run("idle maps to 409", func(t *testing.T) {
		f := newTestServer(t)
		f.engine.stopErr = sequence.ErrNotRunning

		rec := doJSON(t, f.handler, http.MethodPost, "/api/v1/sequence/stop", nil)
		if rec.Code != http.StatusConflict {
			t.Fatalf("status = %d, want 409", rec.Code)
		}

		var apiErr Error
		decodeBody(t, rec, &apiErr)
		if apiErr.Code != ErrCodeNotRunning {
			t.Errorf("code = %q, want %q", apiErr.Code, ErrCodeNotRunning)
		}
	})
}

func TestHandleSequenceStatus(t *testing.T) {
	f := newTestServer(t)
	f.engine.snapshot = sequence.Snapshot{
		Running:     true,
		Phase:       sequence.PhaseDelay2,
		CurrentTime: 6,
		TotalTime:   16,
		Countdown:   7,
	}

	rec := doJSON(t, f.handler, http.MethodGet, "/api/v1/sequence/status", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var snap sequence.Snapshot
	decodeBody(t, rec, &snap)
	if !snap.Running || snap.Phase != sequence.PhaseDelay2 || snap.Countdown != 7 {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestHandleRelay(t *testing.T) {
	t.Run("forced off", func(t *testing.T) {
		f := newTestServer(t)
		f.relay.Activate()

		rec := doJSON(t, f.handler, http.MethodPut, "/api/v1/relay", map[string]bool{"active": false})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}
		if f.relay.IsActive() {
			t.Error("relay still active after forced off")
		}

		rec = doJSON(t, f.handler, http.MethodGet, "/api/v1/relay", nil)
		var body map[string]bool
		decodeBody(t, rec, &body)
		if body["active"] || !body["hardware_available"] {
			t.Errorf("relay status = %v", body)
		}
	})

	t.Run("activation rejected", func(t *testing.T) {
		f := newTestServer(t)

		rec := doJSON(t, f.handler, http.MethodPut, "/api/v1/relay", map[string]bool{"active": true})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
		var apiErr Error
		decodeBody(t, rec, &apiErr)
		if apiErr.Code != ErrCodeValidation {
			t.Errorf("code = %q, want %q", apiErr.Code, ErrCodeValidation)
		}
		if f.relay.IsActive() {
			t.Error("relay energised by an external request")
		}

		rec = doJSON(t, f.handler, http.MethodGet, "/api/v1/sequence/status", nil)
		var snap sequence.Snapshot
		decodeBody(t, rec, &snap)
		if snap.Running || f.relay.IsActive() {
			t.Error("observed active relay with an idle sequence")
		}
	})

	t.Run("refused while running", func(t *testing.T) {
		f := newTestServer(t)
		f.engine.snapshot = sequence.Snapshot{Running: true}

		rec := doJSON(t, f.handler, http.MethodPut, "/api/v1/relay", map[string]bool{"active": false})
		if rec.Code != http.StatusConflict {
			t.Fatalf("status = %d, want 409", rec.Code)
		}
	})
}

func TestHandleSettings(t *testing.T) {
	t.Run("partial update merges", func(t *testing.T) {
		f := newTestServer(t)

		rec := doJSON(t, f.handler, http.MethodPut, "/api/v1/settings",
			map[string]float64{"default_delay1": 6.5})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
		}

		var updated settings.Settings
		decodeBody(t, rec, &updated)
		if updated.DefaultDelay1 != 6.5 {
			t.Errorf("DefaultDelay1 = %v, want 6.5", updated.DefaultDelay1)
		}
		if updated.DefaultDelay2 != 8 {
			t.Errorf("DefaultDelay2 = %v, want untouched 8", updated.DefaultDelay2)
		}
	})

	t.Run("invalid update rejected", func(t *testing.T) {
		f := newTestServer(t)

		rec := doJSON(t, f.handler, http.MethodPut, "/api/v1/settings",
			map[string]float64{"gate_open_duration": -1})
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want 400", rec.Code)
		}
		if f.repo.settings.GateOpenDuration != 3 {
			t.Errorf("stored GateOpenDuration = %v, want untouched 3", f.repo.settings.GateOpenDuration)
		}
	})
}

func TestHandleAlignment(t *testing.T) {
	f := newTestServer(t)

	rec := doJSON(t, f.handler, http.MethodPut, "/api/v1/settings/alignment",
		map[string]float64{"offset": -0.25})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if f.repo.settings.AlignmentOffset != -0.25 {
		t.Errorf("stored offset = %v, want -0.25", f.repo.settings.AlignmentOffset)
	}

	rec = doJSON(t, f.handler, http.MethodGet, "/api/v1/settings/alignment", nil)
	var body map[string]float64
	decodeBody(t, rec, &body)
	if body["offset"] != -0.25 {
		t.Errorf("offset = %v, want -0.25", body["offset"])
	}
}

func TestHandleBluetoothScan(t *testing.T) {
	t.Run("scan started", func(t *testing.T) {
		f := newTestServer(t)

		rec := doJSON(t, f.handler, http.MethodPost, "/api/v1/bluetooth/scan", nil)
		if rec.Code != http.StatusAccepted {
			t.Fatalf("status = %d, want 202", rec.Code)
		}
		if !f.scanner.called {
			t.Error("scanner not invoked")
		}
	})

	t.Run("overlapping scan maps to 409", func(t *testing.T) {
		f := newTestServer(t)
		f.scanner.err = bluetooth.ErrScanInProgress

		rec := doJSON(t, f.handler, http.MethodPost, "/api/v1/bluetooth/scan", nil)
		if rec.Code != http.StatusConflict {
			t.Fatalf("status = %d, want 409", rec.Code)
		}
	})
}

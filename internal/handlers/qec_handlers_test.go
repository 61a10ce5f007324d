package handlers

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/jaskrrish/Go-QEC/internal/models/qec"
	qeccore "github.com/jaskrrish/Go-QEC/internal/qec"
	"github.com/jaskrrish/Go-QEC/internal/qec/quantum"
	"github.com/jaskrrish/Go-QEC/internal/store"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	logger := zaptest.NewLogger(t)
	rm := qeccore.NewRunManager(store.NewMemoryStore(), qeccore.ManagerOptions{}, logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/", HomeHandler)
	mux.HandleFunc("/health", HealthHandler)
	NewQECHandler(rm, logger).Routes(mux)
	return LoggingMiddleware(logger, mux)
}

func do(t *testing.T, h http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeRun(t *testing.T, rec *httptest.ResponseRecorder) *qec.Run {
	t.Helper()
	var resp qec.RunResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.NotNil(t, resp.Run)
	return resp.Run
}

func TestHealthRoutes(t *testing.T) {
	h := newTestServer(t)

	for _, path := range []string{"/health", "/api/v1/qec/health", "/"} {
		rec := do(t, h, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	rec := do(t, h, http.MethodGet, "/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCodeHandler(t *testing.T) {
	h := newTestServer(t)

	rec := do(t, h, http.MethodGet, "/api/v1/qec/code", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "steane", body["name"])
	assert.Equal(t, 7.0, body["num_qubits"])
	assert.Equal(t, 3.0, body["distance"])
	assert.Equal(t, 16.0, body["table_size"])
	assert.Len(t, body["stabilizers"], 4)

	logicals := body["logical_operators"].([]interface{})
	require.Len(t, logicals, 2)
	assert.Equal(t, "X", logicals[0].(map[string]interface{})["type"])

	rec = do(t, h, http.MethodPost, "/api/v1/qec/code", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestRunLifecycle(t *testing.T) {
	h := newTestServer(t)
	seed := uint64(21)

	rec := do(t, h, http.MethodPost, "/api/v1/qec/runs", qec.RunCreateRequest{
		Circuit: []qec.GateSpec{{Gate: "h", Target: 0}},
		Trials:  10,
		Seed:    &seed,
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	run := decodeRun(t, rec)
	assert.Equal(t, qec.RunPending, run.Status)

	path := "/api/v1/qec/runs/" + run.RunID.String()

	rec = do(t, h, http.MethodGet, path, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, run.RunID, decodeRun(t, rec).RunID)

	rec = do(t, h, http.MethodPost, path+"/execute", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	executed := decodeRun(t, rec)
	assert.Equal(t, qec.RunCompleted, executed.Status)
	require.NotNil(t, executed.Stats)
	assert.Equal(t, 10, executed.Stats.Trials)

	rec = do(t, h, http.MethodPost, path+"/execute", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, h, http.MethodDelete, path, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, path, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRunErrors(t *testing.T) {
	h := newTestServer(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
	}{
		{"Bad body", http.MethodPost, "/api/v1/qec/runs", "not a request", http.StatusBadRequest},
		{"Bad gate", http.MethodPost, "/api/v1/qec/runs", qec.RunCreateRequest{Circuit: []qec.GateSpec{{Gate: "t"}}}, http.StatusBadRequest},
		{"Too many trials", http.MethodPost, "/api/v1/qec/runs", qec.RunCreateRequest{Trials: qec.MaxTrials + 1}, http.StatusBadRequest},
		{"Wrong method", http.MethodPut, "/api/v1/qec/runs", nil, http.StatusMethodNotAllowed},
		{"Body too large", http.MethodPost, "/api/v1/qec/runs", qec.RunCreateRequest{Label: strings.Repeat("a", 2<<20)}, http.StatusRequestEntityTooLarge},
		{"Bad ID", http.MethodGet, "/api/v1/qec/runs/not-a-uuid", nil, http.StatusBadRequest},
		{"Unknown run", http.MethodGet, "/api/v1/qec/runs/" + uuid.NewString(), nil, http.StatusNotFound},
		{"Execute unknown", http.MethodPost, "/api/v1/qec/runs/" + uuid.NewString() + "/execute", nil, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestVerifyHandler(t *testing.T) {
	h := newTestServer(t)

	state := quantum.New(7)
	require.NoError(t, state.ApplyGate(quantum.X(0)))
	data, err := state.MarshalBinary()
	require.NoError(t, err)
	stateHex := hex.EncodeToString(data)

	rec := do(t, h, http.MethodPost, "/api/v1/qec/verify", qec.VerifyRequest{
		StateHex: stateHex,
		Syndrome: []bool{false, false, true, false},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp qec.VerifyResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Consistent)
	require.NotNil(t, resp.Recovery)
	assert.Equal(t, "X0", resp.Recovery.String())

	rec = do(t, h, http.MethodPost, "/api/v1/qec/verify", qec.VerifyRequest{
		StateHex: stateHex,
		Syndrome: []bool{true, false, false, false},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	resp = qec.VerifyResponse{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.False(t, resp.Consistent)
	assert.NotEmpty(t, resp.Error)

	rec = do(t, h, http.MethodPost, "/api/v1/qec/verify", qec.VerifyRequest{
		StateHex: stateHex,
		Syndrome: []bool{true},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/api/v1/qec/verify", qec.VerifyRequest{Syndrome: []bool{true}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestVerifyHandlerRejects(t *testing.T) {
	h := newTestServer(t)

	small, err := quantum.New(3).MarshalBinary()
	require.NoError(t, err)

	tests := []struct {
		name   string
		req    qec.VerifyRequest
		status int
	}{
		{"Register smaller than code", qec.VerifyRequest{StateHex: hex.EncodeToString(small), Syndrome: []bool{false, false, false, false}}, http.StatusBadRequest},
		{"Not hex", qec.VerifyRequest{StateHex: "xyz", Syndrome: []bool{false, false, false, false}}, http.StatusBadRequest},
		{"Body too large", qec.VerifyRequest{StateHex: strings.Repeat("00", 1<<20), Syndrome: []bool{false, false, false, false}}, http.StatusRequestEntityTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, "/api/v1/qec/verify", tt.req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestListRunsHandler(t *testing.T) {
	h := newTestServer(t)
	seed := uint64(4)

	rec := do(t, h, http.MethodGet, "/api/v1/qec/runs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var list qec.RunListResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	assert.Equal(t, 0, list.Count)

	var ids []uuid.UUID
	for _, label := range []string{"first", "second"} {
		rec = do(t, h, http.MethodPost, "/api/v1/qec/runs", qec.RunCreateRequest{Label: label, Trials: 3, Seed: &seed})
		require.Equal(t, http.StatusCreated, rec.Code)
		ids = append(ids, decodeRun(t, rec).RunID)
	}
	rec = do(t, h, http.MethodPost, "/api/v1/qec/runs/"+ids[0].String()+"/execute", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h, http.MethodGet, "/api/v1/qec/runs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list = qec.RunListResponse{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&list))
	require.Equal(t, 2, list.Count)
	require.Len(t, list.Runs, 2)

	assert.Equal(t, ids[0], list.Runs[0].RunID)
	assert.Equal(t, "first", list.Runs[0].Label)
	assert.Equal(t, qec.RunCompleted, list.Runs[0].Status)
	require.NotNil(t, list.Runs[0].RecoveryRate)
	assert.Equal(t, 1.0, *list.Runs[0].RecoveryRate)

	assert.Equal(t, ids[1], list.Runs[1].RunID)
	assert.Equal(t, qec.RunPending, list.Runs[1].Status)
	assert.Nil(t, list.Runs[1].RecoveryRate)
}

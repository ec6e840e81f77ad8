package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/pbaille/katas/internal/clock"
	"github.com/pbaille/katas/internal/domain"
	"github.com/pbaille/katas/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticClock(body map[string]any, err error) clock.Fetcher {
	return clock.FetchFunc(func(context.Context) (map[string]any, error) {
		return body, err
	})
}

func newTestServer(t *testing.T, c clock.Fetcher) (*Server, *store.Store) {
	t.Helper()
	st, err := store.New(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(st, c, ":0", log), st
}

func do(t *testing.T, h http.Handler, method, path string, body []byte) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), "body: %s", w.Body.String())
	return w, out
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t, nil)
	w, out := do(t, s.Handler(), http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", out["status"])
}

func TestEncode(t *testing.T) {
	s, st := newTestServer(t, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/encode",
		bytes.NewBufferString(`{"labels":["Moscow","New York","Moscow","London"]}`))
	s.Handler().ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp EncodeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Width)
	assert.Equal(t, []domain.EncodedRow{
		{Label: "Moscow", Code: []int{0, 0, 1}},
		{Label: "New York", Code: []int{0, 1, 0}},
		{Label: "Moscow", Code: []int{0, 0, 1}},
		{Label: "London", Code: []int{1, 0, 0}},
	}, resp.Rows)
	require.NotEmpty(t, resp.RunID)

	run, err := st.GetRun(resp.RunID)
	require.NoError(t, err)
	assert.Equal(t, domain.KindEncode, run.Kind)
}

func TestEncode_NoSave(t *testing.T) {
	s, st := newTestServer(t, nil)

	w, out := do(t, s.Handler(), http.MethodPost, "/encode", []byte(`{"labels":["a"],"no_save":true}`))
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, out, "run_id")

	runs, err := st.ListRuns("", 10, 0)
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestEncode_BadRequests(t *testing.T) {
	s, _ := newTestServer(t, nil)

	for _, body := range []string{`{"labels":[]}`, `{}`, `{`} {
		w, out := do(t, s.Handler(), http.MethodPost, "/encode", []byte(body))
		assert.Equal(t, http.StatusBadRequest, w.Code, "body %s", body)
		assert.NotEmpty(t, out["error"])
	}
}

func TestYear(t *testing.T) {
	s, st := newTestServer(t, staticClock(map[string]any{"currentDateTime": "03.12.2021"}, nil))

	w, out := do(t, s.Handler(), http.MethodGet, "/year", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2021), out["year"])
	assert.Equal(t, "DD.MM.YYYY", out["format"])
	assert.Equal(t, "03.12.2021", out["raw"])

	runs, err := st.ListRuns(domain.KindYear, 10, 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, out["run_id"], runs[0].ID)
}

func TestYear_UpstreamErrors(t *testing.T) {
	tests := []struct {
		name string
		c    clock.Fetcher
		want string
	}{
		{"missing field", staticClock(map[string]any{"isDayLightSavingsTime": "2021-03-12"}, nil), "missing field"},
		{"invalid format", staticClock(map[string]any{"currentDateTime": "03-12-21"}, nil), "invalid format"},
		{"fetch failure", staticClock(nil, errors.New("dial tcp: refused")), "refused"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, st := newTestServer(t, tt.c)

			w, out := do(t, s.Handler(), http.MethodGet, "/year", nil)
			assert.Equal(t, http.StatusBadGateway, w.Code)
			assert.Contains(t, out["error"], tt.want)

			runs, err := st.ListRuns("", 10, 0)
			require.NoError(t, err)
			assert.Empty(t, runs)
		})
	}
}

func TestRuns_ListAndGet(t *testing.T) {
	s, st := newTestServer(t, nil)

	run, err := st.RecordEncode([]string{"x"}, []domain.EncodedRow{{Label: "x", Code: []int{1}}})
	require.NoError(t, err)

	w, out := do(t, s.Handler(), http.MethodGet, "/runs?kind=encode&limit=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(5), out["limit"])
	assert.Len(t, out["runs"], 1)

	w, out = do(t, s.Handler(), http.MethodGet, "/runs/"+run.ID[:8], nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, run.ID, out["id"])

	w, _ = do(t, s.Handler(), http.MethodGet, "/runs/ffffffff", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = do(t, s.Handler(), http.MethodGet, "/runs?kind=other", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRuns_EmptyListIsArray(t *testing.T) {
	s, _ := newTestServer(t, nil)

	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/runs", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"runs":[]`)
}

package api

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coocood/freecache"
	"github.com/gin-gonic/gin"
	"github.com/infigaming-com/dolar-feed/cache"
	"github.com/infigaming-com/dolar-feed/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// memoryReader serves FindRange from a fixed slice, like the SQL query would.
type memoryReader struct {
	points []store.RatePoint
	calls  atomic.Int32
	err    error
}

func (m *memoryReader) FindRange(ctx context.Context, start, end time.Time, limit int) ([]store.RatePoint, error) {
	m.calls.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	var out []store.RatePoint
	for _, p := range m.points {
		if !p.Fecha.Before(start) && !p.Fecha.After(end) {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Fecha.Before(out[j].Fecha) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func day(d int) time.Time {
	return time.Date(2024, 9, d, 0, 0, 0, 0, time.UTC)
}

func seededReader() *memoryReader {
	return &memoryReader{points: []store.RatePoint{
		{Fecha: day(13), Valor: 4030.1},
		{Fecha: day(11), Valor: 4015.2},
		{Fecha: day(12), Valor: 4020.5},
		{Fecha: day(20), Valor: 4100},
	}}
}

func newRouter(t *testing.T, reader RangeReader, opts ...ServiceOption) *gin.Engine {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>dolar</html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.js"), []byte("console.log(1)"), 0o644))

	r := gin.New()
	NewHandler(zap.NewNop(), NewRangeService(zap.NewNop(), reader, opts...), WithStaticDir(dir)).Register(r)
	return r
}

func postRange(r http.Handler, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/valores/rango", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

func TestHealthAndStatic(t *testing.T) {
	r := newRouter(t, seededReader())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok": true}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "dolar")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/static/app.js", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRange(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantDates  []string
		wantDetail string
	}{
		{
			name:       "ascending within bounds",
			body:       `{"start":"2024-09-11T00:00:00","end":"2024-09-13T00:00:00"}`,
			wantStatus: http.StatusOK,
			wantDates:  []string{"2024-09-11T00:00:00", "2024-09-12T00:00:00", "2024-09-13T00:00:00"},
		},
		{
			name:       "limit caps the result",
			body:       `{"start":"2024-09-01","end":"2024-09-30","limit":2}`,
			wantStatus: http.StatusOK,
			wantDates:  []string{"2024-09-11T00:00:00", "2024-09-12T00:00:00"},
		},
		{
			name:       "empty window",
			body:       `{"start":"2024-10-01","end":"2024-10-02"}`,
			wantStatus: http.StatusOK,
			wantDates:  []string{},
		},
		{
			name:       "end equal to start",
			body:       `{"start":"2024-09-11T00:00:00","end":"2024-09-11T00:00:00"}`,
			wantStatus: http.StatusBadRequest,
			wantDetail: "end debe ser > start",
		},
		{
			name:       "end before start",
			body:       `{"start":"2024-09-12","end":"2024-09-11"}`,
			wantStatus: http.StatusBadRequest,
			wantDetail: "end debe ser > start",
		},
		{
			name:       "zero limit",
			body:       `{"start":"2024-09-11","end":"2024-09-12","limit":0}`,
			wantStatus: http.StatusBadRequest,
			wantDetail: "limit debe ser > 0",
		},
		{
			name:       "missing end",
			body:       `{"start":"2024-09-11"}`,
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "bad timestamp",
			body:       `{"start":"ayer","end":"2024-09-12"}`,
			wantStatus: http.StatusUnprocessableEntity,
		},
		{
			name:       "not json",
			body:       `start=1`,
			wantStatus: http.StatusUnprocessableEntity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := seededReader()
			w := postRange(newRouter(t, reader), tt.body)
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())

			if tt.wantStatus != http.StatusOK {
				var body map[string]string
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
				assert.NotEmpty(t, body["detail"])
				if tt.wantDetail != "" {
					assert.Equal(t, tt.wantDetail, body["detail"])
				}
				assert.Zero(t, reader.calls.Load(), "rejected requests must not query")
				return
			}

			var resp RangeResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, len(resp.Items), resp.Count)
			dates := make([]string, 0, len(resp.Items))
			for _, item := range resp.Items {
				dates = append(dates, item.Fecha)
			}
			assert.Equal(t, tt.wantDates, dates)
		})
	}
}

func TestRangeEmptyItemsIsArray(t *testing.T) {
	w := postRange(newRouter(t, seededReader()), `{"start":"2030-01-01","end":"2030-01-02"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"count":0,"items":[]}`, w.Body.String())
}

func TestRangeValues(t *testing.T) {
	w := postRange(newRouter(t, seededReader()), `{"start":"2024-09-11","end":"2024-09-11T12:00:00"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"count":1,"items":[{"fecha":"2024-09-11T00:00:00","valor":4015.2}]}`, w.Body.String())
}

func TestRangeQueryFailure(t *testing.T) {
	reader := &memoryReader{err: errors.New("connection refused")}
	w := postRange(newRouter(t, reader), `{"start":"2024-09-11","end":"2024-09-12"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "connection refused")
}

func TestRangeCache(t *testing.T) {
	reader := seededReader()
	r := newRouter(t, reader, WithCache(cache.NewFreeCache(freecache.NewCache(1024*1024)), time.Minute))

	body := `{"start":"2024-09-11","end":"2024-09-30"}`
	first := postRange(r, body)
	second := postRange(r, body)
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, int32(1), reader.calls.Load())

	postRange(r, `{"start":"2024-09-11","end":"2024-09-30","limit":1}`)
	assert.Equal(t, int32(2), reader.calls.Load())
}

func TestRangeCacheDisabledWithZeroTTL(t *testing.T) {
	reader := seededReader()
	r := newRouter(t, reader, WithCache(cache.NewFreeCache(freecache.NewCache(1024*1024)), 0))

	body := `{"start":"2024-09-11","end":"2024-09-30"}`
	postRange(r, body)
	postRange(r, body)
	assert.Equal(t, int32(2), reader.calls.Load())
}

func TestExport(t *testing.T) {
	r := newRouter(t, seededReader())

	t.Run("csv", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/valores/export?start=2024-09-11&end=2024-09-12T12:00:00&format=csv", nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Disposition"), "dolar_20240911T000000_20240912T120000.csv")

		records, err := csv.NewReader(bytes.NewReader(w.Body.Bytes())).ReadAll()
		require.NoError(t, err)
		assert.Equal(t, [][]string{
			{"fecha", "valor"},
			{"2024-09-11T00:00:00", "4015.2"},
			{"2024-09-12T00:00:00", "4020.5"},
		}, records)
	})

	t.Run("pdf", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/valores/export?start=2024-09-01&end=2024-09-30&format=pdf", nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	})

	t.Run("excel", func(t *testing.T) {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/valores/export?start=2024-09-01&end=2024-09-30&format=excel", nil))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Disposition"), ".xlsx")
	})

	tcs := []struct {
		name  string
		query string
		want  int
	}{
		{name: "inverted range", query: "start=2024-09-12&end=2024-09-11", want: http.StatusBadRequest},
		{name: "unknown format", query: "start=2024-09-11&end=2024-09-12&format=docx", want: http.StatusBadRequest},
		{name: "missing start", query: "end=2024-09-12", want: http.StatusUnprocessableEntity},
		{name: "bad limit", query: "start=2024-09-11&end=2024-09-12&limit=abc", want: http.StatusUnprocessableEntity},
		{name: "negative limit", query: "start=2024-09-11&end=2024-09-12&limit=-1", want: http.StatusBadRequest},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/valores/export?"+tc.query, nil))
			assert.Equal(t, tc.want, w.Code, w.Body.String())
		})
	}
}

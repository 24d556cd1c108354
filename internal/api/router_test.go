package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"sma-forecast/internal/api/handlers"
	"sma-forecast/internal/api/models"
	"sma-forecast/internal/config"
	"sma-forecast/internal/data"
	"sma-forecast/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const snapshot = `[{"Date":"2019-01-02","Close":"250.18","Open":"245.98"},
{"Date":"2019-01-03","Close":"244.21","Open":"248.23"}]`

func newTestRouter(t *testing.T, src data.Source) (*gin.Engine, *metrics.Recorder) {
	t.Helper()
	rec := metrics.New()
	return NewRouter(Deps{
		Config:  &config.Config{Env: "test", Variants: config.DefaultVariants()},
		Source:  src,
		Metrics: rec,
		Logger:  zerolog.Nop(),
	}), rec
}

func do(r http.Handler, method, path string, header map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestGetDataStaticPassthrough(t *testing.T) {
	path := filepath.Join(t.TempDir(), "5-years.json")
	if err := os.WriteFile(path, []byte(snapshot), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	r, _ := newTestRouter(t, &data.FileSource{Path: path})

	w := do(r, http.MethodGet, "/data", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	if w.Body.String() != snapshot {
		t.Fatalf("body not passed through unmodified:\n%s", w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("content type = %q", ct)
	}
}

func TestGetSummary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "5-years.json")
	if err := os.WriteFile(path, []byte(snapshot), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	r, _ := newTestRouter(t, &data.FileSource{Path: path})

	w := do(r, http.MethodGet, "/summary", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var got struct {
		Count int     `json:"count"`
		Start string  `json:"start"`
		Max   float64 `json:"max"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Count != 2 || got.Start != "2019-01-02" || got.Max != 250.18 {
		t.Fatalf("unexpected summary %+v", got)
	}
}

func TestGetDataMissingFile(t *testing.T) {
	r, _ := newTestRouter(t, &data.FileSource{Path: filepath.Join(t.TempDir(), "nope.json")})

	w := do(r, http.MethodGet, "/data", nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	var body models.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != "DATA_LOAD_ERROR" {
		t.Fatalf("code = %s", body.Error.Code)
	}
}

func liveSource(t *testing.T, body string) data.Source {
	t.Helper()
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(upstream.Close)
	return &data.AlphaVantageSource{
		Client: data.NewAlphaVantageClient("demo", data.AlphaVantageOptions{BaseURL: upstream.URL}),
		Params: data.DailyParams{Symbol: "SPY", OutputSize: "compact"},
	}
}

func TestGetDataLiveSorted(t *testing.T) {
	src := liveSource(t, `{"Time Series (Daily)": {
		"2024-01-03": {"4. close": "468.79"},
		"2024-01-02": {"4. close": "472.65"}
	}}`)
	r, _ := newTestRouter(t, src)

	w := do(r, http.MethodGet, "/data", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body.String())
	}
	var got []map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0]["Date"] != "2024-01-02" || got[1]["Date"] != "2024-01-03" {
		t.Fatalf("records not sorted: %v", got)
	}
	if c, ok := got[0]["Close"].(float64); !ok || c != 472.65 {
		t.Fatalf("Close = %v, want numeric 472.65", got[0]["Close"])
	}
}

func TestGetDataLiveFailure(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		code   string
	}{
		{"invalid call", `{"Error Message": "Invalid API call."}`, http.StatusBadGateway, data.CodeInvalidQuery},
		{"rate limited", `{"Note": "call frequency"}`, http.StatusTooManyRequests, data.CodeRateLimited},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newTestRouter(t, liveSource(t, tt.body))
			w := do(r, http.MethodGet, "/data", nil)
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d", w.Code, tt.status)
			}
			var body models.ErrorResponse
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if body.Error.Code != tt.code {
				t.Fatalf("code = %s, want %s", body.Error.Code, tt.code)
			}
		})
	}
}

func TestCORSAnyOrigin(t *testing.T) {
	r, _ := newTestRouter(t, &data.FileSource{Path: "unused.json"})

	w := do(r, http.MethodGet, "/health", map[string]string{"Origin": "http://example.com"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("Access-Control-Allow-Origin = %q", got)
	}

	w = do(r, http.MethodOptions, "/data", map[string]string{
		"Origin":                        "http://example.com",
		"Access-Control-Request-Method": "GET",
	})
	if w.Code >= 300 {
		t.Fatalf("preflight status = %d", w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("preflight Access-Control-Allow-Origin = %q", got)
	}
}

func TestHealthVariantsAndMetrics(t *testing.T) {
	r, _ := newTestRouter(t, &data.FileSource{Path: "unused.json"})

	w := do(r, http.MethodGet, "/health", nil)
	var health models.HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &health); err != nil || health.Status != "ok" || health.Source != "file" {
		t.Fatalf("health = %+v, err %v", health, err)
	}

	w = do(r, http.MethodGet, "/variants", nil)
	var variants struct {
		Variants []models.VariantInfo `json:"variants"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &variants); err != nil {
		t.Fatalf("decode variants: %v", err)
	}
	if len(variants.Variants) != len(config.DefaultVariants()) {
		t.Fatalf("expected %d variants, got %d", len(config.DefaultVariants()), len(variants.Variants))
	}

	w = do(r, http.MethodGet, "/metrics", nil)
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), "smaf_http_requests_total") {
		t.Fatalf("metrics missing request counter:\n%s", w.Body.String())
	}
}

func TestPanicIsLoggedAndCounted(t *testing.T) {
	r, _ := newTestRouter(t, &data.FileSource{Path: "unused.json"})
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := do(r, http.MethodGet, "/boom", nil)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	var body models.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body.Error.Code != "INTERNAL_ERROR" {
		t.Fatalf("body = %s, err %v", w.Body.String(), err)
	}

	w = do(r, http.MethodGet, "/metrics", nil)
	if !strings.Contains(w.Body.String(), `route="/boom",status="500"`) {
		t.Fatalf("panicking request not recorded:\n%s", w.Body.String())
	}
}

func TestScatterDescriptionMatchesAxes(t *testing.T) {
	infos := handlers.DescribeVariants([]config.VariantConfig{{Name: "scatter", Kind: "scatter", WindowSize: 50}})
	if len(infos) != 1 || !strings.Contains(infos[0].Description, "closing price") {
		t.Fatalf("scatter description = %+v", infos)
	}
}

func TestNotFound(t *testing.T) {
	r, _ := newTestRouter(t, &data.FileSource{Path: "unused.json"})
	w := do(r, http.MethodGet, "/nope", nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d", w.Code)
	}
}

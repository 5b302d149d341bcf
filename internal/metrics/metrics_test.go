package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCollector_RegistersAll(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	require.NotNil(t, c)

	c.RecordRequest("GET", "/api/recipes", 200, 10*time.Millisecond)
	c.RecordLogin(LoginSuccess)
	c.RecordValidationFailure("ingredient")
	c.RecordSessionsCleaned(0)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool)
	for _, mf := range families {
		names[mf.GetName()] = true
	}
	for _, want := range []string{
		"recipebox_http_requests_total",
		"recipebox_http_request_duration_seconds",
		"recipebox_auth_logins_total",
		"recipebox_validation_failures_total",
		"recipebox_sessions_cleaned_total",
	} {
		assert.True(t, names[want], "metric %s not registered", want)
	}
}

func TestRecordRequest_LabelsByRoute(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())

	c.RecordRequest("GET", "/api/ingredients/{id}", 200, time.Millisecond)
	c.RecordRequest("GET", "/api/ingredients/{id}", 200, time.Millisecond)
	c.RecordRequest("GET", "/api/ingredients/{id}", 404, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.requests.WithLabelValues("GET", "/api/ingredients/{id}", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.requests.WithLabelValues("GET", "/api/ingredients/{id}", "404")))
}

func TestRecordLogin(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())

	c.RecordLogin(LoginSuccess)
	c.RecordLogin(LoginFailure)
	c.RecordLogin(LoginFailure)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.logins.WithLabelValues(LoginSuccess)))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.logins.WithLabelValues(LoginFailure)))
}

func TestRecordValidationFailure(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())

	c.RecordValidationFailure("recipe")

	assert.Equal(t, 1.0, testutil.ToFloat64(c.validationFailures.WithLabelValues("recipe")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.validationFailures.WithLabelValues("ingredient")))
}

func TestRecordSessionsCleaned(t *testing.T) {
	c := NewCollector(prometheus.NewRegistry())

	c.RecordSessionsCleaned(3)
	c.RecordSessionsCleaned(4)

	assert.Equal(t, 7.0, testutil.ToFloat64(c.sessionsCleaned))
}

func TestHandler_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordLogin(LoginSuccess)

	w := httptest.NewRecorder()
	Handler(reg).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	resp := w.Result()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `recipebox_auth_logins_total{result="success"} 1`))
}

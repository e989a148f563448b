package middleware

import (
	"bytes"
	"crypto/tls"
	"crypto/x509"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geni/gdpr-consent-api/internal/metrics"
	"github.com/geni/gdpr-consent-api/internal/utils"
)

const aliceURN = "urn:publicid:IDN+example.org+user+alice"

func init() {
	gin.SetMode(gin.TestMode)
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func tlsWithURIs(t *testing.T, uris ...string) *tls.ConnectionState {
	t.Helper()
	cert := &x509.Certificate{}
	for _, raw := range uris {
		u, err := url.Parse(raw)
		require.NoError(t, err)
		cert.URIs = append(cert.URIs, u)
	}
	return &tls.ConnectionState{PeerCertificates: []*x509.Certificate{cert}}
}

func TestCorrelationID_Generated(t *testing.T) {
	router := gin.New()
	router.Use(CorrelationID())
	var seen string
	router.GET("/x", func(c *gin.Context) {
		seen = utils.GetCorrelationIDFromContext(c)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.True(t, strings.HasPrefix(seen, "GDPR-"))
	assert.Equal(t, seen, w.Header().Get(CorrelationIDHeaderName))
}

func TestCorrelationID_Propagated(t *testing.T) {
	router := gin.New()
	router.Use(CorrelationID())
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	tests := []struct {
		header string
		value  string
		want   string
	}{
		{CorrelationIDHeaderName, "abc-123", "abc-123"},
		{"X-Request-ID", "req-1", "req-1"},
		{CorrelationIDHeaderName, strings.Repeat("a", maxCorrelationIDLength+1), ""},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.Header.Set(tt.header, tt.value)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if tt.want == "" {
			assert.True(t, strings.HasPrefix(w.Header().Get(CorrelationIDHeaderName), "GDPR-"))
		} else {
			assert.Equal(t, tt.want, w.Header().Get(CorrelationIDHeaderName))
		}
	}
}

func TestRequireUserURN(t *testing.T) {
	called := false
	router := gin.New()
	router.Use(RequireUserURN(quietLogger()))
	router.GET("/x", func(c *gin.Context) {
		called = true
		assert.Equal(t, aliceURN, utils.GetUserURNFromContext(c))
		c.Status(http.StatusOK)
	})

	tests := []struct {
		name       string
		state      *tls.ConnectionState
		wantStatus int
	}{
		{"no TLS", nil, http.StatusForbidden},
		{"no certificate", &tls.ConnectionState{}, http.StatusForbidden},
		{"no URN", tlsWithURIs(t, "https://example.org/alice"), http.StatusForbidden},
		{"URN present", tlsWithURIs(t, aliceURN), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called = false
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			req.TLS = tt.state
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantStatus == http.StatusOK, called)
			if tt.wantStatus == http.StatusForbidden {
				assert.Equal(t, "Forbidden", w.Body.String())
				assert.Equal(t, "9", w.Header().Get("Content-Length"))
				assert.Equal(t, "text/plain", w.Header().Get("Content-Type"))
			}
		})
	}
}

func TestRequestMetrics(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	router := gin.New()
	router.Use(RequestMetrics(m))
	router.GET("/gdpr/accept", func(c *gin.Context) { c.Status(http.StatusOK) })

	for _, path := range []string{"/gdpr/accept", "/gdpr/accept", "/nowhere"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("/gdpr/accept", "GET", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues(unmatchedRoute, "GET", "404")))
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.JSONFormatter{})

	router := gin.New()
	router.Use(CorrelationID(), RequestLogger(logger))
	router.GET("/x", func(c *gin.Context) { c.Status(http.StatusTeapot) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(CorrelationIDHeaderName, "corr-1")
	router.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	assert.Contains(t, out, `"correlation_id":"corr-1"`)
	assert.Contains(t, out, `"status":418`)
	assert.Contains(t, out, `"level":"warning"`)
}

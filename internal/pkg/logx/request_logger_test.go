package logx

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnonymizeIP(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"203.0.113.77:5123", "203.0.113.0"},
		{"203.0.113.77", "203.0.113.0"},
		{"127.0.0.1:80", "127.0.0.1"},
		{"[2001:db8:1:2:3:4:5:6]:443", "2001:db8:1:2::"},
		{"not-an-ip", "unknown_ip"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, anonymizeIP(tt.in), tt.in)
	}
}

func TestRequestLogger_WritesAccessLineWithRequestContext(t *testing.T) {
	var buf bytes.Buffer
	prev := log.Logger
	log.Logger = zerolog.New(&buf)
	t.Cleanup(func() { log.Logger = prev })

	var inner *zerolog.Logger
	h := RequestLogger()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inner = FromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.RemoteAddr = "198.51.100.23:4000"
	h.ServeHTTP(httptest.NewRecorder(), req)

	require.NotNil(t, inner)
	assert.NotSame(t, Logger(), inner)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "warn", line["level"])
	assert.Equal(t, float64(http.StatusTeapot), line["status"])
	assert.Equal(t, "198.51.100.0", line["remote_ip"])
	assert.Equal(t, "/api/users", line["request_path"])
	assert.Equal(t, "http", line["component"])
}

func TestFromContext_FallsBackToGlobal(t *testing.T) {
	assert.Same(t, Logger(), FromContext(context.Background()))
}

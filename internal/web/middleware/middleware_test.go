package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/JonMunkholm/catalogimport/internal/logging"
)

func TestTrustedRealIP(t *testing.T) {
	tests := []struct {
		name    string
		trusted []string
		remote  string
		headers map[string]string
		want    string
	}{
		{
			name:    "untrusted proxy keeps remote",
			trusted: []string{"10.0.0.0/8"},
			remote:  "203.0.113.7:5555",
			headers: map[string]string{"X-Real-IP": "198.51.100.1"},
			want:    "203.0.113.7:5555",
		},
		{
			name:    "trusted proxy uses X-Real-IP",
			trusted: []string{"10.0.0.0/8"},
			remote:  "10.1.2.3:5555",
			headers: map[string]string{"X-Real-IP": "198.51.100.1"},
			want:    "198.51.100.1",
		},
		{
			name:    "trusted proxy uses first forwarded address",
			trusted: []string{"10.0.0.1"},
			remote:  "10.0.0.1:80",
			headers: map[string]string{"X-Forwarded-For": "198.51.100.9, 10.0.0.1"},
			want:    "198.51.100.9",
		},
		{
			name:    "invalid header ignored",
			trusted: []string{"10.0.0.0/8"},
			remote:  "10.1.2.3:5555",
			headers: map[string]string{"X-Real-IP": "not-an-ip"},
			want:    "10.1.2.3:5555",
		},
		{
			name:    "no trusted proxies",
			remote:  "10.1.2.3:5555",
			headers: map[string]string{"X-Real-IP": "198.51.100.1"},
			want:    "10.1.2.3:5555",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			h := TrustedRealIP(tt.trusted)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.RemoteAddr
			}))

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			h.ServeHTTP(httptest.NewRecorder(), req)

			if got != tt.want {
				t.Errorf("RemoteAddr = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLogger_RecordsStatusAndBytes(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	logging.SetupWriter(&buf, "info", "text")

	h := Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte("nope"))
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/import/reports", nil))

	out := buf.String()
	for _, want := range []string{"status=400", "bytes=4", "path=/api/import/reports"} {
		if !strings.Contains(out, want) {
			t.Errorf("log missing %q: %s", want, out)
		}
	}
}

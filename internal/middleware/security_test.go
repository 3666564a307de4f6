package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSecureHeaders(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name string
		hsts bool
		path string
		want map[string]string
	}{
		{
			name: "public route",
			path: "/sitemap.xml",
			want: map[string]string{
				"X-Content-Type-Options":    "nosniff",
				"X-Frame-Options":           "DENY",
				"Referrer-Policy":           "strict-origin-when-cross-origin",
				"Strict-Transport-Security": "",
				"Cache-Control":             "",
				"Content-Security-Policy":   "",
			},
		},
		{
			name: "api route",
			path: "/api/posts",
			want: map[string]string{
				"Cache-Control":           "no-store",
				"Content-Security-Policy": apiCSP,
			},
		},
		{
			name: "hsts enabled",
			hsts: true,
			path: "/health",
			want: map[string]string{
				"Strict-Transport-Security": "max-age=31536000; includeSubDomains",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			SecureHeaders(tt.hsts)(ok).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, tt.path, nil))

			for header, want := range tt.want {
				if got := rr.Header().Get(header); got != want {
					t.Errorf("%s: got %q, want %q", header, got, want)
				}
			}
		})
	}
}

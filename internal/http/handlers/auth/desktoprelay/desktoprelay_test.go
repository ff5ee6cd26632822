package desktoprelay

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestServeHTTP(t *testing.T) {
	tests := []struct {
		name          string
		target        string
		wantInBody    []string
		wantNotInBody []string
	}{
		{
			name:   "notion code relayed to provider path",
			target: "/auth/notion/callback?code=abc",
			wantInBody: []string{
				"http://127.0.0.1:19191/api/notion/auth/callback?code=abc",
			},
		},
		{
			name:   "google-calendar code relayed to provider path",
			target: "/auth/google-calendar/callback?code=xyz",
			wantInBody: []string{
				"http://127.0.0.1:19191/api/google-calendar/auth/callback?code=xyz",
			},
		},
		{
			name:   "provider error shown without local call",
			target: "/auth/notion/callback?error=access_denied",
			wantInBody: []string{
				"Authorization failed: access_denied",
			},
			wantNotInBody: []string{"http://127.0.0.1:19191"},
		},
		{
			name:   "error description preferred over code",
			target: "/auth/notion/callback?error=access_denied&error_description=User+cancelled",
			wantInBody: []string{
				"Authorization failed: User cancelled",
			},
			wantNotInBody: []string{"http://127.0.0.1:19191"},
		},
		{
			name:   "missing code shown as failure",
			target: "/auth/notion/callback",
			wantInBody: []string{
				"Authorization failed: no authorization code received",
			},
			wantNotInBody: []string{"http://127.0.0.1:19191"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := New(newNoopLogger(), "http://127.0.0.1:19191")
			router := chi.NewRouter()
			router.Get("/auth/{provider}/callback", handler.ServeHTTP)

			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)

			require.Equal(t, http.StatusOK, rr.Code)
			body := rr.Body.String()
			for _, want := range tt.wantInBody {
				assert.Contains(t, body, want)
			}
			for _, notWant := range tt.wantNotInBody {
				assert.NotContains(t, body, notWant)
			}
		})
	}
}

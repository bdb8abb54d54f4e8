package web

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestHandlerServesIndexAndAssets(t *testing.T) {
	h := Handler()

	for _, tc := range []struct {
		path string
		code int
		want string
	}{
		{"/", http.StatusOK, "<canvas"},
		{"/static/app.js", http.StatusOK, "WebSocket"},
		{"/static/style.css", http.StatusOK, "--cell"},
		{"/missing", http.StatusNotFound, ""},
	} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tc.path, nil))
		if rec.Code != tc.code {
			t.Errorf("GET %s: status %d, want %d", tc.path, rec.Code, tc.code)
			continue
		}
		if tc.want != "" && !strings.Contains(rec.Body.String(), tc.want) {
			t.Errorf("GET %s: body missing %q", tc.path, tc.want)
		}
	}
}

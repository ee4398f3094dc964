package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestRequestIDPropagates(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "abcd1234")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if seen != "abcd1234" || rec.Header().Get("X-Request-ID") != "abcd1234" {
		t.Errorf("request id = %q / %q", seen, rec.Header().Get("X-Request-ID"))
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "too-long-to-keep")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if len(seen) != 8 || seen == "too-long-to-keep" {
		t.Errorf("replacement id = %q", seen)
	}
}

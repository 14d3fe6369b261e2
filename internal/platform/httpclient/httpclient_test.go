package httpclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDo(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/fail" {
			http.Error(w, "nope", http.StatusBadGateway)
			return
		}
		var in map[string]string
		_ = json.NewDecoder(r.Body).Decode(&in)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"echo":   in["msg"],
			"header": r.Header.Get("X-Test"),
			"ct":     r.Header.Get("Content-Type"),
		})
	}))
	defer ts.Close()

	c, err := New(ts.URL+"/", 0)
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	var out map[string]string
	err = c.Do(context.Background(), Request{
		Method:  http.MethodPost,
		Path:    "echo",
		Headers: map[string]string{"X-Test": "1"},
		Body:    map[string]string{"msg": "hola"},
		Out:     &out,
	})
	if err != nil {
		t.Fatalf("do: %v", err)
	}
	if out["echo"] != "hola" || out["header"] != "1" || out["ct"] != "application/json" {
		t.Fatalf("unexpected response %+v", out)
	}

	err = c.Do(context.Background(), Request{Method: http.MethodGet, Path: "/fail"})
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusBadGateway || httpErr.Body != "nope" {
		t.Fatalf("expected HTTPError 502, got %v", err)
	}
}

func TestNew_RejectsBadURL(t *testing.T) {
	for _, raw := range []string{"", "idp.local", "ftp://idp.local"} {
		if _, err := New(raw, 0); err == nil {
			t.Fatalf("%q: expected error", raw)
		}
	}
}

package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestConnectivityOnline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	c := NewConnectivity(server.URL, time.Second)
	if !c.Online(context.Background()) {
		t.Error("expected online for a 204 response")
	}
}

func TestConnectivityOfflineOnServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := NewConnectivity(server.URL, time.Second)
	if c.Online(context.Background()) {
		t.Error("expected offline for a 500 response")
	}
}

func TestConnectivityOfflineOnDialFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	c := NewConnectivity(url, time.Second)
	if c.Online(context.Background()) {
		t.Error("expected offline when the endpoint is unreachable")
	}
}

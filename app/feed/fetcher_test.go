package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHTTPFetcher_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua != "Charity Comb/test" {
			t.Errorf("Expected User-Agent header, got %q", ua)
		}
		w.Write([]byte("<html>ok</html>"))
	}))
	defer server.Close()

	fetcher := NewHTTPFetcher(server.Client(), "Charity Comb/test", 5*time.Second, 0)

	data, err := fetcher.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if string(data) != "<html>ok</html>" {
		t.Errorf("Expected body, got %q", data)
	}
}

func TestHTTPFetcher_Fetch_HTTPError(t *testing.T) {
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	fetcher := NewHTTPFetcher(server.Client(), "test", 5*time.Second, 0)

	if _, err := fetcher.Fetch(context.Background(), server.URL); err == nil {
		t.Errorf("Expected error for non-2xx status")
	}
	if requests != 1 {
		t.Errorf("Expected exactly one request, got %d", requests)
	}
}

func TestHTTPFetcher_Fetch_Delay(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	delay := 100 * time.Millisecond
	fetcher := NewHTTPFetcher(server.Client(), "test", 5*time.Second, delay)

	start := time.Now()
	for range 2 {
		if _, err := fetcher.Fetch(context.Background(), server.URL); err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
	}

	if elapsed := time.Since(start); elapsed < delay {
		t.Errorf("Expected requests to be spaced by %v, took %v", delay, elapsed)
	}
}

func TestHTTPFetcher_Fetch_CancelledDuringDelay(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer server.Close()

	fetcher := NewHTTPFetcher(server.Client(), "test", 5*time.Second, time.Hour)
	if _, err := fetcher.Fetch(context.Background(), server.URL); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := fetcher.Fetch(ctx, server.URL); err == nil {
		t.Errorf("Expected context error while waiting")
	}
}

func TestHTTPFetcher_Fetch_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	fetcher := NewHTTPFetcher(server.Client(), "test", 50*time.Millisecond, 0)

	if _, err := fetcher.Fetch(context.Background(), server.URL); err == nil {
		t.Errorf("Expected timeout error")
	}
}

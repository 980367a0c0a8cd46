package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/janpfeifer/GoPeaks/internal/levels"
)

func TestServerRun(t *testing.T) {
	// Use a background context that we can cancel
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	started := make(chan *ServerState, 1)
	errCh := make(chan error, 1)
	go func() {
		errCh <- Run(ctx, Config{}, started)
	}()
	s := <-started

	// The root page is prerendered by go-app; the app name should be in it.
	resp, err := http.Get("http://" + s.Address + "/")
	if err != nil {
		t.Fatalf("Failed to connect to server: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status OK, got %v", resp.Status)
	}
	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read body: %v", err)
	}
	if body := string(bodyBytes); !strings.Contains(body, "GoPeaks") {
		t.Errorf("Expected body to contain 'GoPeaks', got body: %s", body)
	}

	// Cancel the context to stop the server
	cancel()

	// Wait for the server to shutdown cleanly
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Server shut down with error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Errorf("Server took too long to shut down")
	}
}

func TestHealthz(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	started := make(chan *ServerState, 1)
	go func() {
		_ = Run(ctx, Config{}, started)
	}()
	s := <-started

	resp, err := http.Get("http://" + s.Address + "/healthz")
	if err != nil {
		t.Fatalf("Failed to connect to server: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status OK, got %v", resp.Status)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `"ok":true`) {
		t.Errorf("Unexpected health body: %s", body)
	}
}

func TestLevelsEndpoint(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	started := make(chan *ServerState, 1)
	go func() {
		_ = Run(ctx, Config{}, started)
	}()
	s := <-started

	resp, err := http.Get("http://" + s.Address + "/api/levels")
	if err != nil {
		t.Fatalf("Failed to connect to server: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status OK, got %v", resp.Status)
	}

	var infos []levels.Info
	if err := json.NewDecoder(resp.Body).Decode(&infos); err != nil {
		t.Fatalf("Failed to decode level list: %v", err)
	}
	if len(infos) != 3 {
		t.Fatalf("Expected 3 embedded levels, got %d", len(infos))
	}
	for i, info := range infos {
		if info.ID != i+1 {
			t.Errorf("Level %d has id %d, want %d", i, info.ID, i+1)
		}
		if info.Playfield == 0 && info.Stock == 0 {
			t.Errorf("Level %d reports no cards", info.ID)
		}
	}
}

package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cropdoc/internal/diagnose"
	"cropdoc/internal/services"
)

func TestExtractFeatures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/features" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("authorization = %q", got)
		}
		var req extractRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Crop != "tomato" || len(req.Images) != 1 {
			t.Errorf("request = %+v", req)
		}
		json.NewEncoder(w).Encode(extractResponse{
			Features: map[string]float64{
				"Dark_Spots": 0.82,
				"wilting":    -0.5,
				"mold":       1.7,
			},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key")
	features, err := client.ExtractFeatures(context.Background(), diagnose.CropTomato,
		[]diagnose.Image{{Filename: "leaf.jpg", Data: []byte{0xff, 0xd8, 0xff}}})
	if err != nil {
		t.Fatalf("ExtractFeatures: %v", err)
	}
	if got := features["dark_spots"]; got != 0.82 {
		t.Errorf("dark_spots = %v, want 0.82 (names lowercased)", got)
	}
	if got := features["wilting"]; got != 0 {
		t.Errorf("wilting = %v, want clamped to 0", got)
	}
	if got := features["mold"]; got != 1 {
		t.Errorf("mold = %v, want clamped to 1", got)
	}
}

func TestExtractFeaturesNoImages(t *testing.T) {
	client := NewClient("http://unused.invalid", "")
	features, err := client.ExtractFeatures(context.Background(), diagnose.CropTomato, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(features) != 0 {
		t.Errorf("features = %v, want empty", features)
	}
}

func TestExtractFeaturesServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(server.URL, "")
	_, err := client.ExtractFeatures(context.Background(), diagnose.CropTomato,
		[]diagnose.Image{{Filename: "a.jpg", Data: []byte{1}}})
	if !errors.Is(err, services.ErrUnavailable) {
		t.Errorf("expected unavailable marker, got %v", err)
	}
}

func TestExtractFeaturesDeadlineYieldsTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	client := NewClient(server.URL, "")
	_, err := client.ExtractFeatures(ctx, diagnose.CropTomato,
		[]diagnose.Image{{Filename: "a.jpg", Data: []byte{1}}})
	if !errors.Is(err, services.ErrTimeout) {
		t.Errorf("expected timeout marker, got %v", err)
	}
}

func TestExtractFeaturesNoEndpoint(t *testing.T) {
	client := NewClient("", "")
	_, err := client.ExtractFeatures(context.Background(), diagnose.CropTomato,
		[]diagnose.Image{{Filename: "a.jpg", Data: []byte{1}}})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Errorf("expected configuration marker, got %v", err)
	}
}

func TestHealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/health" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	if err := NewClient(server.URL, "").HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}
}

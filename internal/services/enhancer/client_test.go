package enhancer

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"cropdoc/internal/services"
)

func chatContent(t *testing.T, content string) []byte {
	t.Helper()
	payload := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
	}
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}

func testRequest() EnhanceRequest {
	return EnhanceRequest{
		Crop:     "tomato",
		Symptoms: "темні водянисті плями на листках",
		Candidates: []CandidateContext{
			{DiseaseID: "kb:tomato:late_blight", Disease: "Фітофтороз томата", Score: 0.78, Symptoms: "темні плями"},
		},
	}
}

func TestEnhance(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer key" {
			t.Errorf("authorization = %q", got)
		}
		var req chatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("messages = %+v", req.Messages)
		}
		if !strings.Contains(req.Messages[1].Content, "late_blight") {
			t.Errorf("user prompt missing candidate context: %s", req.Messages[1].Content)
		}
		w.Write(chatContent(t, `{"rationales": {"kb:tomato:late_blight": "Збігаються темні водянисті плями.  "}}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "key", BaseURL: server.URL, Model: "test-model"})
	got, err := client.Enhance(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("Enhance: %v", err)
	}
	want := "Збігаються темні водянисті плями."
	if got.Rationales["kb:tomato:late_blight"] != want {
		t.Errorf("rationale = %q, want %q", got.Rationales["kb:tomato:late_blight"], want)
	}
}

func TestEnhanceRetriesServerError(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "overloaded", http.StatusServiceUnavailable)
			return
		}
		w.Write(chatContent(t, `{"rationales": {"kb:tomato:late_blight": "ok"}}`))
	}))
	defer server.Close()

	var slept []time.Duration
	client := NewClient(Config{APIKey: "key", BaseURL: server.URL},
		WithSleeper(func(d time.Duration) { slept = append(slept, d) }))

	if _, err := client.Enhance(context.Background(), testRequest()); err != nil {
		t.Fatalf("Enhance: %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
	if len(slept) != 1 {
		t.Errorf("sleeps = %v, want one backoff", slept)
	}
}

func TestEnhanceDoesNotRetryClientError(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "key", BaseURL: server.URL},
		WithSleeper(func(time.Duration) {}))
	if _, err := client.Enhance(context.Background(), testRequest()); err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestEnhanceRequiresAPIKey(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://unused.invalid"})
	if _, err := client.Enhance(context.Background(), testRequest()); err == nil {
		t.Fatal("expected error for missing api key")
	}
}

func TestEnhanceHonorsContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write(chatContent(t, `{"rationales": {}}`))
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	client := NewClient(Config{APIKey: "key", BaseURL: server.URL})
	_, err := client.Enhance(ctx, testRequest())
	if err == nil {
		t.Fatal("expected context deadline error")
	}
	if !errors.Is(err, services.ErrTimeout) {
		t.Errorf("expected timeout marker on deadline failure, got %v", err)
	}
}

func TestDecodeModelJSON(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{name: "clean", content: `{"rationales": {"a": "b"}}`},
		{name: "code fence", content: "```json\n{\"rationales\": {\"a\": \"b\"}}\n```"},
		{name: "prose wrapper", content: "Here you go: {\"rationales\": {\"a\": \"b\"}} hope it helps"},
		{name: "empty", content: "", wantErr: true},
		{name: "not json", content: "cannot comply", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var parsed Enhancement
			err := DecodeModelJSON(tt.content, &parsed)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeModelJSON: %v", err)
			}
			if parsed.Rationales["a"] != "b" {
				t.Errorf("rationales = %v", parsed.Rationales)
			}
		})
	}
}

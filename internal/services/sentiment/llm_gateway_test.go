package sentiment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"PriceCast/internal/domain/models"
)

func chatServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer key" {
			t.Errorf("unexpected auth header %q", got)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.MaxTokens != 10 || len(req.Messages) != 2 {
			t.Errorf("unexpected request %+v", req)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
}

func reply(content string) string {
	b, _ := json.Marshal(map[string]interface{}{
		"choices": []map[string]interface{}{{"message": map[string]string{"role": "assistant", "content": content}}},
	})
	return string(b)
}

func gateway(url string) *LLMGateway {
	return NewLLMGateway(LLMConfig{BaseURL: url, APIKey: "key", Timeout: 2 * time.Second}, nil)
}

func TestScoreFromText(t *testing.T) {
	tests := []struct {
		name     string
		status   int
		body     string
		want     float64
		degraded bool
	}{
		{"plain number", http.StatusOK, reply("0.42"), 0.42, false},
		{"clamped high", http.StatusOK, reply("3.5"), 1, false},
		{"clamped low", http.StatusOK, reply(" -7 "), -1, false},
		{"malformed content", http.StatusOK, reply("fairly bullish"), 0, true},
		{"malformed json", http.StatusOK, "{not json", 0, true},
		{"no choices", http.StatusOK, `{"choices":[]}`, 0, true},
		{"server error", http.StatusInternalServerError, "boom", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := chatServer(t, tt.status, tt.body)
			defer srv.Close()

			got := gateway(srv.URL).ScoreFromText(context.Background(), []string{"BTC rallies"})
			if got.Score != tt.want {
				t.Fatalf("score = %v, want %v", got.Score, tt.want)
			}
			if got.Degraded != tt.degraded {
				t.Fatalf("degraded = %v, want %v (%+v)", got.Degraded, tt.degraded, got)
			}
			if !tt.degraded && got.Source != models.SentimentSourceLLM {
				t.Fatalf("source = %q", got.Source)
			}
		})
	}
}

func TestScoreFromTextWithoutInputOrKey(t *testing.T) {
	g := NewLLMGateway(LLMConfig{BaseURL: "http://127.0.0.1:1"}, nil)
	if got := g.ScoreFromText(context.Background(), []string{"x"}); !got.Degraded || got.Reason != "not_configured" {
		t.Fatalf("expected not_configured fallback, got %+v", got)
	}
	g = gateway("http://127.0.0.1:1")
	if got := g.ScoreFromText(context.Background(), []string{" ", ""}); !got.Degraded || got.Reason != "no_text" {
		t.Fatalf("expected no_text fallback, got %+v", got)
	}
}

func TestParseScore(t *testing.T) {
	cases := map[string]float64{"0.5": 0.5, "\"-0.25\"": -0.25, "1.": 1, "0.3.": 0.3}
	for in, want := range cases {
		got, err := ParseScore(in)
		if err != nil || got != want {
			t.Fatalf("ParseScore(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseScore("NaN-ish"); err == nil {
		t.Fatalf("expected error")
	}
}

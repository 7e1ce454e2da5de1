package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestEmbed(t *testing.T) {
	var gotAuth string
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"data": []map[string]interface{}{
				{"embedding": []float32{0.1, 0.2}, "index": 0},
				{"embedding": []float32{0.3, 0.4}, "index": 1},
			},
		})
	}))
	defer srv.Close()

	c := NewClient("sk-test", "text-embedding-3-small", 5*time.Second)
	c.baseURL = srv.URL

	vecs, err := c.Embed(context.Background(), []string{"one", "two"})
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vecs) != 2 || len(vecs[0]) != 2 || vecs[1][1] != 0.4 {
		t.Fatalf("unexpected vectors %v", vecs)
	}
	if gotAuth != "Bearer sk-test" {
		t.Fatalf("authorization header = %q", gotAuth)
	}
	if gotBody["model"] != "text-embedding-3-small" {
		t.Fatalf("model not sent: %v", gotBody)
	}
	inputs, ok := gotBody["input"].([]interface{})
	if !ok || len(inputs) != 2 || inputs[0] != "one" {
		t.Fatalf("inputs not sent: %v", gotBody["input"])
	}
}

func TestEmbedEmptyInput(t *testing.T) {
	c := NewClient("sk-test", "text-embedding-3-small", time.Second)

	vecs, err := c.Embed(context.Background(), nil)
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if vecs != nil {
		t.Fatalf("empty input must make no request, got %v", vecs)
	}
}

func TestEmbedAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient("sk-test", "text-embedding-3-small", time.Second)
	c.baseURL = srv.URL

	if _, err := c.Embed(context.Background(), []string{"x"}); err == nil {
		t.Fatalf("expected error on non-200 status")
	}
}

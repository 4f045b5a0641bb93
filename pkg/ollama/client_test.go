package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/desarrollo-Urbani/Visor-leads-urbani/models"
)

func testConfig(url string) models.OllamaConfig {
	cfg := models.DefaultConfig().Ollama
	cfg.URL = url
	return cfg
}

func TestGenerate(t *testing.T) {
	var got generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("path = %q, want /api/generate", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Errorf("method = %q, want POST", r.Method)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]string{"response": "Resumen: cliente interesado.\nFIN"})
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	out, err := c.Generate(context.Background(), "hola")
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if !strings.Contains(out, "Resumen: cliente interesado.") {
		t.Errorf("Generate() = %q", out)
	}

	if got.Model != "llama3.2:latest" {
		t.Errorf("request model = %q", got.Model)
	}
	if got.Stream {
		t.Error("request stream should be false")
	}
	if got.KeepAlive != "20m" {
		t.Errorf("request keep_alive = %q", got.KeepAlive)
	}
	if got.Options.NumPredict != 280 {
		t.Errorf("request num_predict = %d", got.Options.NumPredict)
	}
	if len(got.Options.Stop) != 1 || got.Options.Stop[0] != "FIN" {
		t.Errorf("request stop = %v", got.Options.Stop)
	}
}

func TestGenerate_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	if _, err := c.Generate(context.Background(), "hola"); err == nil {
		t.Fatal("Generate() expected error on 404")
	} else if !strings.Contains(err.Error(), "404") {
		t.Errorf("error should carry status code, got %v", err)
	}
}

func TestGenerate_Unreachable(t *testing.T) {
	c := NewClient(testConfig("http://127.0.0.1:1"))
	if _, err := c.Generate(context.Background(), "hola"); err == nil {
		t.Fatal("Generate() expected error when server is down")
	}
}

func TestPing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Ollama is running"))
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	if err := c.Ping(context.Background()); err != nil {
		t.Errorf("Ping() error = %v", err)
	}

	down := NewClient(testConfig("http://127.0.0.1:1"))
	if err := down.Ping(context.Background()); err == nil {
		t.Error("Ping() expected error when server is down")
	}
}

func TestWarmup(t *testing.T) {
	var got generateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		json.NewEncoder(w).Encode(map[string]string{"response": "OK"})
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	if err := c.Warmup(context.Background()); err != nil {
		t.Fatalf("Warmup() error = %v", err)
	}
	if got.Options.NumPredict != 5 {
		t.Errorf("warmup num_predict = %d, want 5", got.Options.NumPredict)
	}
	if got.Options.Temperature != 0 {
		t.Errorf("warmup temperature = %v, want 0", got.Options.Temperature)
	}
}

func TestEnsureReady_Recovers(t *testing.T) {
	fails := 1
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fails > 0 {
			fails--
			conn, _, err := w.(http.Hijacker).Hijack()
			if err == nil {
				conn.Close()
			}
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(testConfig(srv.URL))
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := c.EnsureReady(ctx); err != nil {
		t.Errorf("EnsureReady() error = %v", err)
	}
}

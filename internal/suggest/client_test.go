package suggest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"testing"

	"github.com/google/logger"
)

func TestMain(m *testing.M) {
	l := logger.Init("suggest_test", false, false, io.Discard)
	code := m.Run()
	l.Close()
	os.Exit(code)
}

// fakeUpstream returns a client pointed at a stub generative API.
func fakeUpstream(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient("test-key", "test-model")
	c.baseURL = srv.URL
	return c
}

func candidateBody(text string) string {
	quoted, _ := json.Marshal(text)
	return `{"candidates":[{"content":{"parts":[{"text":` + string(quoted) + `}]}}]}`
}

func TestGiftIdeas(t *testing.T) {
	t.Run("no api key serves the fallback trio", func(t *testing.T) {
		c := NewClient("", "test-model")
		ideas := c.GiftIdeas(context.Background(), "Alice", "novels")
		if !reflect.DeepEqual(ideas, FallbackIdeas()) {
			t.Errorf("Expected fallback ideas, got %+v", ideas)
		}
	})

	t.Run("parses upstream suggestions", func(t *testing.T) {
		c := fakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				t.Errorf("Expected POST, got %s", r.Method)
			}
			io.WriteString(w, candidateBody(`[{"title":"Star Atlas","description":"A coffee-table atlas of the night sky.","priceRange":"$30 - $40"}]`))
		})

		ideas := c.GiftIdeas(context.Background(), "Alice", "astronomy")
		if len(ideas) != 1 || ideas[0].Title != "Star Atlas" {
			t.Errorf("Unexpected ideas: %+v", ideas)
		}
	})

	t.Run("upstream failure is contained as the fallback", func(t *testing.T) {
		c := fakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "quota exceeded", http.StatusTooManyRequests)
		})

		ideas := c.GiftIdeas(context.Background(), "Alice", "novels")
		if !reflect.DeepEqual(ideas, FallbackIdeas()) {
			t.Errorf("Expected fallback ideas on upstream error, got %+v", ideas)
		}
	})

	t.Run("unparseable suggestion text falls back", func(t *testing.T) {
		c := fakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, candidateBody("sorry, no json today"))
		})

		ideas := c.GiftIdeas(context.Background(), "Alice", "novels")
		if !reflect.DeepEqual(ideas, FallbackIdeas()) {
			t.Errorf("Expected fallback ideas on bad payload, got %+v", ideas)
		}
	})
}

func TestGreeting(t *testing.T) {
	t.Run("no api key serves the fixed greeting", func(t *testing.T) {
		c := NewClient("", "test-model")
		got := c.Greeting(context.Background(), "Alice")
		if got != "Ho Ho Ho! Merry Christmas, Alice!" {
			t.Errorf("Unexpected fallback greeting: %q", got)
		}
	})

	t.Run("returns the upstream greeting trimmed", func(t *testing.T) {
		c := fakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, candidateBody("\nJingle all the way, Alice!\n"))
		})

		got := c.Greeting(context.Background(), "Alice")
		if got != "Jingle all the way, Alice!" {
			t.Errorf("Unexpected greeting: %q", got)
		}
	})

	t.Run("empty upstream text falls back", func(t *testing.T) {
		c := fakeUpstream(t, func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, candidateBody("   "))
		})

		got := c.Greeting(context.Background(), "Bob")
		if got != FallbackGreeting("Bob") {
			t.Errorf("Expected fallback greeting, got %q", got)
		}
	})
}

package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cliossg/sitesmith/pkg/cl/config"
	"github.com/cliossg/sitesmith/pkg/cl/logger"
	"github.com/go-chi/chi/v5"
)

type component struct {
	name     string
	startErr error
	events   *[]string
}

func (c *component) Start(context.Context) error {
	*c.events = append(*c.events, "start "+c.name)
	return c.startErr
}

func (c *component) Stop(context.Context) error {
	*c.events = append(*c.events, "stop "+c.name)
	return nil
}

func (c *component) RegisterRoutes(r chi.Router) {
	r.Get("/"+c.name, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestStartRegistersRoutes(t *testing.T) {
	var events []string
	a := &component{name: "a", events: &events}
	b := &component{name: "b", events: &events}

	r := chi.NewRouter()
	starts, stops, registrars := Setup(context.Background(), r, a, b)
	if err := Start(context.Background(), logger.NewNoopLogger(), starts, stops, registrars, r); err != nil {
		t.Fatalf("Start() error = %v", err)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/b", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}

	Stop(context.Background(), logger.NewNoopLogger(), stops)
	want := []string{"start a", "start b", "stop b", "stop a"}
	if len(events) != len(want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("events[%d] = %q, want %q", i, events[i], want[i])
		}
	}
}

func TestStartRollsBack(t *testing.T) {
	var events []string
	a := &component{name: "a", events: &events}
	b := &component{name: "b", events: &events, startErr: errors.New("boom")}

	r := chi.NewRouter()
	starts, stops, registrars := Setup(context.Background(), r, a, b)
	err := Start(context.Background(), logger.NewNoopLogger(), starts, stops, registrars, r)
	if err == nil {
		t.Fatal("expected start error")
	}

	want := []string{"start a", "start b", "stop a"}
	if len(events) != len(want) {
		t.Fatalf("events = %v, want %v", events, want)
	}
	for i := range want {
		if events[i] != want[i] {
			t.Errorf("events[%d] = %q, want %q", i, events[i], want[i])
		}
	}
}

func TestNewServerDefaults(t *testing.T) {
	srv := NewServer(http.NotFoundHandler(), config.ServerConfig{Addr: ":0", ReadTimeout: 3 * time.Second})

	if srv.ReadTimeout != 3*time.Second {
		t.Errorf("ReadTimeout = %v", srv.ReadTimeout)
	}
	if srv.WriteTimeout == 0 || srv.IdleTimeout == 0 {
		t.Error("zero timeouts should fall back to defaults")
	}
}

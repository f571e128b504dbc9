package sites_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cliossg/sitesmith/internal/feat/sites"
	"github.com/cliossg/sitesmith/internal/feat/sites/fake"
	"github.com/cliossg/sitesmith/pkg/cl/config"
	"github.com/cliossg/sitesmith/pkg/cl/logger"
	"github.com/cliossg/sitesmith/pkg/cl/validation"
)

func newTestService(store sites.Store) sites.Service {
	cfg := config.Default("dev")
	return sites.NewService(store, cfg, logger.NewNoopLogger())
}

func TestPublish(t *testing.T) {
	store := fake.NewStore()
	svc := newTestService(store)

	res, err := svc.Publish(context.Background(), sites.PublishRequest{
		Slug:  "My Portfolio!",
		Title: "Portfolio",
		HTML:  "<h1>Hi</h1>",
	})
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if !res.OK || res.Slug != "my-portfolio" || res.URL != "/u/my-portfolio/" {
		t.Errorf("Publish() = %+v", res)
	}
	if store.Len() != 1 {
		t.Errorf("stored sites = %d, want 1", store.Len())
	}
}

func TestPublishFallbackSlug(t *testing.T) {
	store := fake.NewStore()
	svc := newTestService(store)

	res, err := svc.Publish(context.Background(), sites.PublishRequest{HTML: "<p>x</p>"})
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if !sites.IsValidSlug(res.Slug) || len(res.Slug) < 8 {
		t.Errorf("fallback slug %q is not valid", res.Slug)
	}
	if got := store.Sites[res.Slug].Title; got != "Untitled" {
		t.Errorf("Title = %q, want default title", got)
	}
}

func TestPublishRejectsEmptyContent(t *testing.T) {
	store := fake.NewStore()
	store.Sites["demo"] = sites.NewSite("demo", "Old", "<p>old</p>", "", "")
	svc := newTestService(store)

	_, err := svc.Publish(context.Background(), sites.PublishRequest{Slug: "demo", Title: "New"})

	if !validation.IsValidation(err) {
		t.Fatalf("Publish() error = %v, want validation error", err)
	}
	if !strings.Contains(err.Error(), "empty content") {
		t.Errorf("error = %q", err.Error())
	}
	if len(store.UpsertCalls) != 0 {
		t.Error("store should not be touched")
	}
	if store.Sites["demo"].HTML != "<p>old</p>" {
		t.Error("existing record was modified")
	}
}

func TestPublishStorageError(t *testing.T) {
	store := fake.NewStore()
	store.UpsertErr = &sites.StorageError{Op: "upsert", Slug: "demo", Err: errors.New("disk full")}
	svc := newTestService(store)

	_, err := svc.Publish(context.Background(), sites.PublishRequest{Slug: "demo", HTML: "<p>x</p>"})
	if !sites.IsStorageError(err) {
		t.Errorf("Publish() error = %v, want StorageError", err)
	}
}

func TestPublishIdempotentSlug(t *testing.T) {
	ctx := context.Background()
	store := fake.NewStore()
	svc := newTestService(store)

	if _, err := svc.Publish(ctx, sites.PublishRequest{Slug: "demo", HTML: "<p>first</p>", JS: "first()"}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Publish(ctx, sites.PublishRequest{Slug: "demo", HTML: "<p>second</p>", JS: "second()"}); err != nil {
		t.Fatal(err)
	}

	got, err := svc.Fetch(ctx, "demo")
	if err != nil {
		t.Fatal(err)
	}
	if got.HTML != "<p>second</p>" || got.JS != "second()" {
		t.Errorf("Fetch() = %+v, want second payload", got)
	}
	if store.Len() != 1 {
		t.Errorf("stored sites = %d, want 1", store.Len())
	}
}

func TestServeRoundTrip(t *testing.T) {
	ctx := context.Background()
	backends := map[string]sites.Store{
		"memory": fake.NewStore(),
		"fs":     sites.NewFSStore(t.TempDir()),
	}

	for name, store := range backends {
		t.Run(name, func(t *testing.T) {
			svc := newTestService(store)
			if _, err := svc.Publish(ctx, sites.PublishRequest{Slug: "demo", Title: "T", HTML: "<p>body</p>", CSS: "p{}", JS: "run()"}); err != nil {
				t.Fatal(err)
			}

			page, err := svc.Serve(ctx, "demo")
			if err != nil {
				t.Fatalf("Serve() error = %v", err)
			}
			if !strings.Contains(page.Document, "<body>\n<p>body</p>") {
				t.Error("document body missing html fragment")
			}
			if !strings.Contains(page.Document, "<script>\nrun()\n</script>") {
				t.Error("document script missing js fragment")
			}
		})
	}
}

func TestServeNotFound(t *testing.T) {
	store := fake.NewStore()
	svc := newTestService(store)

	for _, slug := range []string{"nonexistent-slug", "../secret", "UPPER"} {
		page, err := svc.Serve(context.Background(), slug)
		if !errors.Is(err, sites.ErrNotFound) {
			t.Errorf("Serve(%q) error = %v, want ErrNotFound", slug, err)
		}
		if page != nil {
			t.Errorf("Serve(%q) returned a page", slug)
		}
	}
}

func TestServeStorageError(t *testing.T) {
	store := fake.NewStore()
	store.FetchErr = &sites.StorageError{Op: "fetch", Slug: "demo", Err: errors.New("db down")}
	svc := newTestService(store)

	_, err := svc.Serve(context.Background(), "demo")
	if !sites.IsStorageError(err) || errors.Is(err, sites.ErrNotFound) {
		t.Errorf("Serve() error = %v, want StorageError", err)
	}
}

func TestStartPingsStore(t *testing.T) {
	store := fake.NewStore()
	store.PingErr = errors.New("unreachable")
	svc := newTestService(store)

	if err := svc.Start(context.Background()); err == nil {
		t.Error("Start() should fail when the store is unreachable")
	}
}

func TestNewStore(t *testing.T) {
	tests := []struct {
		name    string
		backend string
		db      sites.DBProvider
		want    string
		wantErr bool
	}{
		{name: "fs", backend: "fs", want: "fs"},
		{name: "default", backend: "", want: "fs"},
		{name: "sqlite needs db", backend: "sqlite", wantErr: true},
		{name: "unknown", backend: "redis", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default("dev")
			cfg.Store.Backend = tt.backend
			cfg.Store.SitesPath = t.TempDir()

			store, err := sites.NewStore(cfg, tt.db)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewStore() error = %v", err)
			}
			if store.Backend() != tt.want {
				t.Errorf("Backend() = %q, want %q", store.Backend(), tt.want)
			}
		})
	}
}

package sites

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestFSStoreUpsertAndFetch(t *testing.T) {
	ctx := context.Background()
	store := NewFSStore(t.TempDir())

	site := NewSite("demo", "Demo", "<p>one</p>", "p{}", "one()")
	if err := store.Upsert(ctx, site); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}

	data, err := os.ReadFile(store.GetIndexPath("demo"))
	if err != nil {
		t.Fatalf("index.html not written: %v", err)
	}
	if string(data) != Render(site) {
		t.Error("stored document differs from rendered site")
	}

	got, err := store.Fetch(ctx, "demo")
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if got.Document != Render(site) {
		t.Error("fetched document differs from rendered site")
	}
	if got.UpdatedAt.IsZero() {
		t.Error("UpdatedAt not set from file modtime")
	}
}

func TestFSStoreLastWriteWins(t *testing.T) {
	ctx := context.Background()
	store := NewFSStore(t.TempDir())

	if err := store.Upsert(ctx, NewSite("demo", "", "<p>first</p>", "", "")); err != nil {
		t.Fatal(err)
	}
	if err := store.Upsert(ctx, NewSite("demo", "", "<p>second</p>", "", "")); err != nil {
		t.Fatal(err)
	}

	got, err := store.Fetch(ctx, "demo")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(got.Document, "first") || !strings.Contains(got.Document, "second") {
		t.Errorf("expected only second payload, got:\n%s", got.Document)
	}

	entries, err := os.ReadDir(store.GetSitePath("demo"))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != IndexFile {
		t.Errorf("site directory holds %d entries, want only %s", len(entries), IndexFile)
	}
}

func TestFSStoreFetchNotFound(t *testing.T) {
	store := NewFSStore(t.TempDir())

	for _, slug := range []string{"missing", "../etc", ""} {
		if _, err := store.Fetch(context.Background(), slug); !errors.Is(err, ErrNotFound) {
			t.Errorf("Fetch(%q) error = %v, want ErrNotFound", slug, err)
		}
	}
}

func TestFSStoreRejectsInvalidSlug(t *testing.T) {
	store := NewFSStore(t.TempDir())

	err := store.Upsert(context.Background(), NewSite("../escape", "", "<p>x</p>", "", ""))
	if !IsStorageError(err) {
		t.Errorf("Upsert() error = %v, want StorageError", err)
	}
}

func TestFSStoreWriteFailure(t *testing.T) {
	base := t.TempDir()
	// a regular file where the slug directory should go
	if err := os.WriteFile(filepath.Join(base, "demo"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	store := NewFSStore(base)

	err := store.Upsert(context.Background(), NewSite("demo", "", "<p>x</p>", "", ""))
	var se *StorageError
	if !errors.As(err, &se) {
		t.Fatalf("Upsert() error = %v, want *StorageError", err)
	}
	if se.Op != "upsert" || se.Slug != "demo" {
		t.Errorf("unexpected StorageError: %+v", se)
	}
}

func TestFSStoreConcurrentUpserts(t *testing.T) {
	ctx := context.Background()
	store := NewFSStore(t.TempDir())

	payloads := make([]string, 20)
	for i := range payloads {
		payloads[i] = Render(NewSite("race", fmt.Sprintf("t%d", i), fmt.Sprintf("<p>%d</p>", i), "", fmt.Sprintf("js%d()", i)))
	}

	var wg sync.WaitGroup
	for i := range payloads {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			site := NewSite("race", fmt.Sprintf("t%d", i), fmt.Sprintf("<p>%d</p>", i), "", fmt.Sprintf("js%d()", i))
			if err := store.Upsert(ctx, site); err != nil {
				t.Errorf("Upsert() error = %v", err)
			}
		}(i)
	}
	wg.Wait()

	got, err := store.Fetch(ctx, "race")
	if err != nil {
		t.Fatal(err)
	}

	matched := false
	for _, p := range payloads {
		if got.Document == p {
			matched = true
			break
		}
	}
	if !matched {
		t.Errorf("stored document is not one of the submitted payloads:\n%s", got.Document)
	}
}

func TestFSStorePing(t *testing.T) {
	base := filepath.Join(t.TempDir(), "nested", "sites")
	store := NewFSStore(base)

	if err := store.Ping(context.Background()); err != nil {
		t.Fatalf("Ping() error = %v", err)
	}
	if info, err := os.Stat(base); err != nil || !info.IsDir() {
		t.Error("Ping did not create the sites root")
	}
	if store.Backend() != "fs" {
		t.Errorf("Backend() = %q", store.Backend())
	}
}

package generate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cliossg/sitesmith/pkg/cl/config"
	"github.com/cliossg/sitesmith/pkg/cl/llm"
	"github.com/cliossg/sitesmith/pkg/cl/logger"
	"github.com/cliossg/sitesmith/pkg/cl/validation"
)

type fakeCompleter struct {
	configured bool
	calls      atomic.Int32
	complete   func(ctx context.Context, system, user string) (string, error)
}

func (f *fakeCompleter) IsConfigured() bool { return f.configured }

func (f *fakeCompleter) CompleteJSON(ctx context.Context, system, user string) (string, error) {
	f.calls.Add(1)
	return f.complete(ctx, system, user)
}

func newTestService(c Completer, timeout time.Duration) Service {
	cfg := config.Default("dev")
	cfg.LLM.Timeout = timeout
	return NewService(c, cfg, logger.NewNoopLogger())
}

func TestGenerateValidation(t *testing.T) {
	svc := newTestService(&fakeCompleter{}, time.Second)

	for _, prompt := range []string{"", "   ", strings.Repeat("x", 4001)} {
		_, err := svc.Generate(context.Background(), Request{Prompt: prompt})
		if !validation.IsValidation(err) {
			t.Errorf("Generate(len %d) error = %v, want validation error", len(prompt), err)
		}
	}
}

func TestGenerateWithoutKeyReturnsStub(t *testing.T) {
	c := &fakeCompleter{}
	svc := newTestService(c, time.Second)

	res, err := svc.Generate(context.Background(), Request{Prompt: "a bakery"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if !res.Fallback || res.Title != "a bakery" {
		t.Errorf("Generate() = %+v, want stub draft", res)
	}
	if c.calls.Load() != 0 {
		t.Error("upstream should not be called without a key")
	}
}

func TestGenerateSuccess(t *testing.T) {
	var gotUser string
	c := &fakeCompleter{configured: true, complete: func(_ context.Context, _, user string) (string, error) {
		gotUser = user
		return `{"title":"Bakery","html":"<h1>Bakery</h1>","css":"h1{}","js":"init()"}`, nil
	}}
	svc := newTestService(c, time.Second)

	res, err := svc.Generate(context.Background(), Request{Prompt: "a bakery", Variant: "minimal"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if res.Fallback || res.Title != "Bakery" || res.JS != "init()" {
		t.Errorf("Generate() = %+v", res)
	}
	if !strings.Contains(gotUser, "a bakery") || !strings.Contains(gotUser, "minimal") {
		t.Errorf("user prompt = %q", gotUser)
	}
}

func TestGenerateMalformedDegrades(t *testing.T) {
	c := &fakeCompleter{configured: true, complete: func(context.Context, string, string) (string, error) {
		return "I cannot do that <sorry>", nil
	}}
	svc := newTestService(c, time.Second)

	res, err := svc.Generate(context.Background(), Request{Prompt: "x"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if !res.Fallback || !strings.Contains(res.HTML, "I cannot do that &lt;sorry&gt;") {
		t.Errorf("Generate() = %+v", res)
	}
}

func TestGenerateTimeoutDegrades(t *testing.T) {
	c := &fakeCompleter{configured: true, complete: func(ctx context.Context, _, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	}}
	svc := newTestService(c, 20*time.Millisecond)

	res, err := svc.Generate(context.Background(), Request{Prompt: "slow"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if !res.Fallback || !strings.Contains(res.HTML, "did not answer within") {
		t.Errorf("Generate() = %+v", res)
	}
}

func TestGenerateCoalescesIdenticalRequests(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once

	c := &fakeCompleter{configured: true, complete: func(context.Context, string, string) (string, error) {
		once.Do(func() { close(entered) })
		<-release
		return `{"title":"T","html":"<p>t</p>"}`, nil
	}}
	svc := newTestService(c, time.Second)

	var wg sync.WaitGroup
	results := make([]*Result, 2)
	run := func(i int) {
		defer wg.Done()
		res, err := svc.Generate(context.Background(), Request{Prompt: "same"})
		if err != nil {
			t.Errorf("Generate() error = %v", err)
			return
		}
		results[i] = res
	}

	wg.Add(2)
	go run(0)
	<-entered
	go run(1)
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := c.calls.Load(); got != 1 {
		t.Errorf("upstream calls = %d, want 1", got)
	}
	for i, res := range results {
		if res == nil || res.Title != "T" {
			t.Errorf("result %d = %+v", i, res)
		}
	}
	if results[0] == results[1] {
		t.Error("callers should receive independent copies")
	}
}

func TestGenerateAgainstHTTPUpstream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"quota exceeded"}}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := llm.NewClient(llm.Options{APIKey: "k", BaseURL: srv.URL, Model: "m"})
	svc := newTestService(client, time.Second)

	res, err := svc.Generate(context.Background(), Request{Prompt: "x"})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if !res.Fallback || !strings.Contains(res.HTML, "quota exceeded") {
		t.Errorf("Generate() = %+v", res)
	}
}

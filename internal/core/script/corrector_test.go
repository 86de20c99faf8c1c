package script

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type fakeService struct {
	out   string
	err   error
	calls []string
}

func (f *fakeService) Transliterate(_ context.Context, text string) (string, error) {
	f.calls = append(f.calls, text)
	return f.out, f.err
}

func TestCorrectFallsBackWhenServiceUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	endpoint := srv.URL
	srv.Close()

	svc, err := NewGoogleService(endpoint, 200*time.Millisecond, nil)
	if err != nil {
		t.Fatalf("NewGoogleService: %v", err)
	}
	c := NewCorrector(nil, svc, 200*time.Millisecond, nil)

	got := c.Correct(context.Background(), "hari bol krishna\nbraj vās")
	want := "हरि बओल कृष्ण\nब्रज वास"
	if got != want {
		t.Fatalf("Correct = %q, want %q", got, want)
	}
}

func TestCorrectUsesService(t *testing.T) {
	svc := &fakeService{out: "ब्रजवास"}
	c := NewCorrector(nil, svc, time.Second, nil)
	got := c.Correct(context.Background(), "  braj vās  \n\nहरि बोल")
	if got != "ब्रजवास\n\nहरि बोल" {
		t.Fatalf("Correct = %q", got)
	}
	if len(svc.calls) != 1 || svc.calls[0] != "braj vās" {
		t.Fatalf("service calls = %q", svc.calls)
	}
}

func TestCorrectNormalisesBeforeClassifying(t *testing.T) {
	svc := &fakeService{err: errors.New("down")}
	c := NewCorrector(nil, svc, time.Second, nil)
	// "va" + combining macron + "s" composes to "vās".
	if got := c.Correct(context.Background(), "vās"); got != "वास" {
		t.Fatalf("Correct = %q", got)
	}
}

func TestCorrectLeavesOtherLines(t *testing.T) {
	svc := &fakeService{out: "never"}
	c := NewCorrector(nil, svc, time.Second, nil)
	in := "हरि बोल।\nhello world friends\n12345"
	if got := c.Correct(context.Background(), in); got != in {
		t.Fatalf("Correct = %q", got)
	}
	if len(svc.calls) != 0 {
		t.Fatalf("service should not be called, got %q", svc.calls)
	}
}

func TestPatchMixedKeepsDevanagari(t *testing.T) {
	c := NewCorrector(nil, nil, time.Second, nil)
	got := c.Correct(context.Background(), "कृपालु ji maharaj")
	if got != "कृपालु ji महाराज" {
		t.Fatalf("Correct = %q", got)
	}
	if !strings.HasPrefix(got, "कृपालु ") {
		t.Fatal("Devanagari word was altered")
	}

	if got := c.PatchMixed("हरिka बोल"); got != "हरिका बोल" {
		t.Fatalf("PatchMixed = %q", got)
	}
}

func TestTransliterateTimeout(t *testing.T) {
	blocking := serviceFunc(func(ctx context.Context, _ string) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})
	c := NewCorrector(nil, blocking, 30*time.Millisecond, nil)
	start := time.Now()
	got := c.Transliterate(context.Background(), "hari")
	if got != "हरि" {
		t.Fatalf("Transliterate = %q", got)
	}
	if time.Since(start) > 2*time.Second {
		t.Fatal("timeout not applied")
	}
}

type serviceFunc func(ctx context.Context, text string) (string, error)

func (f serviceFunc) Transliterate(ctx context.Context, text string) (string, error) {
	return f(ctx, text)
}

func TestCorrectKeepsNuktaBytes(t *testing.T) {
	svc := &fakeService{out: "never"}
	c := NewCorrector(nil, svc, time.Second, nil)
	padho := "\u092a\u095d\u094b"

	if got := c.Correct(context.Background(), padho+" "+padho+"।"); got != padho+" "+padho+"।" {
		t.Fatalf("Correct = % x", got)
	}
	if len(svc.calls) != 0 {
		t.Fatalf("service should not be called, got %q", svc.calls)
	}

	got := c.Correct(context.Background(), padho+" ji maharaj")
	if !strings.HasPrefix(got, padho+" ") {
		t.Fatalf("Devanagari word altered in mixed line: % x", got)
	}
	if !strings.HasSuffix(got, "महाराज") {
		t.Fatalf("Latin word not converted: %q", got)
	}
}

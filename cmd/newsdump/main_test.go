package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/kovalyov-valentin/news-easy-bot/internal/digest"
)

type fakeDigester struct {
	chunks []string
	err    error
}

func (d fakeDigester) Run(context.Context, digest.Mode) ([]string, error) {
	return d.chunks, d.err
}

func TestDump(t *testing.T) {
	var out bytes.Buffer

	if err := dump(context.Background(), fakeDigester{chunks: []string{"one", "two"}}, digest.ModeRecent, &out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "one\n\n────────\ntwo\n"
	if out.String() != want {
		t.Errorf("got %q, want %q", out.String(), want)
	}
}

func TestDumpEmptyAndFailed(t *testing.T) {
	var out bytes.Buffer

	if err := dump(context.Background(), fakeDigester{err: digest.ErrEmptyDigest}, digest.ModeToday, &out); err != nil {
		t.Fatalf("empty digest is not an error: %v", err)
	}
	if out.String() != "⚠️ Порожній результат.\n" {
		t.Errorf("unexpected output %q", out.String())
	}

	err := dump(context.Background(), fakeDigester{err: digest.ErrAllSourcesFailed}, digest.ModeToday, &out)
	if !errors.Is(err, digest.ErrAllSourcesFailed) {
		t.Errorf("expected ErrAllSourcesFailed, got %v", err)
	}
}

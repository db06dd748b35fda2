package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	markdown "github.com/alnah/go-markdown"
)

type failingPool struct{ err error }

func (p failingPool) Acquire() (*markdown.Markdown, error) { return nil, p.err }
func (failingPool) Release(*markdown.Markdown) {}
func (failingPool) Size() int { return 2 }

func TestConvertBatch(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	in := filepath.Join(dir, "a.md")
	if err := os.WriteFile(in, []byte("# Hi\n\nSome *text*."), 0o600); err != nil {
		t.Fatalf("setup: %v", err)
	}
	files := []FileToConvert{
		{InputPath: in, OutputPath: filepath.Join(dir, "out", "a.html")},
		{InputPath: filepath.Join(dir, "missing.md"), OutputPath: filepath.Join(dir, "out", "missing.html")},
	}

	pool, err := markdown.NewPool(2)
	if err != nil {
		t.Fatalf("NewPool() error = %v", err)
	}
	results := convertBatch(context.Background(), pool, files, &renderer{})

	if results[0].Err != nil {
		t.Fatalf("results[0].Err = %v", results[0].Err)
	}
	got, err := os.ReadFile(files[0].OutputPath)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if want := "<h1>Hi</h1>\n<p>Some <em>text</em>.</p>\n"; string(got) != want {
		t.Errorf("output = %q, want %q", got, want)
	}
	if !errors.Is(results[1].Err, ErrReadMarkdown) {
		t.Errorf("results[1].Err = %v, want ErrReadMarkdown", results[1].Err)
	}

	summary := countResults(results)
	if summary.Succeeded != 1 || summary.Failed != 1 || !errors.Is(summary.FirstErr, ErrReadMarkdown) {
		t.Errorf("summary = %+v", summary)
	}
}

func TestConvertBatch_AcquireError(t *testing.T) {
	t.Parallel()

	errBuild := errors.New("build failed")
	files := []FileToConvert{{InputPath: "a.md"}, {InputPath: "b.md"}, {InputPath: "c.md"}}

	results := convertBatch(context.Background(), failingPool{err: errBuild}, files, &renderer{})
	for i, r := range results {
		if !errors.Is(r.Err, errBuild) {
			t.Errorf("results[%d].Err = %v, want build error", i, r.Err)
		}
	}
}

func TestConvertBatch_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pool, err := markdown.NewPool(1)
	if err != nil {
		t.Fatalf("NewPool() error = %v", err)
	}
	results := convertBatch(ctx, pool, []FileToConvert{{InputPath: "a.md"}}, &renderer{})
	if !errors.Is(results[0].Err, context.Canceled) {
		t.Errorf("Err = %v, want context.Canceled", results[0].Err)
	}
}

func TestConvertBatch_Empty(t *testing.T) {
	t.Parallel()

	if got := convertBatch(context.Background(), failingPool{}, nil, &renderer{}); got != nil {
		t.Errorf("convertBatch(nil) = %v, want nil", got)
	}
}

func TestRenderer_Standalone(t *testing.T) {
	t.Parallel()

	md, err := markdown.New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	r := &renderer{standalone: true, css: "h1 { color: red }"}

	out, err := r.render(context.Background(), md, "# Title\n\ntext", "")
	if err != nil {
		t.Fatalf("render() error = %v", err)
	}
	page := string(out)
	for _, want := range []string{"<!DOCTYPE html>", "<title>Title</title>", "<style>h1 { color: red }</style>", "<h1>Title</h1>"} {
		if !strings.Contains(page, want) {
			t.Errorf("page missing %q:\n%s", want, page)
		}
	}
}

package pdf

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
)

type fakeRenderer struct {
	path    string
	content string
	err     error
	closed  bool
}

func (f *fakeRenderer) RenderFromFile(_ context.Context, filePath string) ([]byte, error) {
	f.path = filePath
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	f.content = string(data)
	if f.err != nil {
		return nil, f.err
	}
	return []byte("%PDF-1.4"), nil
}

func (f *fakeRenderer) Close() error {
	f.closed = true
	return nil
}

func TestConverter_ToPDF(t *testing.T) {
	t.Parallel()

	r := &fakeRenderer{}
	c := NewConverterWith(r)

	got, err := c.ToPDF(context.Background(), "<!DOCTYPE html><p>x</p>")
	if err != nil {
		t.Fatalf("ToPDF() error = %v", err)
	}
	if string(got) != "%PDF-1.4" {
		t.Errorf("ToPDF() = %q", got)
	}
	if r.content != "<!DOCTYPE html><p>x</p>" {
		t.Errorf("rendered file content = %q", r.content)
	}
	if !strings.HasSuffix(r.path, ".html") {
		t.Errorf("rendered file %q should have .html extension", r.path)
	}
	if _, err := os.Stat(r.path); !os.IsNotExist(err) {
		t.Errorf("temp file %q not removed", r.path)
	}

	if err := c.Close(); err != nil || !r.closed {
		t.Errorf("Close() error = %v, closed = %v", err, r.closed)
	}
}

func TestConverter_ToPDF_Error(t *testing.T) {
	t.Parallel()

	r := &fakeRenderer{err: ErrPageLoad}
	_, err := NewConverterWith(r).ToPDF(context.Background(), "<p>x</p>")
	if !errors.Is(err, ErrPageLoad) {
		t.Errorf("ToPDF() error = %v, want ErrPageLoad", err)
	}
	if _, statErr := os.Stat(r.path); !os.IsNotExist(statErr) {
		t.Errorf("temp file %q not removed after failure", r.path)
	}
}

func TestRodRenderer_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := newRodRenderer(0)
	if _, err := r.RenderFromFile(ctx, "/nonexistent.html"); !errors.Is(err, context.Canceled) {
		t.Errorf("RenderFromFile() error = %v, want context.Canceled", err)
	}
	if r.timeout != DefaultTimeout {
		t.Errorf("timeout = %v, want %v", r.timeout, DefaultTimeout)
	}
	if err := r.Close(); err != nil {
		t.Errorf("Close() on unused renderer error = %v", err)
	}
}

func TestPrintOptions(t *testing.T) {
	t.Parallel()

	opts := printOptions()
	if *opts.PaperWidth != 8.5 || *opts.PaperHeight != 11 {
		t.Errorf("paper = %vx%v, want 8.5x11", *opts.PaperWidth, *opts.PaperHeight)
	}
	for name, m := range map[string]*float64{
		"top": opts.MarginTop, "bottom": opts.MarginBottom,
		"left": opts.MarginLeft, "right": opts.MarginRight,
	} {
		if *m != 0.5 {
			t.Errorf("margin %s = %v, want 0.5", name, *m)
		}
	}
	if !opts.PrintBackground {
		t.Error("PrintBackground = false, want true")
	}
}

func TestNewConverterWith_NilPanics(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Error("NewConverterWith(nil) did not panic")
		}
	}()
	NewConverterWith(nil)
}

package main

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	markdown "github.com/alnah/go-markdown"
	"github.com/alnah/go-markdown/extensions/codehilite"
	"github.com/alnah/go-markdown/extensions/meta"
	"github.com/alnah/go-markdown/extensions/tables"
	"github.com/alnah/go-markdown/extensions/toc"
	"github.com/alnah/go-markdown/internal/config"
)

// ErrExtensionConfig reports an unknown key or a value of the wrong type
// in an extension's config block.
var ErrExtensionConfig = errors.New("invalid extension config")

// buildExtensions returns fresh extension values for one converter. The
// CLI calls it once per pooled converter since toc keeps per-document
// state.
func buildExtensions(exts []config.ExtensionConfig) ([]markdown.Extension, error) {
	out := make([]markdown.Extension, 0, len(exts))
	for _, ec := range exts {
		ext, err := buildExtension(ec)
		if err != nil {
			return nil, err
		}
		out = append(out, ext)
	}
	return out, nil
}

func buildExtension(ec config.ExtensionConfig) (markdown.Extension, error) {
	switch ec.Name {
	case config.ExtTables:
		return tables.New(), checkKeys(ec)
	case config.ExtMeta:
		return meta.New(), checkKeys(ec)
	case config.ExtCodeHilite:
		opts, err := codehiliteOptions(ec)
		if err != nil {
			return nil, err
		}
		return codehilite.New(opts...), nil
	case config.ExtTOC:
		opts, err := tocOptions(ec)
		if err != nil {
			return nil, err
		}
		return toc.New(opts...), nil
	default:
		return nil, fmt.Errorf("%w: unknown extension %q", ErrExtensionConfig, ec.Name)
	}
}

func codehiliteOptions(ec config.ExtensionConfig) ([]codehilite.Option, error) {
	if err := checkKeys(ec, "cssClass", "style", "lineNumbers", "guessLang", "noClasses"); err != nil {
		return nil, err
	}
	var opts []codehilite.Option
	if v, ok, err := stringValue(ec, "cssClass"); err != nil {
		return nil, err
	} else if ok {
		opts = append(opts, codehilite.WithCSSClass(v))
	}
	if v, ok, err := stringValue(ec, "style"); err != nil {
		return nil, err
	} else if ok {
		opts = append(opts, codehilite.WithStyle(v))
	}
	if v, ok, err := boolValue(ec, "lineNumbers"); err != nil {
		return nil, err
	} else if ok {
		opts = append(opts, codehilite.WithLineNumbers(v))
	}
	if v, ok, err := boolValue(ec, "guessLang"); err != nil {
		return nil, err
	} else if ok {
		opts = append(opts, codehilite.WithGuessLang(v))
	}
	if v, ok, err := boolValue(ec, "noClasses"); err != nil {
		return nil, err
	} else if ok && v {
		opts = append(opts, codehilite.WithNoClasses())
	}
	return opts, nil
}

func tocOptions(ec config.ExtensionConfig) ([]toc.Option, error) {
	if err := checkKeys(ec, "marker", "title"); err != nil {
		return nil, err
	}
	var opts []toc.Option
	if v, ok, err := stringValue(ec, "marker"); err != nil {
		return nil, err
	} else if ok {
		opts = append(opts, toc.WithMarker(v))
	}
	if v, ok, err := stringValue(ec, "title"); err != nil {
		return nil, err
	} else if ok {
		opts = append(opts, toc.WithTitle(v))
	}
	return opts, nil
}

// checkKeys rejects config keys outside allowed. Keys are reported in
// sorted order so the error is stable.
func checkKeys(ec config.ExtensionConfig, allowed ...string) error {
	var unknown []string
	for k := range ec.Config {
		if !slices.Contains(allowed, k) {
			unknown = append(unknown, k)
		}
	}
	if len(unknown) == 0 {
		return nil
	}
	sort.Strings(unknown)
	return fmt.Errorf("%w: %s: unknown key %q", ErrExtensionConfig, ec.Name, unknown[0])
}

func stringValue(ec config.ExtensionConfig, key string) (string, bool, error) {
	raw, ok := ec.Config[key]
	if !ok {
		return "", false, nil
	}
	s, ok := raw.(string)
	if !ok {
		return "", false, fmt.Errorf("%w: %s.%s must be a string, got %T", ErrExtensionConfig, ec.Name, key, raw)
	}
	return s, true, nil
}

func boolValue(ec config.ExtensionConfig, key string) (bool, bool, error) {
	raw, ok := ec.Config[key]
	if !ok {
		return false, false, nil
	}
	b, ok := raw.(bool)
	if !ok {
		return false, false, fmt.Errorf("%w: %s.%s must be a boolean, got %T", ErrExtensionConfig, ec.Name, key, raw)
	}
	return b, true, nil
}

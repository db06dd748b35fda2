package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	markdown "github.com/alnah/go-markdown"
	"github.com/alnah/go-markdown/extensions/codehilite"
	"github.com/alnah/go-markdown/internal/assets"
	"github.com/alnah/go-markdown/internal/config"
	"github.com/alnah/go-markdown/internal/document"
	"github.com/alnah/go-markdown/internal/pdf"
	"github.com/alnah/go-markdown/session"
)

// stdinArg is the positional argument that selects standard input.
const stdinArg = "-"

// ErrPDFStdout reports an attempt to write PDF bytes to a terminal stream.
var ErrPDFStdout = errors.New("PDF output from stdin requires --output")

// runConvert orchestrates the conversion process.
func runConvert(ctx context.Context, positionalArgs []string, flags *cliFlags, env *Environment, log logrus.FieldLogger) error {
	envCfg := loadEnvConfig(env)

	workers := flags.workers
	if !flags.changed["workers"] && envCfg.Workers > 0 {
		workers = envCfg.Workers
	}
	if err := validateWorkers(workers); err != nil {
		return err
	}

	timeout, err := resolveTimeout(flags.out.timeout, envCfg.Timeout)
	if err != nil {
		return err
	}

	// Load configuration
	cfg := config.DefaultConfig()
	configName := flags.config
	if configName == "" {
		configName = envCfg.ConfigPath
	}
	if configName != "" {
		cfg, err = config.LoadConfig(configName)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		log.WithField("config", configName).Debug("config loaded")
	}

	// Env fills gaps in the config file, then CLI flags win
	applyEnvConfig(envCfg, cfg)
	mergeFlags(flags, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	if len(positionalArgs) == 0 {
		return fmt.Errorf("%w: pass a file, a directory, or - for stdin", ErrNoInput)
	}

	opts := markdownOptions(cfg, log)
	newConverter := func() (*markdown.Markdown, error) {
		exts, err := buildExtensions(cfg.Extensions)
		if err != nil {
			return nil, err
		}
		return markdown.New(append(slices.Clone(opts), markdown.WithExtensions(exts...))...)
	}

	r := &renderer{
		standalone: cfg.Output.Standalone || cfg.Output.PDF,
		title:      cfg.Output.Title,
	}
	if r.standalone {
		if r.css, err = resolveCSS(cfg); err != nil {
			return err
		}
	}
	if cfg.Output.PDF {
		conv := pdf.NewConverter(timeout)
		defer func() {
			if err := conv.Close(); err != nil {
				log.WithError(err).Warn("closing browser")
			}
		}()
		r.pdf = conv
	}

	if slices.Contains(positionalArgs, stdinArg) {
		if len(positionalArgs) > 1 {
			return fmt.Errorf("%w: - cannot be combined with other inputs", ErrUsage)
		}
		return convertStdin(ctx, newConverter, r, flags.out.output, env)
	}

	outExt := ".html"
	if cfg.Output.PDF {
		outExt = ".pdf"
	}
	var files []FileToConvert
	for _, input := range positionalArgs {
		found, err := discoverFiles(input, cfg.Output.Dir, outExt)
		if err != nil {
			return fmt.Errorf("discovering files: %w", err)
		}
		files = append(files, found...)
	}
	if len(files) == 0 {
		return fmt.Errorf("%w: no markdown files found in %s", ErrNoInput, strings.Join(positionalArgs, ", "))
	}

	pool, err := markdown.NewPoolFunc(min(markdown.ResolvePoolSize(workers), len(files)), newConverter)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"files": len(files), "workers": pool.Size()}).Debug("converting")

	results := convertBatch(ctx, pool, files, r)

	summary := printResults(results, log)
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d conversions failed: %w", summary.Failed, len(results), summary.FirstErr)
	}
	return nil
}

// convertStdin converts standard input to output, or to stdout when output
// is empty.
func convertStdin(ctx context.Context, newConverter func() (*markdown.Markdown, error), r *renderer, output string, env *Environment) error {
	if r.pdf != nil && output == "" {
		return ErrPDFStdout
	}
	md, err := newConverter()
	if err != nil {
		return err
	}

	source, err := io.ReadAll(env.Stdin)
	if err != nil {
		return fmt.Errorf("%w: %v", markdown.ErrReadInput, err)
	}
	sourceDir, err := os.Getwd()
	if err != nil {
		sourceDir = ""
	}

	out, err := r.render(ctx, md, string(source), sourceDir)
	if err != nil {
		return err
	}

	if output == "" {
		if _, err := env.Stdout.Write(out); err != nil {
			return fmt.Errorf("%w: %v", markdown.ErrWriteOutput, err)
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(output), dirPermissions); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	// #nosec G306 -- outputs are meant to be readable
	if err := os.WriteFile(output, out, filePermissions); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteOutput, err)
	}
	return nil
}

// renderer turns one document into output bytes: a fragment, a standalone
// page, or a PDF.
type renderer struct {
	standalone bool
	css        string
	title      string
	pdf        *pdf.Converter
}

// render converts source with md. sourceDir anchors relative links when
// printing to PDF from a temp file.
func (r *renderer) render(ctx context.Context, md *markdown.Markdown, source, sourceDir string) ([]byte, error) {
	fragment, err := md.Convert(source)
	if err != nil {
		return nil, err
	}
	if !r.standalone {
		if fragment == "" {
			return nil, nil
		}
		return []byte(fragment + "\n"), nil
	}

	meta := md.Meta()
	opts := document.Options{Title: r.title, CSS: r.css}
	if opts.Title == "" {
		opts.Title, _ = meta["title"].(string)
	}
	opts.Lang, _ = meta["lang"].(string)
	if r.pdf != nil {
		opts.SourceDir = sourceDir
	}

	page, err := document.Build(fragment, opts)
	if err != nil {
		return nil, err
	}
	if r.pdf == nil {
		return []byte(page), nil
	}
	return r.pdf.ToPDF(ctx, page)
}

// resolveCSS returns the page stylesheet: the css file if set, else the
// built-in style, followed by the codehilite rules when that extension is
// enabled.
func resolveCSS(cfg *config.Config) (string, error) {
	var parts []string
	switch {
	case cfg.Output.CSS != "":
		data, err := os.ReadFile(cfg.Output.CSS) // #nosec G304 -- user-provided path
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrReadCSS, err)
		}
		parts = append(parts, string(data))
	case cfg.Output.Style != "":
		css, err := assets.LoadStyle(cfg.Output.Style)
		if err != nil {
			return "", err
		}
		parts = append(parts, css)
	}

	exts, err := buildExtensions(cfg.Extensions)
	if err != nil {
		return "", err
	}
	for _, ext := range exts {
		hl, ok := ext.(*codehilite.Extension)
		if !ok {
			continue
		}
		css, err := hl.CSS()
		if err != nil {
			return "", fmt.Errorf("%w: highlighting styles: %v", ErrExtensionConfig, err)
		}
		parts = append(parts, css)
	}
	return strings.Join(parts, "\n"), nil
}

// resolveTimeout returns the PDF page load timeout.
// Priority: flag > env > pdf.DefaultTimeout.
func resolveTimeout(flagValue string, envValue time.Duration) (time.Duration, error) {
	if flagValue != "" {
		d, err := time.ParseDuration(flagValue)
		if err != nil || d <= 0 {
			return 0, fmt.Errorf("%w: invalid --timeout %q (use e.g. 30s, 2m)", ErrUsage, flagValue)
		}
		return d, nil
	}
	if envValue > 0 {
		return envValue, nil
	}
	return pdf.DefaultTimeout, nil
}

// mergeFlags merges CLI flags into config. Only flags given on the
// command line override config values.
func mergeFlags(flags *cliFlags, cfg *config.Config) {
	set := flags.changed

	if set["output"] {
		cfg.Output.Dir = flags.out.output
	}
	if set["format"] {
		cfg.Output.Format = flags.out.format
	}
	if set["standalone"] {
		cfg.Output.Standalone = flags.out.standalone
	}
	if set["css"] {
		cfg.Output.CSS = flags.out.css
	}
	if set["style"] {
		cfg.Output.Style = flags.out.style
	}
	if flags.out.noStyle {
		cfg.Output.CSS, cfg.Output.Style = "", ""
	}
	if set["title"] {
		cfg.Output.Title = flags.out.title
	}
	if set["pdf"] {
		cfg.Output.PDF = flags.out.pdf
	}

	if set["safe-mode"] {
		cfg.Markdown.SafeMode = flags.markdown.safeMode
	}
	if set["tab-length"] {
		cfg.Markdown.TabLength = flags.markdown.tabLength
	}
	if set["no-lazy-ol"] {
		cfg.Markdown.LazyOL = boolPtr(!flags.markdown.noLazyOL)
	}
	if set["no-smart-emphasis"] {
		cfg.Markdown.SmartEmphasis = boolPtr(!flags.markdown.noSmartEmphasis)
	}
	if set["no-attributes"] {
		cfg.Markdown.EnableAttributes = boolPtr(!flags.markdown.noAttributes)
	}

	for _, name := range flags.markdown.extensions {
		enabled := slices.ContainsFunc(cfg.Extensions, func(e config.ExtensionConfig) bool {
			return e.Name == name
		})
		if !enabled {
			cfg.Extensions = append(cfg.Extensions, config.ExtensionConfig{Name: name})
		}
	}
}

// markdownOptions maps the config onto library options. Unset values keep
// the library defaults.
func markdownOptions(cfg *config.Config, log logrus.FieldLogger) []markdown.Option {
	mc := cfg.Markdown
	opts := []markdown.Option{markdown.WithLogger(log)}

	if cfg.Output.Format != "" {
		opts = append(opts, markdown.WithOutputFormat(cfg.Output.Format))
	}
	if mc.SafeMode != "" {
		opts = append(opts, markdown.WithSafeMode(session.SafeMode(mc.SafeMode)))
	}
	if mc.ReplacementText != "" {
		opts = append(opts, markdown.WithHTMLReplacementText(mc.ReplacementText))
	}
	if mc.TabLength > 0 {
		opts = append(opts, markdown.WithTabLength(mc.TabLength))
	}
	if mc.LazyOL != nil {
		opts = append(opts, markdown.WithLazyOL(*mc.LazyOL))
	}
	if mc.SmartEmphasis != nil {
		opts = append(opts, markdown.WithSmartEmphasis(*mc.SmartEmphasis))
	}
	if mc.EnableAttributes != nil {
		opts = append(opts, markdown.WithEnableAttributes(*mc.EnableAttributes))
	}
	return opts
}

func boolPtr(b bool) *bool { return &b }

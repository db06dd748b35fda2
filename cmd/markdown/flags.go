package main

import (
	"errors"
	"fmt"
	"io"

	flag "github.com/spf13/pflag"
)

// ErrUsage wraps flag parsing failures.
var ErrUsage = errors.New("invalid usage")

// markdownFlags holds the conversion option flags.
type markdownFlags struct {
	safeMode        string
	tabLength       int
	noLazyOL        bool
	noSmartEmphasis bool
	noAttributes    bool
	extensions      []string
}

// outputFlags holds flags deciding what is written and where.
type outputFlags struct {
	output     string
	format     string
	standalone bool
	css        string
	style      string
	noStyle    bool
	title      string
	pdf        bool
	timeout    string
}

// cliFlags holds every flag of the command.
type cliFlags struct {
	config   string
	quiet    bool
	verbose  bool
	version  bool
	workers  int
	markdown markdownFlags
	out      outputFlags

	// changed records the flags given on the command line, so that only
	// those override the config file.
	changed map[string]bool
}

// addMarkdownFlags adds conversion option flags to a FlagSet.
func addMarkdownFlags(fs *flag.FlagSet, f *markdownFlags) {
	fs.StringVar(&f.safeMode, "safe-mode", "", "raw HTML policy: replace, remove, escape")
	fs.IntVar(&f.tabLength, "tab-length", 0, "spaces per indentation level (0 = 4)")
	fs.BoolVar(&f.noLazyOL, "no-lazy-ol", false, "honour the first number of ordered lists")
	fs.BoolVar(&f.noSmartEmphasis, "no-smart-emphasis", false, "allow intra-word underscore emphasis")
	fs.BoolVar(&f.noAttributes, "no-attributes", false, "disable {@key=value} attributes")
	fs.StringArrayVarP(&f.extensions, "ext", "x", nil, "enable an extension: tables, meta, codehilite, toc (repeatable)")
}

// addOutputFlags adds output flags to a FlagSet.
func addOutputFlags(fs *flag.FlagSet, f *outputFlags) {
	fs.StringVarP(&f.output, "output", "o", "", "output file or directory")
	fs.StringVarP(&f.format, "format", "f", "", "output format: html4, html5, xhtml1, xhtml5")
	fs.BoolVarP(&f.standalone, "standalone", "s", false, "wrap output in a complete HTML page")
	fs.StringVar(&f.css, "css", "", "stylesheet file for standalone pages")
	fs.StringVar(&f.style, "style", "", "built-in style for standalone pages (default, minimal)")
	fs.BoolVar(&f.noStyle, "no-style", false, "inject no stylesheet")
	fs.StringVar(&f.title, "title", "", "page title (\"\" = first h1)")
	fs.BoolVar(&f.pdf, "pdf", false, "render standalone pages to PDF")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "PDF page load timeout (e.g., 30s, 2m)")
}

// parseFlags parses args (without the program name) and returns the
// positional arguments.
func parseFlags(args []string, stderr io.Writer) (*cliFlags, []string, error) {
	fs := flag.NewFlagSet("markdown", flag.ContinueOnError)
	fs.SetOutput(stderr)
	f := &cliFlags{}

	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show debug output")
	fs.BoolVar(&f.version, "version", false, "print version and exit")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel workers (0 = auto)")
	addMarkdownFlags(fs, &f.markdown)
	addOutputFlags(fs, &f.out)

	fs.Usage = func() { printUsage(stderr) }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, nil, err
		}
		return nil, nil, fmt.Errorf("%w: %v", ErrUsage, err)
	}

	f.changed = make(map[string]bool)
	fs.Visit(func(fl *flag.Flag) { f.changed[fl.Name] = true })

	return f, fs.Args(), nil
}

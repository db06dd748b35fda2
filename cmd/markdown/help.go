package main

import (
	"fmt"
	"io"
)

// printUsage prints the usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: markdown [flags] <file|dir|->...")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Convert Markdown to HTML. Directories are searched for .md and .markdown")
	fmt.Fprintln(w, "files; \"-\" reads standard input and writes standard output.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "  -o, --output <path>       Output file or directory")
	fmt.Fprintln(w, "  -f, --format <s>          Output format: html4, html5, xhtml1, xhtml5")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -w, --workers <n>         Parallel workers (0 = auto)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Conversion:")
	fmt.Fprintln(w, "      --safe-mode <s>       Raw HTML policy: replace, remove, escape")
	fmt.Fprintln(w, "      --tab-length <n>      Spaces per indentation level (default 4)")
	fmt.Fprintln(w, "      --no-lazy-ol          Honour the first number of ordered lists")
	fmt.Fprintln(w, "      --no-smart-emphasis   Allow intra-word underscore emphasis")
	fmt.Fprintln(w, "      --no-attributes       Disable {@key=value} attributes")
	fmt.Fprintln(w, "  -x, --ext <name>          Enable extension (repeatable):")
	fmt.Fprintln(w, "                            tables, meta, codehilite, toc")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Page:")
	fmt.Fprintln(w, "  -s, --standalone          Wrap output in a complete HTML page")
	fmt.Fprintln(w, "      --css <path>          Stylesheet inlined into standalone pages")
	fmt.Fprintln(w, "      --style <name>        Built-in style: default, minimal (ignored with --css)")
	fmt.Fprintln(w, "      --no-style            Inject no stylesheet")
	fmt.Fprintln(w, "      --title <s>           Page title (default: meta title, then first h1)")
	fmt.Fprintln(w, "      --pdf                 Render standalone pages to PDF (headless Chrome)")
	fmt.Fprintln(w, "  -t, --timeout <d>         PDF page load timeout (default 30s)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output:")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show debug output")
	fmt.Fprintln(w, "      --version             Print version and exit")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  MARKDOWN_CONFIG           Config file name or path")
	fmt.Fprintln(w, "  MARKDOWN_OUTPUT_DIR       Default output directory")
	fmt.Fprintln(w, "  MARKDOWN_TIMEOUT          PDF page load timeout")
	fmt.Fprintln(w, "  MARKDOWN_WORKERS          Parallel workers")
	fmt.Fprintln(w, "  ROD_BROWSER_BIN           Chrome binary used for --pdf")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Exit codes: 0 success, 1 error, 2 usage or config, 3 I/O, 4 browser")
}

package markdown

import (
	"context"
	"fmt"
	"io"
	"maps"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/alnah/go-markdown/blockparser"
	"github.com/alnah/go-markdown/etree"
	"github.com/alnah/go-markdown/inline"
	"github.com/alnah/go-markdown/internal/postprocess"
	"github.com/alnah/go-markdown/internal/preprocess"
	"github.com/alnah/go-markdown/internal/prettify"
	"github.com/alnah/go-markdown/registry"
	"github.com/alnah/go-markdown/serializer"
	"github.com/alnah/go-markdown/session"
)

// docTag wraps the parsed document and is stripped from the output.
const docTag = "div"

// Preprocessor rewrites the source lines before block parsing.
type Preprocessor interface {
	Run(s *session.Session, lines []string) []string
}

// TreeProcessor edits the parsed tree. A non-null return value replaces
// the root for the processors that follow.
type TreeProcessor interface {
	Run(s *session.Session, root etree.Node) etree.Node
}

// Postprocessor rewrites the serialized output.
type Postprocessor interface {
	Run(s *session.Session, text string) string
}

// Extension adds or rearranges registry entries. Extend runs once, from New.
type Extension interface {
	Extend(md *Markdown) error
}

// Resetter is implemented by extensions that keep per-document state.
type Resetter interface {
	Reset()
}

// Compile-time interface implementation checks.
var (
	_ Preprocessor  = (*preprocess.NormalizeWhitespace)(nil)
	_ Preprocessor  = (*preprocess.HTMLBlock)(nil)
	_ Preprocessor  = (*preprocess.Reference)(nil)
	_ TreeProcessor = (*inline.Processor)(nil)
	_ TreeProcessor = (*prettify.Processor)(nil)
	_ Postprocessor = (*postprocess.RawHTML)(nil)
	_ Postprocessor = (*postprocess.AmpSubstitute)(nil)
	_ Postprocessor = (*postprocess.Unescape)(nil)
)

// Markdown converts Markdown source to HTML. The registries are exported
// so extensions can add, insert and relocate stages. A Markdown is not
// safe for concurrent use; see Pool.
type Markdown struct {
	Preprocessors  *registry.Registry[Preprocessor]
	BlockHandlers  *registry.Registry[blockparser.Handler]
	InlinePatterns *registry.Registry[inline.Pattern]
	TreeProcessors *registry.Registry[TreeProcessor]
	Postprocessors *registry.Registry[Postprocessor]

	cfg     config
	format  serializer.Format
	log     logrus.FieldLogger
	session *session.Session
}

// New returns a converter configured by opts, with the extensions
// registered. It returns ErrInvalidOption for an out-of-range option and
// ErrExtension for an extension that fails to register.
func New(opts ...Option) (*Markdown, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	format, err := cfg.validate()
	if err != nil {
		return nil, err
	}

	md := &Markdown{cfg: cfg, format: format, log: cfg.log}
	if md.log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		md.log = l
	}
	md.buildRegistries()

	for _, ext := range cfg.extensions {
		if err := ext.Extend(md); err != nil {
			return nil, fmt.Errorf("%w: %T: %w", ErrExtension, ext, err)
		}
	}
	return md, nil
}

func (md *Markdown) buildRegistries() {
	opts := md.Options()

	md.Preprocessors = registry.New[Preprocessor]()
	md.Preprocessors.Append("normalize_whitespace", preprocess.NewNormalizeWhitespace())
	if opts.SafeMode != session.SafeEscape {
		md.Preprocessors.Append("html_block", preprocess.NewHTMLBlock())
	}
	md.Preprocessors.Append("reference", preprocess.NewReference())

	md.BlockHandlers = blockparser.Defaults(opts.TabLength, opts.LazyOL)
	md.InlinePatterns = inline.Defaults(opts)

	md.TreeProcessors = registry.New[TreeProcessor]()
	md.TreeProcessors.Append("inline", inline.NewProcessor(md.InlinePatterns, md.Serialize))
	md.TreeProcessors.Append("prettify", prettify.New())

	md.Postprocessors = registry.New[Postprocessor]()
	md.Postprocessors.Append("raw_html", postprocess.NewRawHTML())
	md.Postprocessors.Append("amp_substitute", postprocess.NewAmpSubstitute())
	md.Postprocessors.Append("unescape", postprocess.NewUnescape())
}

// Options returns the settings every conversion session starts with.
func (md *Markdown) Options() session.Options {
	return session.Options{
		TabLength:           md.cfg.tabLength,
		SafeMode:            md.cfg.safeMode,
		HTMLReplacementText: md.cfg.replacementText,
		EnableAttributes:    md.cfg.attributes,
		SmartEmphasis:       md.cfg.smartEmphasis,
		LazyOL:              md.cfg.lazyOL,
		EscapedChars:        session.DefaultEscapedChars,
	}
}

// Format returns the output format.
func (md *Markdown) Format() serializer.Format { return md.format }

// Logger returns the logger stages should use.
func (md *Markdown) Logger() logrus.FieldLogger { return md.log }

// Serialize writes n in the configured output format.
func (md *Markdown) Serialize(n etree.Node) string {
	if md.format == serializer.FormatXHTML {
		return serializer.XHTML(n)
	}
	return serializer.HTML(n)
}

// Convert turns source into an HTML fragment. Blank input gives an empty
// string. A logic fault in any stage is returned as ErrInternal.
func (md *Markdown) Convert(source string) (result string, err error) {
	defer func() {
		if r := recover(); r != nil {
			md.log.WithField("panic", r).Error("conversion aborted")
			result, err = "", fmt.Errorf("%w: %v", ErrInternal, r)
		}
	}()

	md.session = nil
	if strings.TrimSpace(source) == "" {
		return "", nil
	}

	s := session.New(md.Options(), md.log.WithField("component", "markdown"))
	md.session = s

	lines := strings.Split(source, "\n")
	for _, p := range md.Preprocessors.Snapshot() {
		lines = p.Run(s, lines)
	}

	parser := blockparser.New(md.BlockHandlers.Snapshot(), s)
	parser.SetMaxDepth(md.cfg.maxNesting)
	root := parser.ParseDocument(lines, docTag).Root()

	for _, tp := range md.TreeProcessors.Snapshot() {
		if n := tp.Run(s, root); !n.IsNull() {
			root = n
		}
	}

	output, err := stripTopLevel(md.Serialize(root))
	if err != nil {
		return "", err
	}
	for _, p := range md.Postprocessors.Snapshot() {
		output = p.Run(s, output)
	}
	return strings.TrimSpace(output), nil
}

// stripTopLevel removes the document tag around the serialized output.
func stripTopLevel(output string) (string, error) {
	open, closing := "<"+docTag+">", "</"+docTag+">"
	start := strings.Index(output, open)
	end := strings.LastIndex(output, closing)
	if start >= 0 && end >= start+len(open) {
		return strings.TrimSpace(output[start+len(open) : end]), nil
	}
	if strings.HasSuffix(strings.TrimSpace(output), "<"+docTag+" />") {
		return "", nil
	}
	return "", fmt.Errorf("%w: %.40q", ErrStripTopLevel, strings.TrimSpace(output))
}

// ConvertFile reads a document from in and writes its HTML to out. The
// context is checked before reading and before writing.
func (md *Markdown) ConvertFile(ctx context.Context, in io.Reader, out io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	source, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrReadInput, err)
	}

	html, err := md.Convert(string(source))
	if err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := io.WriteString(out, html); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteOutput, err)
	}
	return nil
}

// Reset forgets the last document and resets the extensions that keep
// per-document state.
func (md *Markdown) Reset() *Markdown {
	md.session = nil
	for _, ext := range md.cfg.extensions {
		if r, ok := ext.(Resetter); ok {
			r.Reset()
		}
	}
	return md
}

// Meta returns the front matter recorded by the last conversion, or nil.
func (md *Markdown) Meta() map[string]any {
	if md.session == nil || len(md.session.Meta) == 0 {
		return nil
	}
	return maps.Clone(md.session.Meta)
}

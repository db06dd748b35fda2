package markdown

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/alnah/go-markdown/blockparser"
	"github.com/alnah/go-markdown/serializer"
	"github.com/alnah/go-markdown/session"
)

// Option bounds and defaults.
const (
	MinTabLength     = 1
	MaxTabLength     = 16
	DefaultTabLength = 4

	DefaultHTMLReplacementText = "[HTML_REMOVED]"
)

// Option configures a Markdown instance.
type Option func(*config)

type config struct {
	format          string
	safeMode        session.SafeMode
	replacementText string
	tabLength       int
	lazyOL          bool
	smartEmphasis   bool
	attributes      bool
	maxNesting      int
	extensions      []Extension
	log             logrus.FieldLogger
}

func defaultConfig() config {
	return config{
		format:          "xhtml1",
		replacementText: DefaultHTMLReplacementText,
		tabLength:       DefaultTabLength,
		lazyOL:          true,
		smartEmphasis:   true,
		attributes:      true,
		maxNesting:      blockparser.DefaultMaxDepth,
	}
}

// validate checks every option and resolves the output format.
func (c *config) validate() (serializer.Format, error) {
	format, err := serializer.ParseFormat(c.format)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidOption, err)
	}
	if !c.safeMode.Valid() {
		return 0, fmt.Errorf("%w: safe mode %q", ErrInvalidOption, c.safeMode)
	}
	if c.tabLength < MinTabLength || c.tabLength > MaxTabLength {
		return 0, fmt.Errorf("%w: tab length %d (must be %d-%d)", ErrInvalidOption, c.tabLength, MinTabLength, MaxTabLength)
	}
	if c.maxNesting < 1 {
		return 0, fmt.Errorf("%w: max nesting %d", ErrInvalidOption, c.maxNesting)
	}
	for i, ext := range c.extensions {
		if ext == nil {
			return 0, fmt.Errorf("%w: extension %d is nil", ErrInvalidOption, i)
		}
	}
	return format, nil
}

// WithOutputFormat selects "html", "html4", "html5", "xhtml", "xhtml1" or
// "xhtml5". The default is XHTML.
func WithOutputFormat(name string) Option {
	return func(c *config) { c.format = name }
}

// WithSafeMode sets the policy for raw HTML found in the input.
func WithSafeMode(mode session.SafeMode) Option {
	return func(c *config) { c.safeMode = mode }
}

// WithHTMLReplacementText sets the text that stands for raw HTML under
// session.SafeReplace.
func WithHTMLReplacementText(text string) Option {
	return func(c *config) { c.replacementText = text }
}

// WithTabLength sets the width of one indentation level.
func WithTabLength(n int) Option {
	return func(c *config) { c.tabLength = n }
}

// WithLazyOL makes ordered lists ignore their first number. Disabling it
// writes a start attribute for lists that do not start at 1.
func WithLazyOL(enabled bool) Option {
	return func(c *config) { c.lazyOL = enabled }
}

// WithSmartEmphasis keeps underscores inside words literal.
func WithSmartEmphasis(enabled bool) Option {
	return func(c *config) { c.smartEmphasis = enabled }
}

// WithEnableAttributes turns on the {@key=value} attribute directive.
func WithEnableAttributes(enabled bool) Option {
	return func(c *config) { c.attributes = enabled }
}

// WithMaxNesting bounds how deeply block constructs may nest.
func WithMaxNesting(n int) Option {
	return func(c *config) { c.maxNesting = n }
}

// WithExtensions registers extensions, in order.
func WithExtensions(exts ...Extension) Option {
	return func(c *config) { c.extensions = append(c.extensions, exts...) }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(log logrus.FieldLogger) Option {
	return func(c *config) { c.log = log }
}

package codehilite

import (
	"slices"
	"strings"
	"testing"

	markdown "github.com/alnah/go-markdown"
)

func TestParse(t *testing.T) {
	t.Parallel()

	on, off := true, false
	tests := []struct {
		name        string
		lineNumbers *bool
		in          string
		wantSource  string
		wantLang    string
		wantNumbers bool
	}{
		{"colons", nil, ":::Go\nx := 1\n", "x := 1\n", "go", false},
		{"shebang", nil, "#!python\nprint(1)\n", "print(1)\n", "python", true},
		{"shebang with path", nil, "#!/usr/bin/sh\necho\n", "#!/usr/bin/sh\necho\n", "sh", true},
		{"shebang numbers forced off", &off, "#!python\nx\n", "x\n", "python", false},
		{"numbers forced on", &on, "plain\n", "plain\n", "", true},
		{"no language line", nil, "x = 1\n", "x = 1\n", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			e := New()
			e.lineNumbers = tt.lineNumbers
			got := e.parse(tt.in)
			if got.source != tt.wantSource {
				t.Errorf("source = %q, want %q", got.source, tt.wantSource)
			}
			if got.lang != tt.wantLang {
				t.Errorf("lang = %q, want %q", got.lang, tt.wantLang)
			}
			if got.lineNumbers != tt.wantNumbers {
				t.Errorf("lineNumbers = %v, want %v", got.lineNumbers, tt.wantNumbers)
			}
		})
	}
}

func TestExtension(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		ext     *Extension
		opts    []markdown.Option
		in      string
		want    []string
		notWant []string
	}{
		{
			name:    "go block",
			ext:     New(),
			in:      "Code:\n\n    :::go\n    func main() {}",
			want:    []string{"<p>Code:</p>\n<div class=\"codehilite\">", `class="kd"`, "main"},
			notWant: []string{":::go", "<p><div"},
		},
		{
			name:    "plain text escaped",
			ext:     New(WithGuessLang(false)),
			in:      "    <b>bold</b>",
			want:    []string{"&lt;b&gt;bold&lt;/b&gt;"},
			notWant: []string{"<b>"},
		},
		{
			name: "custom class",
			ext:  New(WithCSSClass("hl")),
			in:   "    :::go\n    var x int",
			want: []string{`<div class="hl">`},
		},
		{
			name: "kept under escape mode",
			ext:  New(),
			opts: []markdown.Option{markdown.WithSafeMode("escape")},
			in:   "    :::go\n    var x int",
			want: []string{`<div class="codehilite">`},
		},
		{
			name:    "fenced text untouched",
			ext:     New(),
			in:      "no code here",
			want:    []string{"<p>no code here</p>"},
			notWant: []string{"codehilite"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			md, err := markdown.New(append(tt.opts, markdown.WithExtensions(tt.ext))...)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			got, err := md.Convert(tt.in)
			if err != nil {
				t.Fatalf("Convert() error = %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("Convert(%q) = %q, missing %q", tt.in, got, w)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(got, w) {
					t.Errorf("Convert(%q) = %q, unexpected %q", tt.in, got, w)
				}
			}
		})
	}
}

func TestExtension_Position(t *testing.T) {
	t.Parallel()

	md, err := markdown.New(markdown.WithExtensions(New()))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if got := md.TreeProcessors.Keys(); !slices.Equal(got, []string{"hilite", "inline", "prettify"}) {
		t.Errorf("TreeProcessors = %v", got)
	}
}

func TestExtension_CSS(t *testing.T) {
	t.Parallel()

	css, err := New().CSS()
	if err != nil {
		t.Fatalf("CSS() error = %v", err)
	}
	if !strings.Contains(css, ".chroma") {
		t.Errorf("CSS() = %q, missing .chroma rules", css)
	}
}

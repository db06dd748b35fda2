package main

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

// testEnv returns an Environment reading stdin from the given string and
// seeing only vars.
func testEnv(stdin string, vars map[string]string) (*Environment, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	env := &Environment{
		Stdin:  strings.NewReader(stdin),
		Stdout: &stdout,
		Stderr: &stderr,
		Getenv: func(k string) string { return vars[k] },
		Environ: func() []string {
			out := make([]string, 0, len(vars))
			for k, v := range vars {
				out = append(out, k+"="+v)
			}
			return out
		},
	}
	return env, &stdout, &stderr
}

func discardLogger() *logrus.Logger {
	return newLogger(io.Discard, false, false)
}

func TestDefaultEnv(t *testing.T) {
	t.Parallel()

	env := DefaultEnv()
	if env.Stdin == nil || env.Stdout == nil || env.Stderr == nil {
		t.Error("DefaultEnv() has nil streams")
	}
	if env.Getenv == nil || env.Environ == nil {
		t.Error("DefaultEnv() has nil environment accessors")
	}
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		quiet, verbose bool
		want           logrus.Level
	}{
		{"default is info", false, false, logrus.InfoLevel},
		{"quiet shows errors only", true, false, logrus.ErrorLevel},
		{"verbose shows debug", false, true, logrus.DebugLevel},
		{"verbose wins over quiet", true, true, logrus.DebugLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := newLogger(io.Discard, tt.quiet, tt.verbose).GetLevel(); got != tt.want {
				t.Errorf("level = %v, want %v", got, tt.want)
			}
		})
	}
}

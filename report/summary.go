package report

import (
	"strings"

	"github.com/fatih/color"
	diffpatch "github.com/sergi/go-diff/diffmatchpatch"
	"github.com/signadot/objdiff/changeset"
)

type summaryConfig struct {
	color   bool
	strDiff bool
}

// Option configures Summary.
type Option func(*summaryConfig)

// WithColor colors each line by change kind.
func WithColor(v bool) Option {
	return func(c *summaryConfig) {
		c.color = v
	}
}

// WithStringDiff renders string property changes as inline deltas when
// the delta is small compared to the strings.
func WithStringDiff(v bool) Option {
	return func(c *summaryConfig) {
		c.strDiff = v
	}
}

func kindColor(k changeset.Kind) *color.Color {
	var c *color.Color
	switch k {
	case changeset.ElementAdded:
		c = color.New(color.FgGreen)
	case changeset.ElementRemoved:
		c = color.New(color.FgRed)
	case changeset.ElementMoved:
		c = color.New(color.FgCyan)
	case changeset.ReferenceChange:
		c = color.New(color.FgMagenta)
	default:
		c = color.New(color.FgYellow)
	}
	c.EnableColor()
	return c
}

// Summary renders cs one change per line.
func Summary(cs *changeset.ChangeSet, opts ...Option) string {
	cfg := &summaryConfig{}
	for _, opt := range opts {
		opt(cfg)
	}
	lines := make([]string, 0, cs.Len())
	for _, c := range cs.Changes() {
		line := c.String()
		if cfg.strDiff && c.Kind == changeset.PropertyChange {
			if l, ok := stringChangeLine(c); ok {
				line = l
			}
		}
		if cfg.color {
			sym, rest, _ := strings.Cut(line, " ")
			line = kindColor(c.Kind).Sprint(sym) + " " + rest
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func stringChangeLine(c changeset.Change) (string, bool) {
	from, ok := c.Old.(string)
	if !ok {
		return "", false
	}
	to, ok := c.New.(string)
	if !ok {
		return "", false
	}
	delta, ok := StringDelta(from, to)
	if !ok {
		return "", false
	}
	p := c.Path.String()
	if p == "" {
		p = "$"
	}
	return "~ " + p + ": \"" + delta + "\"", true
}

// StringDelta renders the difference of two strings inline, with deleted
// text as [-text-] and inserted text as {+text+}. It reports false when
// the strings are equal or when the delta is larger than half the shorter
// string.
func StringDelta(from, to string) (string, bool) {
	dmp := diffpatch.New()
	multiLine := strings.Contains(from, "\n") && strings.Contains(to, "\n")
	diffs := dmp.DiffCleanupSemantic(dmp.DiffMain(from, to, multiLine))
	size := 0
	var b strings.Builder
	for _, d := range diffs {
		switch d.Type {
		case diffpatch.DiffInsert:
			size += len(d.Text)
			b.WriteString("{+" + d.Text + "+}")
		case diffpatch.DiffDelete:
			size += len(d.Text)
			b.WriteString("[-" + d.Text + "-]")
		case diffpatch.DiffEqual:
			b.WriteString(d.Text)
		}
	}
	if size == 0 || size > min(len(from), len(to))/2 {
		return "", false
	}
	return b.String(), true
}

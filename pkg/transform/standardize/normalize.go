package standardize

import (
	"context"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	sh "github.com/wdm0006/shaper/pkg/shaper"
)

// Normalization modes.
const (
	ModeLower         = "lower"
	ModeUpper         = "upper"
	ModeTrim          = "trim"
	ModeTitle         = "title"
	ModeSnake         = "snake"
	ModeCollapseSpace = "collapse_space"
)

// Modes lists every supported normalization mode.
var Modes = []string{ModeLower, ModeUpper, ModeTrim, ModeTitle, ModeSnake, ModeCollapseSpace}

func modeFunc(mode string) (func(string) string, error) {
	switch mode {
	case ModeLower:
		return strings.ToLower, nil
	case ModeUpper:
		return strings.ToUpper, nil
	case ModeTrim:
		return strings.TrimSpace, nil
	case ModeTitle:
		c := cases.Title(language.Und)
		return func(s string) string { return c.String(s) }, nil
	case ModeSnake:
		return snake, nil
	case ModeCollapseSpace:
		return func(s string) string { return strings.Join(strings.Fields(s), " ") }, nil
	}
	return nil, fmt.Errorf("unknown mode %q (want one of %s)", mode, strings.Join(Modes, ", "))
}

func snake(s string) string {
	var b strings.Builder
	sep := false
	for i, r := range strings.TrimSpace(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if unicode.IsUpper(r) && i > 0 && !sep {
				b.WriteByte('_')
			}
			if sep && b.Len() > 0 {
				b.WriteByte('_')
			}
			sep = false
			b.WriteRune(unicode.ToLower(r))
		default:
			sep = true
		}
	}
	return b.String()
}

// Normalize rewrites the string columns listed in Columns. Modes are applied
// in order, so {"trim", "lower"} trims first.
type Normalize struct {
	Columns []string
	Modes   []string
}

func (t *Normalize) Kind() string { return "normalize" }

func (t *Normalize) Describe() string {
	return fmt.Sprintf("%s: %s", strings.Join(t.Columns, ", "), strings.Join(t.Modes, "+"))
}

func (t *Normalize) Validate() error {
	if len(t.Columns) == 0 {
		return sh.InvalidParam(t.Kind(), "columns", "at least one column is required")
	}
	if len(t.Modes) == 0 {
		return sh.InvalidParam(t.Kind(), "modes", "at least one mode is required")
	}
	for _, m := range t.Modes {
		if _, err := modeFunc(m); err != nil {
			return sh.InvalidParam(t.Kind(), "modes", "%v", err)
		}
	}
	return nil
}

func (t *Normalize) Run(ctx context.Context, f *sh.Frame, s sh.Settings) (*sh.Frame, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	for _, c := range t.Columns {
		if _, err := sh.StringColumnOf(t.Kind(), f, c); err != nil {
			return nil, err
		}
	}
	fns := make([]func(string) string, len(t.Modes))
	for i, m := range t.Modes {
		fns[i], _ = modeFunc(m)
	}
	apply := func(v string) string {
		for _, fn := range fns {
			v = fn(v)
		}
		return v
	}
	out := f
	for _, c := range t.Columns {
		next, err := sh.MapStrings(t.Kind(), out, c, apply)
		if err != nil {
			return nil, err
		}
		out = next
	}
	return out, nil
}

package standardize

import (
	"context"
	"regexp"

	sh "github.com/wdm0006/shaper/pkg/shaper"
)

type RegexReplace struct {
	Column  string
	Pattern string
	Replace string
}

func (t *RegexReplace) Kind() string     { return "regex_replace" }
func (t *RegexReplace) Describe() string { return t.Column + ": s/" + t.Pattern + "/" + t.Replace + "/" }

func (t *RegexReplace) Validate() error {
	if t.Column == "" {
		return sh.InvalidParam(t.Kind(), "column", "must not be empty")
	}
	if _, err := regexp.Compile(t.Pattern); err != nil {
		return sh.InvalidParam(t.Kind(), "pattern", "%v", err)
	}
	return nil
}

func (t *RegexReplace) Run(ctx context.Context, f *sh.Frame, s sh.Settings) (*sh.Frame, error) {
	re, err := regexp.Compile(t.Pattern)
	if err != nil {
		return nil, sh.InvalidParam(t.Kind(), "pattern", "%v", err)
	}
	return sh.MapStrings(t.Kind(), f, t.Column, func(v string) string {
		return re.ReplaceAllString(v, t.Replace)
	})
}

// Package config loads run configurations from JSON, YAML or TOML files.
package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/pelletier/go-toml/v2"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"go.uber.org/multierr"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"

	"github.com/wdm0006/shaper/pkg/io/dataset"
	sh "github.com/wdm0006/shaper/pkg/shaper"
)

//go:embed schema/config-schema.json
var embeddedSchema []byte

const schemaURL = "https://shaper.dev/schemas/config.json"

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func schema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(embeddedSchema))
		if err != nil {
			schemaErr = fmt.Errorf("parse embedded schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, doc); err != nil {
			schemaErr = fmt.Errorf("add schema resource: %w", err)
			return
		}
		compiledSchema, schemaErr = c.Compile(schemaURL)
	})
	return compiledSchema, schemaErr
}

// Schema returns the JSON schema configuration files are checked against.
func Schema() []byte { return embeddedSchema }

type Input struct {
	Type      string `json:"type"`
	HasHeader *bool  `json:"has_header"`
	Delimiter string `json:"delimiter"`
	Strict    bool   `json:"strict"`
}

type Output struct {
	Type      string `json:"type"`
	Delimiter string `json:"delimiter"`
}

type Config struct {
	Template         string         `json:"template"`
	ModelPath        string         `json:"model_path"`
	OutputPath       string         `json:"output_path"`
	Input            Input          `json:"input"`
	Output           Output         `json:"output"`
	PipelineSettings map[string]any `json:"pipeline_settings"`

	// Path is the file the configuration was loaded from.
	Path string `json:"-"`
}

// Settings returns a private copy of the pipeline settings.
func (c *Config) Settings() sh.Settings { return sh.NewSettings(c.PipelineSettings) }

func (c *Config) InputOptions() (dataset.Options, error) {
	opt := dataset.Options{Strict: c.Input.Strict}
	if c.Input.HasHeader != nil {
		opt.NoHeader = !*c.Input.HasHeader
	}
	var err error
	if opt.Format, err = format(c.Input.Type); err != nil {
		return opt, &sh.ConfigurationError{Key: "input.type", Reason: err.Error()}
	}
	if opt.Delimiter, err = delimiter(c.Input.Delimiter); err != nil {
		return opt, &sh.ConfigurationError{Key: "input.delimiter", Reason: err.Error()}
	}
	return opt, nil
}

func (c *Config) OutputOptions() (dataset.Options, error) {
	var (
		opt dataset.Options
		err error
	)
	if opt.Format, err = format(c.Output.Type); err != nil {
		return opt, &sh.ConfigurationError{Key: "output.type", Reason: err.Error()}
	}
	if opt.Delimiter, err = delimiter(c.Output.Delimiter); err != nil {
		return opt, &sh.ConfigurationError{Key: "output.delimiter", Reason: err.Error()}
	}
	return opt, nil
}

func format(s string) (dataset.Format, error) {
	if s == "" {
		return "", nil
	}
	return dataset.ParseFormat(s)
}

func delimiter(s string) (rune, error) {
	if s == "" {
		return 0, nil
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("want a single character, got %q", s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	return r, nil
}

// Load reads the configuration at path; the format follows the extension.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &sh.ConfigurationError{Reason: "cannot read " + path, Err: err}
	}
	cfg, err := Parse(raw, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	cfg.Path = path
	return cfg, nil
}

// Parse decodes raw configuration text. ext selects the syntax: ".json",
// ".yaml", ".yml" or ".toml".
func Parse(raw []byte, ext string) (*Config, error) {
	doc, err := decode(raw, strings.ToLower(ext))
	if err != nil {
		return nil, err
	}
	// Round trip through JSON so every syntax reaches the schema with the
	// same value types.
	norm, err := json.Marshal(doc)
	if err != nil {
		return nil, &sh.ConfigurationError{Reason: "unsupported value", Err: err}
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(norm))
	if err != nil {
		return nil, &sh.ConfigurationError{Reason: "malformed document", Err: err}
	}
	if err := Validate(inst); err != nil {
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(norm, &cfg); err != nil {
		return nil, &sh.ConfigurationError{Reason: "malformed document", Err: err}
	}
	if err := cfg.check(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func decode(raw []byte, ext string) (any, error) {
	var (
		doc map[string]any
		err error
	)
	switch ext {
	case ".json":
		err = json.Unmarshal(raw, &doc)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, &doc)
	case ".toml":
		err = toml.Unmarshal(raw, &doc)
	default:
		return nil, &sh.ConfigurationError{Reason: fmt.Sprintf("unsupported config format %q (want .json, .yaml, .yml or .toml)", ext)}
	}
	if err != nil {
		return nil, &sh.ConfigurationError{Reason: "syntax error", Err: err}
	}
	if doc == nil {
		return nil, &sh.ConfigurationError{Reason: "empty configuration"}
	}
	return doc, nil
}

var printer = message.NewPrinter(language.English)

// Validate checks a decoded document against the configuration schema and
// returns one ConfigurationError per violation, combined with multierr.
func Validate(doc any) error {
	s, err := schema()
	if err != nil {
		return err
	}
	verr := s.Validate(doc)
	if verr == nil {
		return nil
	}
	ve, ok := verr.(*jsonschema.ValidationError)
	if !ok {
		return &sh.ConfigurationError{Reason: verr.Error()}
	}
	var errs error
	for _, leaf := range leaves(ve) {
		errs = multierr.Append(errs, &sh.ConfigurationError{
			Key:    strings.Join(leaf.InstanceLocation, "."),
			Reason: leaf.ErrorKind.LocalizedString(printer),
		})
	}
	return errs
}

func leaves(ve *jsonschema.ValidationError) []*jsonschema.ValidationError {
	if len(ve.Causes) == 0 {
		return []*jsonschema.ValidationError{ve}
	}
	var out []*jsonschema.ValidationError
	for _, c := range ve.Causes {
		out = append(out, leaves(c)...)
	}
	return out
}

// check covers what the schema cannot express.
func (c *Config) check() error {
	var errs error
	required := []struct{ key, val string }{
		{"template", c.Template},
		{"model_path", c.ModelPath},
		{"output_path", c.OutputPath},
	}
	for _, r := range required {
		if strings.TrimSpace(r.val) == "" {
			errs = multierr.Append(errs, &sh.ConfigurationError{Key: r.key, Reason: "must not be blank"})
		}
	}
	if _, err := c.InputOptions(); err != nil {
		errs = multierr.Append(errs, err)
	}
	if _, err := c.OutputOptions(); err != nil {
		errs = multierr.Append(errs, err)
	}
	if errs == nil && c.ModelPath == c.OutputPath && c.ModelPath != "-" {
		errs = &sh.ConfigurationError{Key: "output_path", Reason: "must differ from model_path"}
	}
	return errs
}

// Resolve interprets a relative data path against the directory of the
// configuration file. "-" and absolute paths are returned as given.
func (c *Config) Resolve(p string) string {
	if p == "-" || filepath.IsAbs(p) || c.Path == "" {
		return p
	}
	return filepath.Join(filepath.Dir(c.Path), p)
}

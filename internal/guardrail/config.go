package guardrail

import (
	"bytes"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"github.com/spf13/cast"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/roach88/graphparity/internal/logger"
	"github.com/roach88/graphparity/internal/manifest"
)

//go:embed schema.cue
var schemaCUE string

// Config keys, as spelled in config files.
const (
	KeyMinPassRate            = "minPassRate"
	KeyMinFixtureCount        = "minFixtureCount"
	KeyRequiredEdgeCategories = "requiredEdgeCategories"
	KeyRequiredEdgeTypes      = "requiredEdgeTypes"
)

// Flag names bound by Load when a flag set is given.
const (
	FlagMinPassRate     = "min-pass-rate"
	FlagMinFixtureCount = "min-fixture-count"
)

// DefaultEnvPrefix prefixes the environment variables read by Load, e.g.
// GRAPHPARITY_MIN_PASS_RATE.
const DefaultEnvPrefix = "GRAPHPARITY"

// Config holds the thresholds a corpus must satisfy.
type Config struct {
	MinPassRate            float64             `json:"minPassRate" yaml:"minPassRate"`
	MinFixtureCount        int                 `json:"minFixtureCount" yaml:"minFixtureCount"`
	RequiredEdgeCategories []manifest.Category `json:"requiredEdgeCategories" yaml:"requiredEdgeCategories"`
}

// Default returns the configuration used when nothing overrides it: a 100%
// pass rate, no minimum corpus size, and every known category required.
func Default() Config {
	return Config{
		MinPassRate:            1.0,
		MinFixtureCount:        0,
		RequiredEdgeCategories: slices.Clone(manifest.Categories),
	}
}

// ConfigError reports a guardrail configuration that cannot be used. It
// aborts a run before any fixture is evaluated.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("guardrail config: %v", e.Err)
	}
	return fmt.Sprintf("guardrail config %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// LoadOptions selects the sources merged by Load.
type LoadOptions struct {
	// Path is an optional config file. JSON and CUE files are checked
	// against the embedded schema; YAML and TOML are read by viper.
	Path string

	// Flags, when set, may carry FlagMinPassRate and FlagMinFixtureCount.
	// Only flags changed on the command line take effect.
	Flags *pflag.FlagSet

	// EnvPrefix defaults to DefaultEnvPrefix.
	EnvPrefix string

	// Logger receives warnings about ignored settings. Nil discards them.
	Logger *slog.Logger
}

// Load merges, from lowest to highest precedence, Default(), the config
// file, GRAPHPARITY_* environment variables and changed flags. Unknown
// category names are dropped with a warning. The result is validated
// against the schema.
//
// Environment variables:
//
//	<PREFIX>_MIN_PASS_RATE             float in [0, 1]
//	<PREFIX>_MIN_FIXTURE_COUNT         integer >= 0
//	<PREFIX>_REQUIRED_EDGE_CATEGORIES  space-separated category names
func Load(opts LoadOptions) (Config, error) {
	log := opts.Logger
	if log == nil {
		log = logger.Discard()
	}
	prefix := opts.EnvPrefix
	if prefix == "" {
		prefix = DefaultEnvPrefix
	}

	v := viper.New()
	if opts.Path != "" {
		if err := readFile(v, opts.Path); err != nil {
			return Config{}, &ConfigError{Path: opts.Path, Err: err}
		}
	}

	_ = v.BindEnv(KeyMinPassRate, prefix+"_MIN_PASS_RATE")
	_ = v.BindEnv(KeyMinFixtureCount, prefix+"_MIN_FIXTURE_COUNT")
	_ = v.BindEnv(KeyRequiredEdgeCategories, prefix+"_REQUIRED_EDGE_CATEGORIES")

	if opts.Flags != nil {
		for key, name := range map[string]string{
			KeyMinPassRate:     FlagMinPassRate,
			KeyMinFixtureCount: FlagMinFixtureCount,
		} {
			if f := opts.Flags.Lookup(name); f != nil && f.Changed {
				if err := v.BindPFlag(key, f); err != nil {
					return Config{}, &ConfigError{Path: opts.Path, Err: err}
				}
			}
		}
	}

	cfg := Default()
	if raw := v.Get(KeyMinPassRate); raw != nil {
		rate, err := cast.ToFloat64E(raw)
		if err != nil {
			return Config{}, &ConfigError{Path: opts.Path, Err: fmt.Errorf("%s: %w", KeyMinPassRate, err)}
		}
		cfg.MinPassRate = rate
	}
	if raw := v.Get(KeyMinFixtureCount); raw != nil {
		count, err := cast.ToIntE(raw)
		if err != nil {
			return Config{}, &ConfigError{Path: opts.Path, Err: fmt.Errorf("%s: %w", KeyMinFixtureCount, err)}
		}
		cfg.MinFixtureCount = count
	}

	key := ""
	switch {
	case v.Get(KeyRequiredEdgeCategories) != nil:
		key = KeyRequiredEdgeCategories
	case v.Get(KeyRequiredEdgeTypes) != nil:
		key = KeyRequiredEdgeTypes
	}
	if key != "" {
		names := v.GetStringSlice(key)
		cfg.RequiredEdgeCategories = []manifest.Category{}
		for _, name := range names {
			c, err := manifest.ParseCategory(name)
			if err != nil {
				log.Warn("ignoring required edge category", "name", name, "error", err)
				continue
			}
			if !slices.Contains(cfg.RequiredEdgeCategories, c) {
				cfg.RequiredEdgeCategories = append(cfg.RequiredEdgeCategories, c)
			}
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, &ConfigError{Path: opts.Path, Err: err}
	}

	log.Debug("guardrails loaded",
		"min_pass_rate", cfg.MinPassRate,
		"min_fixture_count", cfg.MinFixtureCount,
		"required", cfg.RequiredEdgeCategories,
	)
	return cfg, nil
}

// Validate checks c against the #Resolved schema.
func (c Config) Validate() error {
	ctx := cuecontext.New()
	def, err := schemaDef(ctx, "#Resolved")
	if err != nil {
		return err
	}
	names := make([]string, len(c.RequiredEdgeCategories))
	for i, cat := range c.RequiredEdgeCategories {
		names[i] = string(cat)
	}
	val := ctx.Encode(map[string]any{
		KeyMinPassRate:            c.MinPassRate,
		KeyMinFixtureCount:        c.MinFixtureCount,
		KeyRequiredEdgeCategories: names,
	})
	if err := def.Unify(val).Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("invalid guardrails: %w", err)
	}
	return nil
}

// readFile loads a config file into v. JSON is valid CUE, so JSON and CUE
// files are both checked against #Guardrails and handed to viper as JSON.
func readFile(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch ext {
	case "json", "cue":
		data, err = checkSchema(path, data)
		if err != nil {
			return err
		}
		ext = "json"
	case "":
		return fmt.Errorf("config file has no extension")
	}

	v.SetConfigType(ext)
	if err := v.ReadConfig(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

// checkSchema unifies a JSON or CUE document with #Guardrails and returns
// the result exported as JSON.
func checkSchema(path string, data []byte) ([]byte, error) {
	ctx := cuecontext.New()
	def, err := schemaDef(ctx, "#Guardrails")
	if err != nil {
		return nil, err
	}

	val := ctx.CompileBytes(data, cue.Filename(path))
	if err := val.Err(); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	unified := def.Unify(val)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, fmt.Errorf("invalid guardrails: %w", err)
	}

	out, err := unified.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("export config: %w", err)
	}
	return out, nil
}

func schemaDef(ctx *cue.Context, name string) (cue.Value, error) {
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return cue.Value{}, fmt.Errorf("compile guardrail schema: %w", err)
	}
	def := schema.LookupPath(cue.ParsePath(name))
	if !def.Exists() {
		return cue.Value{}, fmt.Errorf("guardrail schema has no %s", name)
	}
	return def, nil
}

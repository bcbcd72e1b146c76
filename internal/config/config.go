package config

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/roster-cli/internal/extract"
	"github.com/sells-group/roster-cli/internal/model"
	"github.com/sells-group/roster-cli/internal/resilience"
)

// Config holds the full application configuration.
type Config struct {
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Extract    ExtractConfig    `yaml:"extract" mapstructure:"extract"`
	Validation ValidationConfig `yaml:"validate" mapstructure:"validate"`
	Clean      CleanConfig      `yaml:"clean" mapstructure:"clean"`
	Scoring    ScoringConfig    `yaml:"scoring" mapstructure:"scoring"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level" validate:"required"`
	Format string `yaml:"format" mapstructure:"format" validate:"oneof=json console"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver" validate:"oneof=sqlite postgres"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// ExtractConfig configures candidate extraction.
type ExtractConfig struct {
	Mode        string `yaml:"mode" mapstructure:"mode" validate:"oneof=production diagnostic"`
	WindowChars int    `yaml:"window_chars" mapstructure:"window_chars" validate:"min=1"`
	// ValidatedMethods maps a field to the methods proven for it. The list is
	// a set: production mode runs the first of them in descriptor order.
	ValidatedMethods map[string][]string `yaml:"validated_methods" mapstructure:"validated_methods"`
	OCRSearchAbove   float64             `yaml:"ocr_search_above" mapstructure:"ocr_search_above" validate:"gt=0"`
	OCRSearchBelow   float64             `yaml:"ocr_search_below" mapstructure:"ocr_search_below" validate:"gt=0"`
	OCRXTolerance    float64             `yaml:"ocr_x_tolerance" mapstructure:"ocr_x_tolerance" validate:"gt=0"`
	// PdfToTextPath is the pdftotext binary used to read words from PDF
	// inputs.
	PdfToTextPath string `yaml:"pdftotext_path" mapstructure:"pdftotext_path"`
}

// ValidationConfig configures the field validator.
type ValidationConfig struct {
	LexiconPath   string `yaml:"lexicon_path" mapstructure:"lexicon_path"`
	NameMinTokens int    `yaml:"name_min_tokens" mapstructure:"name_min_tokens" validate:"min=1"`
	NameMaxTokens int    `yaml:"name_max_tokens" mapstructure:"name_max_tokens" validate:"gtefield=NameMinTokens"`
	NameMinChars  int    `yaml:"name_min_chars" mapstructure:"name_min_chars" validate:"min=1"`
	NameMaxChars  int    `yaml:"name_max_chars" mapstructure:"name_max_chars" validate:"gtefield=NameMinChars"`
}

// CleanConfig configures post-merge cleaning.
type CleanConfig struct {
	ChunkSize    int  `yaml:"chunk_size" mapstructure:"chunk_size" validate:"min=1"`
	Concurrency  int  `yaml:"concurrency" mapstructure:"concurrency" validate:"min=1,max=64"`
	PrioritizeUS bool `yaml:"prioritize_us" mapstructure:"prioritize_us"`
	FallbackOnly bool `yaml:"fallback_only" mapstructure:"fallback_only"`
}

// ScoringWeights are the points each confidence dimension contributes.
type ScoringWeights struct {
	Name        int `yaml:"name" mapstructure:"name" validate:"min=0"`
	Location    int `yaml:"location" mapstructure:"location" validate:"min=0"`
	Email       int `yaml:"email" mapstructure:"email" validate:"min=0"`
	Phone       int `yaml:"phone" mapstructure:"phone" validate:"min=0"`
	Correlation int `yaml:"correlation" mapstructure:"correlation" validate:"min=0"`
}

// Sum returns the total of all weights.
func (w ScoringWeights) Sum() int {
	return w.Name + w.Location + w.Email + w.Phone + w.Correlation
}

// ScoringConfig configures the confidence scorer.
type ScoringConfig struct {
	Weights         ScoringWeights `yaml:"weights" mapstructure:"weights"`
	HighThreshold   int            `yaml:"high_threshold" mapstructure:"high_threshold" validate:"min=0,max=100"`
	MediumThreshold int            `yaml:"medium_threshold" mapstructure:"medium_threshold" validate:"min=0,max=100,ltfield=HighThreshold"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ROSTER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	SetDefaults(v)

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "roster.db")
	v.SetDefault("extract.mode", "diagnostic")
	v.SetDefault("extract.window_chars", 200)
	v.SetDefault("extract.ocr_search_above", 60)
	v.SetDefault("extract.ocr_search_below", 40)
	v.SetDefault("extract.ocr_x_tolerance", 100)
	v.SetDefault("extract.pdftotext_path", "pdftotext")
	v.SetDefault("validate.name_min_tokens", 1)
	v.SetDefault("validate.name_max_tokens", 6)
	v.SetDefault("validate.name_min_chars", 2)
	v.SetDefault("validate.name_max_chars", 100)
	v.SetDefault("clean.chunk_size", 100)
	v.SetDefault("clean.concurrency", 4)
	v.SetDefault("clean.prioritize_us", true)
	v.SetDefault("clean.fallback_only", false)
	v.SetDefault("scoring.weights.name", 20)
	v.SetDefault("scoring.weights.location", 20)
	v.SetDefault("scoring.weights.email", 30)
	v.SetDefault("scoring.weights.phone", 15)
	v.SetDefault("scoring.weights.correlation", 15)
	v.SetDefault("scoring.high_threshold", 80)
	v.SetDefault("scoring.medium_threshold", 60)
	v.SetDefault("server.port", 8080)
}

// Default returns the configuration Load produces with no file and no
// environment overrides.
func Default() *Config {
	v := viper.New()
	SetDefaults(v)
	var cfg Config
	// Defaults always decode.
	_ = v.Unmarshal(&cfg)
	return &cfg
}

var structValidator = newStructValidator()

// newStructValidator reports fields by their config key rather than their
// Go name.
func newStructValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("mapstructure"), ",", 2)[0]
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate checks the configuration for the given command mode. It returns
// a *resilience.ConfigurationError naming every problem found, before any
// record is processed.
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "extract", "merge", "clean":
	case "import", "run":
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required")
		}
	case "serve":
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, "server.port must be > 0 and <= 65535")
		}
	default:
		return resilience.NewConfigurationError("", fmt.Sprintf("unknown mode %q", mode))
	}

	if err := structValidator.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return &resilience.ConfigurationError{Reason: "validate struct", Err: err}
		}
		for _, e := range verrs {
			errs = append(errs, describe(e))
		}
	}

	if sum := c.Scoring.Weights.Sum(); sum != 100 {
		errs = append(errs, fmt.Sprintf("scoring.weights must sum to 100, got %d", sum))
	}
	w := c.Scoring.Weights
	if w.Correlation > w.Phone || w.Correlation > w.Location {
		errs = append(errs, "scoring.weights.correlation must not exceed the phone or location weight")
	}

	errs = append(errs, c.validateMethods()...)

	if len(errs) > 0 {
		return &resilience.ConfigurationError{Reason: strings.Join(errs, "; ")}
	}
	return nil
}

func (c *Config) validateMethods() []string {
	var errs []string
	fields := make([]string, 0, len(c.Extract.ValidatedMethods))
	for f := range c.Extract.ValidatedMethods {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	total := 0
	for _, f := range fields {
		if model.DefaultFieldRegistry().ByField(model.Field(f)) == nil {
			errs = append(errs, fmt.Sprintf("extract.validated_methods: unknown field %q", f))
			continue
		}
		for _, name := range c.Extract.ValidatedMethods[f] {
			if _, ok := extract.ParseMethodKind(name); !ok {
				errs = append(errs, fmt.Sprintf("extract.validated_methods.%s: unknown method %q", f, name))
				continue
			}
			total++
		}
	}
	if c.Extract.Mode == string(extract.ModeProduction) && total == 0 {
		errs = append(errs, "extract.validated_methods is required in production mode")
	}
	return errs
}

// describe renders a struct validation failure with the config key path.
func describe(e validator.FieldError) string {
	key := strings.TrimPrefix(e.Namespace(), "Config.")
	return fmt.Sprintf("%s failed %s=%s (got %v)", key, e.Tag(), e.Param(), e.Value())
}

// ValidatedMethods converts the configured method names into extractor
// options. Unknown names are skipped; Validate reports them.
func (c *Config) ValidatedMethods() map[model.Field][]extract.MethodKind {
	out := make(map[model.Field][]extract.MethodKind, len(c.Extract.ValidatedMethods))
	for f, names := range c.Extract.ValidatedMethods {
		for _, name := range names {
			if k, ok := extract.ParseMethodKind(name); ok {
				out[model.Field(f)] = append(out[model.Field(f)], k)
			}
		}
	}
	return out
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}

package core

import (
	"github.com/go-playground/validator/v10"
	"github.com/tsawler/pdfstream/internal/filters"
	"github.com/tsawler/pdfstream/logger"
)

// Config controls encoding and batch decoding.
type Config struct {
	// FlateLevel is the deflate level used when encoding with FlateDecode,
	// from -2 (Huffman only) through 9 (best compression); -1 is the
	// library default.
	FlateLevel int `validate:"min=-2,max=9"`

	// MaxConcurrent bounds the streams DecodeStreams decodes at once.
	MaxConcurrent int `validate:"min=1,max=256"`

	// Logger, when set, receives the warnings filters emit for data they
	// recover from. DecodeStreams installs it while it runs.
	Logger logger.LogFunc
}

func NewDefaultConfig() *Config {
	return &Config{
		FlateLevel:    filters.DefaultOptions().FlateLevel,
		MaxConcurrent: 4,
	}
}

var validate = validator.New()

func (cfg *Config) Validate() error {
	logger.Debug("Validating Config Object")
	return validate.Struct(cfg)
}

// options returns the filter options for cfg. A nil cfg gives the defaults.
func (cfg *Config) options() filters.Options {
	if cfg == nil {
		return filters.DefaultOptions()
	}
	return filters.Options{FlateLevel: cfg.FlateLevel}
}

package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		cfg       *Config
		shouldErr bool
	}{
		{
			name:      "default config",
			cfg:       NewDefaultConfig(),
			shouldErr: false,
		},
		{
			name: "huffman only",
			cfg: &Config{
				FlateLevel:    -2,
				MaxConcurrent: 1,
			},
			shouldErr: false,
		},
		{
			name: "invalid FlateLevel (too high)",
			cfg: &Config{
				FlateLevel:    10,
				MaxConcurrent: 4,
			},
			shouldErr: true,
		},
		{
			name: "invalid FlateLevel (too low)",
			cfg: &Config{
				FlateLevel:    -3,
				MaxConcurrent: 4,
			},
			shouldErr: true,
		},
		{
			name: "invalid MaxConcurrent (too low)",
			cfg: &Config{
				FlateLevel:    6,
				MaxConcurrent: 0,
			},
			shouldErr: true,
		},
		{
			name: "invalid MaxConcurrent (too high)",
			cfg: &Config{
				FlateLevel:    6,
				MaxConcurrent: 1000,
			},
			shouldErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.shouldErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	assert.Equal(t, -1, cfg.FlateLevel)
	assert.Equal(t, 4, cfg.MaxConcurrent)
	assert.Nil(t, cfg.Logger)

	var nilCfg *Config
	assert.Equal(t, cfg.FlateLevel, nilCfg.options().FlateLevel)
}

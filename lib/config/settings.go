package config

import (
	"fmt"
)

type Options struct {
	ConfigFilePath string `short:"c" long:"config" description:"path to the config file" required:"true"`
	Verbose        bool   `short:"v" long:"verbose" description:"debug logging" optional:"true"`
}

type Settings struct {
	Config         Config
	VerboseLogging bool
}

// LoadSettings reads and validates the config file named by [opts].
func LoadSettings(opts Options) (*Settings, error) {
	config, err := readFileToConfig(opts.ConfigFilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err = config.Validate(); err != nil {
		return nil, fmt.Errorf("failed to validate config: %w", err)
	}

	return &Settings{
		Config:         *config,
		VerboseLogging: opts.Verbose,
	}, nil
}

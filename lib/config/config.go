package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/lepaya/data-snowflake-client/lib/environ"
)

// envTag marks scalars whose `${VAR}` references are resolved from the environment, e.g. `password: !ENV ${SNOWFLAKE_PASSWORD}`.
const envTag = "!ENV"

func readFileToConfig(pathToConfig string) (*Config, error) {
	bytes, err := os.ReadFile(pathToConfig)
	if err != nil {
		return nil, err
	}

	return ParseConfig(bytes)
}

func ParseConfig(bytes []byte) (*Config, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(bytes, &root); err != nil {
		return nil, err
	}

	if len(root.Content) == 0 {
		return nil, fmt.Errorf("config is empty")
	}

	if err := resolveEnvTags(&root); err != nil {
		return nil, err
	}

	var config Config
	if err := root.Decode(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func resolveEnvTags(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode && node.Tag == envTag {
		value, err := environ.Expand(node.Value)
		if err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}

		node.Value = value
		// Clearing the tag lets the decoder resolve the expanded value like any other scalar.
		node.Tag = ""
	}

	for _, child := range node.Content {
		if err := resolveEnvTags(child); err != nil {
			return err
		}
	}

	return nil
}

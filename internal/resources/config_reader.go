package resources

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// LoadResourcesConfig loads resource definitions from a YAML file
func LoadResourcesConfig(path string, logger *zap.Logger) (*Config, error) {
	logger.Info("Loading resources config", zap.String("path", path))

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open resources file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var config Config
	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)
	if err := decoder.Decode(&config); err != nil {
		return nil, fmt.Errorf("failed to decode YAML resources: %w", err)
	}

	if err := validator.New().Struct(&config); err != nil {
		return nil, fmt.Errorf("resources validation failed: %w", err)
	}

	logger.Info("Resources config loaded successfully", zap.Int("resources", len(config.Resources)))

	return &config, nil
}

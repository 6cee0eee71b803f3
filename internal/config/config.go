// Package config handles loading and validation of clearskies.yaml project configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/clearskies-aero/clearskies/pkg/types"
)

// Load reads and parses clearskies.yaml from the given directory.
func Load(dir string) (*types.ProjectConfig, error) {
	path := filepath.Join(dir, "clearskies.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg types.ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

func validate(cfg *types.ProjectConfig) error {
	if cfg.DynamoDB == nil {
		return fmt.Errorf("dynamodb config is required")
	}
	if cfg.DynamoDB.TableName == "" {
		return fmt.Errorf("dynamodb.tableName is required")
	}
	if cfg.Weather != nil && cfg.Weather.RequestTimeout != "" {
		if _, err := time.ParseDuration(cfg.Weather.RequestTimeout); err != nil {
			return fmt.Errorf("weather.requestTimeout: %w", err)
		}
	}
	if cfg.Reschedule != nil && cfg.Reschedule.RequestTimeout != "" {
		if _, err := time.ParseDuration(cfg.Reschedule.RequestTimeout); err != nil {
			return fmt.Errorf("reschedule.requestTimeout: %w", err)
		}
	}
	if cfg.Queue != nil && cfg.Queue.RetryDelay != "" {
		if _, err := time.ParseDuration(cfg.Queue.RetryDelay); err != nil {
			return fmt.Errorf("queue.retryDelay: %w", err)
		}
	}
	for i, alert := range cfg.Alerts {
		switch alert.Type {
		case types.AlertConsole:
		case types.AlertWebhook:
			if alert.URL == "" {
				return fmt.Errorf("alerts[%d]: webhook url is required", i)
			}
		case types.AlertSNS:
			if alert.TopicARN == "" {
				return fmt.Errorf("alerts[%d]: sns topicArn is required", i)
			}
		default:
			return fmt.Errorf("alerts[%d]: unknown type %q", i, alert.Type)
		}
	}
	return nil
}

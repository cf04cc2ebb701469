package config

import (
	"fmt"

	"github.com/kbukum/parq/logger"
	"github.com/kbukum/parq/observability"
	"github.com/kbukum/parq/query"
	"github.com/kbukum/parq/validation"
)

// Environments accepted by AppConfig.Environment.
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// AppConfig is the configuration of an application running queries.
//
//	name: people
//	query:
//	  degree: auto
//	  ordering: preserve
//	logging:
//	  level: debug
type AppConfig struct {
	Name          string               `yaml:"name" mapstructure:"name" validate:"required"`
	Environment   string               `yaml:"environment" mapstructure:"environment" validate:"oneof=development staging production"`
	Version       string               `yaml:"version" mapstructure:"version"`
	Logging       logger.Config        `yaml:"logging" mapstructure:"logging"`
	Query         query.Config         `yaml:"query" mapstructure:"query"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
}

// ApplyDefaults fills unset fields in every section.
func (c *AppConfig) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = EnvDevelopment
	}
	c.Logging.ApplyDefaults()
	c.Query.ApplyDefaults()
	c.Observability.ApplyDefaults()
}

// Validate checks struct tags first, then the rules each section enforces
// on its own.
func (c *AppConfig) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return err
	}
	if err := c.Query.Validate(); err != nil {
		return err
	}
	if err := c.Observability.Validate(); err != nil {
		return err
	}
	return nil
}

// Load resolves, reads, defaults and validates the AppConfig of the named
// application.
func Load(appName string, opts ...LoaderOption) (*AppConfig, error) {
	var cfg AppConfig
	if err := LoadConfig(appName, &cfg, opts...); err != nil {
		return nil, err
	}
	if cfg.Name == "" {
		cfg.Name = appName
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config for %s: %w", appName, err)
	}
	return &cfg, nil
}

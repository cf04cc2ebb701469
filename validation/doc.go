// Package validation checks configuration values and reports problems as
// INVALID_CONFIGURATION errors.
//
// # Struct Tag Validation
//
//	type Config struct {
//	    Degree    int `mapstructure:"degree" validate:"gte=0"`
//	    ChunkSize int `mapstructure:"chunk_size" validate:"gte=0"`
//	}
//	err := validation.Validate(cfg)
//
// Field names in messages follow the mapstructure tag, so they match the keys
// used in config.yml.
//
// # Programmatic Validation
//
//	v := validation.New()
//	v.Min("max_degree", cfg.MaxDegree, 2)
//	err := v.Validate()
package validation

// Package config loads application configuration.
//
// LoadConfig finds cmd/<app>/config.yml and a .env file in the usual
// places, reads them with Viper and overlays environment variables. A
// variable such as QUERY_MAX_DEGREE sets query.max_degree. Values are
// decoded with mapstructure hooks, so a degree may be written as "auto" and
// durations as "15s".
//
//	cfg, err := config.Load("people")
package config

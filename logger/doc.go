// Package logger provides structured logging for parq using zerolog.
//
// It supports JSON and console output, log level configuration, and
// component-scoped loggers with structured fields. The query engine tags
// every line it writes with the query id.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get("query")
//	log.Info("query completed", logger.Fields(logger.FieldWorkers, 4))
package logger

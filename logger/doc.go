// Package logger provides structured logging for rxkit using zerolog.
//
// It supports JSON and console output, level configuration, and
// component-scoped loggers with structured fields. Stream operators log
// through the "stream" component.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.Get(logger.ComponentStream)
//	log.Info("subscribed", logger.Fields(logger.FieldStream, "orders"))
package logger

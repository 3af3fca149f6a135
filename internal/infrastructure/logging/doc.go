// Package logging provides structured logging for LugeRelay.
//
// It wraps the standard library's log/slog with:
//   - Configuration-driven level, format, and output selection
//   - Default service and version fields on every record
//   - A Default() logger for use before configuration is loaded
//
// Components receive a child logger via With:
//
//	log := logging.New(cfg.Logging, version)
//	seqLog := log.With("component", "sequence")
package logging

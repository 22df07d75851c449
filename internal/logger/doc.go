// Package logger is a small wrapper around zap offering:
//   - a global sugared logger with a console encoder,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level configuration and parsing,
//   - convenience functions (Infof, ErrorKV, etc.).
//
// Long-running components take a context and extract the logger from it,
// so each subsystem logs under its own name.
package logger

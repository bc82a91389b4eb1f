// Package logging provides structured logging for claimsense.
//
// This package wraps a zap logger with convenience functions for the logging
// patterns used throughout the client: prediction requests, bridge events and
// raw payload previews.
//
// # Log Levels
//
//   - Debug: payload previews, bridge traffic
//   - Info: prediction requests and responses, exports, settings writes
//   - Warn: recoverable issues (history write failed, discovery errors)
//   - Error: handler failures surfaced to the user
//
// # Configuration
//
// Logging is silent unless a level is given, either with --log-level or the
// CLAIMSENSE_LOG_LEVEL environment variable. Interactive sessions should
// also set --log-file (or CLAIMSENSE_LOG_FILE), otherwise log lines are
// written over the terminal UI.
//
//	if err := logging.InitializeWithOptions(logging.Options{
//	    Level: "debug",
//	    File:  "/tmp/claimsense.log",
//	}); err != nil {
//	    return err
//	}
//	defer logging.Sync()
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. Initialization is not;
// call it once before starting any front end.
package logging

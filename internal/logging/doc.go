// Package logging provides logging utilities for excellia.
//
// This package provides two categories of output:
//   - Debug logging: Structured logs (via slog) for the relay and the CLI
//   - User output: Formatted messages for the administrator at the terminal
//
// # Structured Logging
//
//	logging.Setup(verbose, jsonOutput, os.Stderr)
//	logging.Debug("forwarding request", "method", r.Method, "upstream", target)
//	logging.Component("relay").Warn("upstream unreachable", "error", err)
//
// # User Output
//
//	logging.UserInfo("Importing %d students...", n)
//	logging.UserSuccess("Étudiant ajouté avec succès")
//	logging.UserWarning("%d rows skipped", skipped)
//	logging.UserError("Import failed: %v", err)
//
// UserInfo and UserSuccess write to Stdout; UserWarning and UserError
// write to Stderr. Both writers can be swapped in tests.
package logging

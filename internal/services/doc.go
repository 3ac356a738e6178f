// Package services defines shared utilities consumed by the import pipeline
// and the external integrations.
//
// Key responsibilities:
//   - Structured error markers plus the Wrap helper that translate failures
//     into consistent run behaviour (abort vs account-and-continue).
//   - The Serializd diary client in the serializd subpackage.
//
// Use these helpers when wiring new pipeline logic so operational behaviour
// (error handling, observability, retries) stays uniform across sources.
package services

// Package services defines shared utilities consumed by the authoring session
// and its backend integrations.
//
// Key responsibilities:
//   - Context helpers that stamp session ids, work ids, action names, and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper so failures can be
//     classified (validation, generation, upload) without string matching.
//
// Use these helpers when wiring new session actions so error presentation and
// observability stay uniform.
package services

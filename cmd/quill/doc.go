// Package main hosts the quill CLI entrypoint and command graph.
//
// The Cobra command tree covers configuration scaffolding, catalog and
// draft inspection, and the two interactive authoring shells: "quill create"
// for a new work and "quill edit <id>" for an existing one. Both shells read
// one command per line, dispatch it through a second Cobra tree bound to an
// authoring session, and print asynchronous results as they arrive.
//
// Keep this package lean: behavior belongs in the internal packages and is
// only surfaced here.
package main

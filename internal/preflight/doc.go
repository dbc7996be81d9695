// Package preflight provides readiness checks for the backend and the local
// paths quill depends on.
//
// "quill config validate" runs every check through RunAll and prints the
// results. The authoring shells call CheckBackend before opening a session
// so a bad token is reported before any typing happens.
package preflight

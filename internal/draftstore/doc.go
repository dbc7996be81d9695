// Package draftstore autosaves work drafts to SQLite so an interrupted
// authoring session can be resumed.
//
// One row per draft holds the serialized work.Draft along with its mode and
// remote work id. Drafts are discarded after a successful create and on
// logout. EditorLock guards the store so only one interactive session edits
// drafts at a time.
package draftstore

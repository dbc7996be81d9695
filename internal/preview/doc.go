// Package preview issues short-lived handles for locally selected images.
//
// A Registry allocates one handle per selected file and keeps the file
// reachable until the handle is released. When the local preview server is
// running, each handle resolves to an http URL served by Server; released
// handles answer 404. Manager enforces that a slot holds at most one live
// handle at a time: installing a new preview releases the previous one
// first, and Close releases everything on session teardown.
package preview

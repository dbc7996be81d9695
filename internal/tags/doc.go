// Package tags keeps a work's free-form tags and the AI suggestion panel.
//
// Every tag is stored in canonical form (see Normalize), so the set never
// holds two spellings of the same tag. Suggestions returned by the backend
// are shown in a panel that closes on its own once the last suggestion has
// been accepted.
package tags

// Package authoring runs a work editing session.
//
// A Session is one state machine shared by create and edit mode. Leaf state
// (text fields, categories, tags, price, image slots, the cover generator)
// is mutated through Session methods under a single mutex. Network actions
// (create, save, banner and cover uploads, tag suggestions, cover
// generation) run in goroutines; each has a Phase that moves from pending to
// succeeded or failed, and each completion is applied only if its request
// token is still current, so late or superseded responses never overwrite
// newer state.
//
// Create mode batches everything into one multipart submit. Edit mode sends
// text, category, tag, price and state changes only on Submit, while a newly
// accepted banner or cover is uploaded immediately.
//
// Listeners receive Events on one goroutine, in the order the session
// emitted them, never while the session lock is held. A listener may call
// back into the Session, except for Wait and Close.
package authoring

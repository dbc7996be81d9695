// Package media validates the images a work can carry.
//
// A work owns two image slots: a wide banner and a portrait cover. Each slot
// has a constraint profile (maximum byte size and maximum natural
// dimensions). Validator checks a candidate File against a profile: the size
// check runs first and never touches the image data, then the image header is
// sniffed and decoded to read its natural dimensions. Both bounds are
// inclusive, so an image exactly at the limit is accepted.
package media

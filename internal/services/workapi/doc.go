// Package workapi talks to the works backend: creating works, uploading
// banner and cover images, saving management fields, fetching a work for
// editing, loading reference catalogs, and the two AI helpers (tag
// suggestions and cover generation).
//
// Mutating requests are sent once. Reads (GetWork, FetchCatalog) retry on
// timeouts, 429 and 5xx with capped exponential backoff. Non-2xx responses
// become *APIError carrying the server's own message.
package workapi

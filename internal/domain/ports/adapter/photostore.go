package adapter

import "context"

// PhotoStore uploads lot photos to the object storage bucket.
type PhotoStore interface {
	// Upload fetches each source URI, normalizes the image and stores it,
	// returning the public URLs of the stored copies. The contract is
	// explicitly best-effort: entries that fail to fetch, decode or store
	// are omitted from the result and never retried, so the returned slice
	// may be shorter than the input. A lot may legitimately be submitted
	// with fewer photos than the user sent.
	Upload(ctx context.Context, userID int64, sourceURIs []string) []string
}

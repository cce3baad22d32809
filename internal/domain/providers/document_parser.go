package providers

import "context"

// DocumentParser converts an uploaded file into analyzable text.
type DocumentParser interface {
	// Parse extracts markdown or plain text from the file at the given
	// storage path. An empty result is an error.
	Parse(ctx context.Context, filePath, mimeType string) (string, error)
}

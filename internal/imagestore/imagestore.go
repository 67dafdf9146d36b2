package imagestore

import (
	"context"
	"io"
)

// Store persists uploaded grain sample images and hands back the URL
// that gets recorded on the analysis
type Store interface {
	// Save writes the image content. ext is the file extension with the
	// leading dot, e.g. ".png"
	Save(ctx context.Context, ext string, contentType string, content io.Reader) (url string, err error)
}

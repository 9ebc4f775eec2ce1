package blogs

import (
	"context"

	"github.com/eringen/blogs/streamfield"
)

// storeAssets resolves stream block references against the store.
type storeAssets struct {
	store *Store
}

// Assets returns the stream asset resolver backed by the app store.
func (a *App) Assets() streamfield.Assets {
	return storeAssets{store: a.Store}
}

func (s storeAssets) Image(ctx context.Context, id int64) (streamfield.Image, bool) {
	img, err := s.store.GetImage(ctx, id)
	if err != nil {
		return streamfield.Image{}, false
	}
	return streamfield.Image{URL: img.URL(), Alt: img.Title, Width: img.Width, Height: img.Height}, true
}

func (s storeAssets) Document(ctx context.Context, id int64) (streamfield.DocumentLink, bool) {
	d, err := s.store.GetDocument(ctx, id)
	if err != nil {
		return streamfield.DocumentLink{}, false
	}
	return streamfield.DocumentLink{URL: d.URL(), Title: d.Title}, true
}

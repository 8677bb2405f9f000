package csync

import (
	"context"
	"io"
)

// StoreInfo identifies one remote index store.
type StoreInfo struct {
	ID   string
	Name string
}

// IndexStore is the remote searchable-document service: one store per
// course, documents uploaded then attached.
type IndexStore interface {
	// CreateStore creates a named index store and returns its id.
	CreateStore(ctx context.Context, name string) (string, error)
	// ListStores enumerates existing stores.
	ListStores(ctx context.Context) ([]StoreInfo, error)
	// UploadDocument uploads document bytes and returns the document id.
	UploadDocument(ctx context.Context, filename string, r io.Reader) (string, error)
	// AttachDocument attaches an uploaded document to a store.
	AttachDocument(ctx context.Context, storeID, documentID string) error
}

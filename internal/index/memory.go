package index

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"

	"csync-go/internal/csync"
)

// MemoryIndex is an in-memory IndexStore used in tests and for dry
// runs against a throwaway index.
type MemoryIndex struct {
	mu          sync.Mutex
	stores      map[string]string   // store id -> name
	documents   map[string]string   // document id -> filename
	contents    map[string][]byte   // document id -> uploaded bytes
	attachments map[string][]string // store id -> document ids
	nextStore   int
	nextDoc     int

	failUploads map[string]bool
	failCreate  bool
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		stores:      make(map[string]string),
		documents:   make(map[string]string),
		contents:    make(map[string][]byte),
		attachments: make(map[string][]string),
		failUploads: make(map[string]bool),
	}
}

func (m *MemoryIndex) CreateStore(_ context.Context, name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failCreate {
		return "", fmt.Errorf("store creation disabled")
	}
	m.nextStore++
	id := fmt.Sprintf("vs-%d", m.nextStore)
	m.stores[id] = name
	return id, nil
}

func (m *MemoryIndex) ListStores(_ context.Context) ([]csync.StoreInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stores := make([]csync.StoreInfo, 0, len(m.stores))
	for id, name := range m.stores {
		stores = append(stores, csync.StoreInfo{ID: id, Name: name})
	}
	sort.Slice(stores, func(i, j int) bool { return stores[i].ID < stores[j].ID })
	return stores, nil
}

func (m *MemoryIndex) UploadDocument(_ context.Context, filename string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("reading document %s: %w", filename, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failUploads[filename] {
		return "", fmt.Errorf("upload of %s disabled", filename)
	}
	m.nextDoc++
	id := fmt.Sprintf("file-%d", m.nextDoc)
	m.documents[id] = filename
	m.contents[id] = data
	return id, nil
}

func (m *MemoryIndex) AttachDocument(_ context.Context, storeID, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.stores[storeID]; !ok {
		return fmt.Errorf("store %s not found", storeID)
	}
	if _, ok := m.documents[documentID]; !ok {
		return fmt.Errorf("document %s not found", documentID)
	}
	m.attachments[storeID] = append(m.attachments[storeID], documentID)
	return nil
}

// FailUploadOf makes subsequent uploads of the named document fail.
func (m *MemoryIndex) FailUploadOf(filename string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failUploads[filename] = true
}

// FailStoreCreation makes subsequent CreateStore calls fail.
func (m *MemoryIndex) FailStoreCreation() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failCreate = true
}

// StoreName returns the name a store was created with.
func (m *MemoryIndex) StoreName(storeID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stores[storeID]
}

// AttachedDocuments returns the filenames attached to a store, in
// attachment order.
func (m *MemoryIndex) AttachedDocuments(storeID string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	var names []string
	for _, docID := range m.attachments[storeID] {
		names = append(names, m.documents[docID])
	}
	return names
}

// DocumentContent returns the bytes uploaded for a document.
func (m *MemoryIndex) DocumentContent(documentID string) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.contents[documentID]
}

// Compile-time check that MemoryIndex implements csync.IndexStore
var _ csync.IndexStore = (*MemoryIndex)(nil)

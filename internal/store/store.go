// Package store persists the shared document.
//
// Every mutation is a load, mutate, save cycle run through Update. Cycles
// are serialized by a single writer lock so that concurrent callers never
// save on top of the same base document. Reads do not take the writer lock
// and may observe a document that is about to be replaced.
package store

import (
	"context"

	"github.com/kazz187/missioncontrol/internal/document"
)

type Store interface {
	// Load never fails for a readable or missing document; the returned
	// document is a private copy.
	Load(ctx context.Context) (*document.Document, error)
	// Save replaces the persisted document.
	Save(ctx context.Context, doc *document.Document) error
	// Update runs fn on a freshly loaded document and saves the result.
	// An error from fn aborts the cycle without saving.
	Update(ctx context.Context, fn func(doc *document.Document) error) error
}

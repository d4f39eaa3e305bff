// Package datastore persists uploaded dataset documents for the server.
//
// The CLI works directly with files and URLs and never touches this
// package. The HTTP API lets clients upload a family dataset once and
// request charts for it repeatedly; the datastore is where those
// uploads live. Two backends are provided: an in-memory store for
// tests and single-process deployments, and a MongoDB store for
// anything that has to survive a restart.
package datastore

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when no dataset exists for an ID.
var ErrNotFound = errors.New("dataset not found")

// Dataset is a stored dataset document with its metadata. Document
// holds the raw JSON exactly as uploaded; normalization happens at
// chart time so a reupload is never needed after a parser fix.
type Dataset struct {
	ID        string    `json:"id" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	Document  []byte    `json:"document" bson:"document"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// Store is the persistence interface for datasets.
type Store interface {
	// Put creates or replaces a dataset by ID.
	Put(ctx context.Context, d Dataset) error

	// Get retrieves a dataset by ID. Returns ErrNotFound if absent.
	Get(ctx context.Context, id string) (Dataset, error)

	// List returns all datasets without their documents, ordered by
	// creation time.
	List(ctx context.Context) ([]Dataset, error)

	// Delete removes a dataset. Deleting a missing ID returns ErrNotFound.
	Delete(ctx context.Context, id string) error

	// Close releases backend resources.
	Close(ctx context.Context) error
}

// NewID generates a dataset identifier.
func NewID() string {
	return uuid.NewString()
}

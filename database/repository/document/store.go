package document

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
)

// MaxPageSize is the largest page the store returns; callers needing more loop with Offset.
const MaxPageSize = 100

// DefaultPageSize applies when a listing carries no Limit.
const DefaultPageSize = 25

// ErrNotFound is returned when the addressed document does not exist.
var ErrNotFound = errors.New("document not found")

// Document is a schemaless stored record. It is only used at the store boundary;
// repositories convert it to typed models.
type Document = bson.M

// Store is a multi-collection document database addressed by collection and id.
type Store interface {
	// Get fetches one document by id.
	Get(ctx context.Context, collection, id string) (Document, error)
	// List returns documents matching queries.
	List(ctx context.Context, collection string, queries ...Query) ([]Document, error)
	// Create inserts a new document. An empty id is generated by the store.
	Create(ctx context.Context, collection, id string, fields Document) (Document, error)
	// Update sets fields on an existing document and returns the result.
	Update(ctx context.Context, collection, id string, fields Document) (Document, error)
	// Delete removes a document by id.
	Delete(ctx context.Context, collection, id string) error
	// AddToSet atomically appends values to an array field, skipping ones already present.
	AddToSet(ctx context.Context, collection, id, field string, values ...string) error
	// Pull atomically removes every occurrence of values from an array field.
	Pull(ctx context.Context, collection, id, field string, values ...string) error
}

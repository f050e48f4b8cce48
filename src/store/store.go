package store

import (
	"context"
	"errors"
)

var (
	ErrNotFound      = errors.New("document not found")
	ErrAlreadyExists = errors.New("document already exists")
)

type serverTimestamp struct{}

// ServerTimestamp marks a field to be filled with the store's own clock at
// write time.
var ServerTimestamp = serverTimestamp{}

type Operator string

const (
	OpEqual          Operator = "=="
	OpNotEqual       Operator = "!="
	OpLessThan       Operator = "<"
	OpLessOrEqual    Operator = "<="
	OpGreaterThan    Operator = ">"
	OpGreaterOrEqual Operator = ">="
	OpIn             Operator = "in"
	OpArrayContains  Operator = "array-contains"
)

type Where struct {
	Path  string
	Op    Operator
	Value any
}

// Query clauses are ANDed, matching the semantics of the backing store.
type Query struct {
	Where   []Where
	OrderBy string
	Desc    bool
	Limit   int
}

type Doc struct {
	ID   string
	Data map[string]any
}

// Client is the document-store contract the booking engine depends on.
// Create must be conditional (fail with ErrAlreadyExists when the id is
// taken); the engine relies on it to keep slots exclusive under races.
type Client interface {
	Get(ctx context.Context, collection, id string) (*Doc, error)
	Create(ctx context.Context, collection, id string, fields map[string]any) error
	Set(ctx context.Context, collection, id string, fields map[string]any) error
	Update(ctx context.Context, collection, id string, fields map[string]any) error
	Query(ctx context.Context, collection string, q Query) ([]*Doc, error)
}

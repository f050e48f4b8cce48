package store

import (
	"context"
	"log"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type FirestoreClient struct {
	client *firestore.Client
}

func NewFirestoreClient(c *firestore.Client) *FirestoreClient {
	return &FirestoreClient{client: c}
}

func (f *FirestoreClient) Get(ctx context.Context, collection, id string) (*Doc, error) {
	snap, err := f.client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &Doc{ID: snap.Ref.ID, Data: snap.Data()}, nil
}

func (f *FirestoreClient) Create(ctx context.Context, collection, id string, fields map[string]any) error {
	_, err := f.client.Collection(collection).Doc(id).Create(ctx, resolveFields(fields))
	if err != nil && status.Code(err) == codes.AlreadyExists {
		return ErrAlreadyExists
	}
	return err
}

func (f *FirestoreClient) Set(ctx context.Context, collection, id string, fields map[string]any) error {
	_, err := f.client.Collection(collection).Doc(id).Set(ctx, resolveFields(fields))
	return err
}

func (f *FirestoreClient) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	updates := make([]firestore.Update, 0, len(fields))
	for path, value := range fields {
		updates = append(updates, firestore.Update{Path: path, Value: resolveValue(value)})
	}
	_, err := f.client.Collection(collection).Doc(id).Update(ctx, updates)
	if err != nil && status.Code(err) == codes.NotFound {
		return ErrNotFound
	}
	return err
}

func (f *FirestoreClient) Query(ctx context.Context, collection string, q Query) ([]*Doc, error) {
	fq := f.client.Collection(collection).Query
	for _, w := range q.Where {
		fq = fq.Where(w.Path, string(w.Op), w.Value)
	}
	if q.OrderBy != "" {
		dir := firestore.Asc
		if q.Desc {
			dir = firestore.Desc
		}
		fq = fq.OrderBy(q.OrderBy, dir)
	}
	if q.Limit > 0 {
		fq = fq.Limit(q.Limit)
	}

	docs := []*Doc{}
	iter := fq.Documents(ctx)
	defer iter.Stop()
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			log.Printf("[firestore] query on %s failed: %s\n", collection, err.Error())
			return nil, err
		}
		docs = append(docs, &Doc{ID: snap.Ref.ID, Data: snap.Data()})
	}
	return docs, nil
}

func resolveFields(fields map[string]any) map[string]any {
	resolved := make(map[string]any, len(fields))
	for k, v := range fields {
		resolved[k] = resolveValue(v)
	}
	return resolved
}

func resolveValue(v any) any {
	if _, ok := v.(serverTimestamp); ok {
		return firestore.ServerTimestamp
	}
	return v
}

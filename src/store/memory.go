package store

import (
	"context"
	"reflect"
	"sort"
	"sync"
	"time"
)

// MemoryClient keeps collections in process memory. It exists so the state
// machine can be exercised without network I/O; semantics mirror the
// Firestore-backed client, including conditional creates and merge updates.
type MemoryClient struct {
	mu   sync.RWMutex
	data map[string]map[string]map[string]any
}

func NewMemoryClient() *MemoryClient {
	return &MemoryClient{data: map[string]map[string]map[string]any{}}
}

func (m *MemoryClient) Get(ctx context.Context, collection, id string) (*Doc, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.data[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	return &Doc{ID: id, Data: copyFields(doc)}, nil
}

func (m *MemoryClient) Create(ctx context.Context, collection, id string, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[collection][id]; ok {
		return ErrAlreadyExists
	}
	m.put(collection, id, fields)
	return nil
}

func (m *MemoryClient) Set(ctx context.Context, collection, id string, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.put(collection, id, fields)
	return nil
}

func (m *MemoryClient) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.data[collection][id]
	if !ok {
		return ErrNotFound
	}
	for k, v := range fields {
		doc[k] = materialize(v)
	}
	return nil
}

func (m *MemoryClient) Query(ctx context.Context, collection string, q Query) ([]*Doc, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	docs := []*Doc{}
	for id, data := range m.data[collection] {
		matched := true
		for _, w := range q.Where {
			if !matches(data[w.Path], w) {
				matched = false
				break
			}
		}
		if matched {
			docs = append(docs, &Doc{ID: id, Data: copyFields(data)})
		}
	}
	if q.OrderBy != "" {
		sort.Slice(docs, func(i, j int) bool {
			less := compare(docs[i].Data[q.OrderBy], docs[j].Data[q.OrderBy]) < 0
			if q.Desc {
				return !less
			}
			return less
		})
	}
	if q.Limit > 0 && len(docs) > q.Limit {
		docs = docs[:q.Limit]
	}
	return docs, nil
}

func (m *MemoryClient) put(collection, id string, fields map[string]any) {
	if m.data[collection] == nil {
		m.data[collection] = map[string]map[string]any{}
	}
	doc := make(map[string]any, len(fields))
	for k, v := range fields {
		doc[k] = materialize(v)
	}
	m.data[collection][id] = doc
}

func materialize(v any) any {
	if _, ok := v.(serverTimestamp); ok {
		return time.Now().UTC()
	}
	return v
}

func copyFields(doc map[string]any) map[string]any {
	cp := make(map[string]any, len(doc))
	for k, v := range doc {
		cp[k] = v
	}
	return cp
}

func matches(value any, w Where) bool {
	switch w.Op {
	case OpEqual:
		return equal(value, w.Value)
	case OpNotEqual:
		return !equal(value, w.Value)
	case OpLessThan:
		return compare(value, w.Value) < 0
	case OpLessOrEqual:
		return compare(value, w.Value) <= 0
	case OpGreaterThan:
		return compare(value, w.Value) > 0
	case OpGreaterOrEqual:
		return compare(value, w.Value) >= 0
	case OpIn:
		rv := reflect.ValueOf(w.Value)
		if rv.Kind() != reflect.Slice {
			return false
		}
		for i := 0; i < rv.Len(); i++ {
			if equal(value, rv.Index(i).Interface()) {
				return true
			}
		}
		return false
	case OpArrayContains:
		rv := reflect.ValueOf(value)
		if rv.Kind() != reflect.Slice {
			return false
		}
		for i := 0; i < rv.Len(); i++ {
			if equal(rv.Index(i).Interface(), w.Value) {
				return true
			}
		}
		return false
	}
	return false
}

func equal(a, b any) bool {
	if at, ok := a.(time.Time); ok {
		bt, ok := b.(time.Time)
		return ok && at.Equal(bt)
	}
	if an, aok := asNumber(a); aok {
		bn, bok := asNumber(b)
		return bok && an == bn
	}
	return reflect.DeepEqual(a, b)
}

func compare(a, b any) int {
	if at, ok := a.(time.Time); ok {
		if bt, ok := b.(time.Time); ok {
			return at.Compare(bt)
		}
	}
	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			switch {
			case as < bs:
				return -1
			case as > bs:
				return 1
			}
			return 0
		}
	}
	an, aok := asNumber(a)
	bn, bok := asNumber(b)
	if aok && bok {
		switch {
		case an < bn:
			return -1
		case an > bn:
			return 1
		}
	}
	return 0
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMemoryClientCreate(t *testing.T) {
	m := NewMemoryClient()
	ctx := context.Background()

	err := m.Create(ctx, "things", "a", map[string]any{"name": "first"})
	assert.Nil(t, err)

	err = m.Create(ctx, "things", "a", map[string]any{"name": "second"})
	assert.ErrorIs(t, err, ErrAlreadyExists)

	doc, err := m.Get(ctx, "things", "a")
	assert.Nil(t, err)
	assert.Equal(t, "first", doc.Data["name"])
}

func TestMemoryClientGetNotFound(t *testing.T) {
	m := NewMemoryClient()
	_, err := m.Get(context.Background(), "things", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryClientSetOverwrites(t *testing.T) {
	m := NewMemoryClient()
	ctx := context.Background()

	assert.Nil(t, m.Create(ctx, "things", "a", map[string]any{"name": "first", "extra": true}))
	assert.Nil(t, m.Set(ctx, "things", "a", map[string]any{"name": "second"}))

	doc, err := m.Get(ctx, "things", "a")
	assert.Nil(t, err)
	assert.Equal(t, "second", doc.Data["name"])
	_, ok := doc.Data["extra"]
	assert.False(t, ok, "Set replaces the whole document")
}

func TestMemoryClientUpdate(t *testing.T) {
	m := NewMemoryClient()
	ctx := context.Background()

	err := m.Update(ctx, "things", "missing", map[string]any{"name": "x"})
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Nil(t, m.Create(ctx, "things", "a", map[string]any{"name": "first", "count": 1}))
	assert.Nil(t, m.Update(ctx, "things", "a", map[string]any{"count": 2}))

	doc, err := m.Get(ctx, "things", "a")
	assert.Nil(t, err)
	assert.Equal(t, "first", doc.Data["name"], "Update merges into the document")
	assert.Equal(t, 2, doc.Data["count"])
}

func TestMemoryClientServerTimestamp(t *testing.T) {
	m := NewMemoryClient()
	ctx := context.Background()

	before := time.Now().UTC()
	assert.Nil(t, m.Create(ctx, "things", "a", map[string]any{"createdAt": ServerTimestamp}))
	after := time.Now().UTC()

	doc, err := m.Get(ctx, "things", "a")
	assert.Nil(t, err)
	created, ok := doc.Data["createdAt"].(time.Time)
	assert.True(t, ok, "server timestamp should materialize as time.Time")
	assert.False(t, created.Before(before))
	assert.False(t, created.After(after))
}

func TestMemoryClientQuery(t *testing.T) {
	m := NewMemoryClient()
	ctx := context.Background()

	day := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	assert.Nil(t, m.Create(ctx, "bookings", "b1", map[string]any{"providerId": "p1", "date": day, "startTime": "14:00", "status": "pending"}))
	assert.Nil(t, m.Create(ctx, "bookings", "b2", map[string]any{"providerId": "p1", "date": day, "startTime": "09:00", "status": "confirmed"}))
	assert.Nil(t, m.Create(ctx, "bookings", "b3", map[string]any{"providerId": "p1", "date": day, "startTime": "11:00", "status": "cancelled"}))
	assert.Nil(t, m.Create(ctx, "bookings", "b4", map[string]any{"providerId": "p2", "date": day, "startTime": "09:00", "status": "pending"}))

	docs, err := m.Query(ctx, "bookings", Query{
		Where: []Where{
			{Path: "providerId", Op: OpEqual, Value: "p1"},
			{Path: "status", Op: OpIn, Value: []string{"pending", "confirmed"}},
		},
		OrderBy: "startTime",
	})
	assert.Nil(t, err)
	assert.Len(t, docs, 2)
	assert.Equal(t, "09:00", docs[0].Data["startTime"])
	assert.Equal(t, "14:00", docs[1].Data["startTime"])

	docs, err = m.Query(ctx, "bookings", Query{
		Where:   []Where{{Path: "date", Op: OpEqual, Value: day}},
		OrderBy: "startTime",
		Desc:    true,
		Limit:   2,
	})
	assert.Nil(t, err)
	assert.Len(t, docs, 2)
	assert.Equal(t, "14:00", docs[0].Data["startTime"])
}

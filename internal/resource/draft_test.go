package resource

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDraftSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryDraftStore(0)

	require.NoError(t, s.Save(ctx, "users", map[string]any{"firstName": "Ada"}))

	d, err := s.Load(ctx, "users")
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, "users", d.ResourceKey)
	assert.Equal(t, "Ada", d.Data["firstName"])
	assert.False(t, d.SavedAt.IsZero())
}

func TestDraftAbsent(t *testing.T) {
	s := NewMemoryDraftStore(0)
	d, err := s.Load(context.Background(), "users")
	require.NoError(t, err)
	assert.Nil(t, d)
}

func TestDraftSupersede(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryDraftStore(0)

	require.NoError(t, s.Save(ctx, "users", map[string]any{"firstName": "Ada"}))
	require.NoError(t, s.Save(ctx, "users", map[string]any{"firstName": "Grace"}))

	d, err := s.Load(ctx, "users")
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, "Grace", d.Data["firstName"])
	_, hasOld := d.Data["lastName"]
	assert.False(t, hasOld)
}

func TestDraftExpiry(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryDraftStore(0)

	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }
	require.NoError(t, s.Save(ctx, "users", map[string]any{"firstName": "Ada"}))

	// 23 hours later the draft is still live.
	s.now = func() time.Time { return base.Add(23 * time.Hour) }
	d, err := s.Load(ctx, "users")
	require.NoError(t, err)
	assert.NotNil(t, d)

	// 25 hours after saving it reads as absent.
	s.now = func() time.Time { return base.Add(25 * time.Hour) }
	d, err = s.Load(ctx, "users")
	require.NoError(t, err)
	assert.Nil(t, d)
}

func TestDraftCustomTTL(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryDraftStore(time.Hour)

	base := time.Now()
	s.now = func() time.Time { return base }
	require.NoError(t, s.Save(ctx, "users", map[string]any{"firstName": "Ada"}))

	s.now = func() time.Time { return base.Add(61 * time.Minute) }
	d, err := s.Load(ctx, "users")
	require.NoError(t, err)
	assert.Nil(t, d)
}

func TestDraftDiscardIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryDraftStore(0)

	require.NoError(t, s.Save(ctx, "users", map[string]any{"firstName": "Ada"}))
	require.NoError(t, s.Discard(ctx, "users"))
	require.NoError(t, s.Discard(ctx, "users"))

	d, err := s.Load(ctx, "users")
	require.NoError(t, err)
	assert.Nil(t, d)
}

func TestDraftsKeyedByResource(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryDraftStore(0)

	require.NoError(t, s.Save(ctx, "users", map[string]any{"v": "u"}))
	require.NoError(t, s.Save(ctx, "applications", map[string]any{"v": "a"}))
	require.NoError(t, s.Discard(ctx, "users"))

	d, err := s.Load(ctx, "applications")
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, "a", d.Data["v"])
}

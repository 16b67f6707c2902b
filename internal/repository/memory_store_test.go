package repository

import (
	"context"
	"study_plan_backend/internal/util"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryKVStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryKVStore()

	_, err := s.Get(ctx, "missing")
	assert.ErrorIs(t, err, util.ErrNotFound)

	value := []byte(`{"a":1}`)
	require.NoError(t, s.Set(ctx, "k1", value))
	value[0] = 'x'
	got, err := s.Get(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, string(got))

	require.NoError(t, s.Write(ctx, map[string][]byte{"k2": []byte("2"), "k3": []byte("3")}, []string{"k1"}))
	assert.ElementsMatch(t, []string{"k2", "k3"}, s.Keys())

	require.NoError(t, s.Delete(ctx, "k2", "k3", "absent"))
	assert.Empty(t, s.Keys())
	assert.NoError(t, s.Ping(ctx))
}

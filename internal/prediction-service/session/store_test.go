package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radieske/cricket-predict-poc/internal/prediction-service/upstream"
)

func TestMemoryStore_Lifecycle(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	_, ok, err := s.Current(ctx, "sess-1")
	require.NoError(t, err)
	assert.False(t, ok, "sessão ausente = não logado")

	alice := upstream.User{ID: 1, Username: "alice"}
	require.NoError(t, s.SignIn(ctx, "sess-1", alice))

	got, ok, err := s.Current(ctx, "sess-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, alice, got)

	// sessões são independentes
	_, ok, _ = s.Current(ctx, "sess-2")
	assert.False(t, ok)

	require.NoError(t, s.SignOut(ctx, "sess-1"))
	_, ok, _ = s.Current(ctx, "sess-1")
	assert.False(t, ok)
}

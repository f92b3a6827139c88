package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/worldstate/pkg/types"
)

func TestOpen(t *testing.T) {
	s, err := Open(types.Config{Backend: types.BackendSQLite, DataDir: t.TempDir()}, nil)
	require.NoError(t, err)
	defer s.Detach()

	id, err := s.Insert(context.Background(), types.TableLocation, types.Row{"name": "Harbor", "type": "town"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
}

func TestOpen_InvalidConfig(t *testing.T) {
	_, err := Open(types.Config{}, nil)
	assert.ErrorIs(t, err, types.ErrBackendEmpty)
}

func TestNewStore_Unattached(t *testing.T) {
	s := NewStore(nil)
	_, err := s.Get(context.Background(), types.TableCharacter, types.Filter{"id": "x"})
	assert.ErrorIs(t, err, types.ErrStoreClosed)
}

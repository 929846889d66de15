package store

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestJSONStore(t *testing.T) (*JSONStore, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "wine_notes.json")
	s, err := NewJSONStore(path)
	require.NoError(t, err)
	return s, path
}

func TestJSONStoreContract(t *testing.T) {
	runNoteStoreContract(t, func(t *testing.T) noteBackend {
		s, _ := newTestJSONStore(t)
		return s
	})
}

func TestJSONStoreReload(t *testing.T) {
	ctx := context.Background()
	s, path := newTestJSONStore(t)

	owner := mustUser(t, s, "a@x.com")
	created, err := s.CreateNote(ctx, owner, baroloInput())
	require.NoError(t, err)
	require.NoError(t, s.AddPhoto(ctx, owner, created.ID, "bottle.jpg"))

	// A fresh store over the same file sees everything.
	reopened, err := NewJSONStore(path)
	require.NoError(t, err)

	u, err := reopened.GetOrCreateUser(ctx, "a@x.com", "ignored")
	require.NoError(t, err)
	require.Equal(t, owner, u.ID)

	got, err := reopened.GetNote(ctx, owner, created.ID)
	require.NoError(t, err)
	require.Equal(t, "Barolo", got.WineName)
	require.Equal(t, []string{"bottle.jpg"}, got.Photos)
	require.True(t, created.CreatedAt.Equal(got.CreatedAt))
}

func TestJSONStoreConcurrentCreates(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestJSONStore(t)
	owner := mustUser(t, s, "a@x.com")

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.CreateNote(ctx, owner, baroloInput())
			require.NoError(t, err)
		}()
	}
	wg.Wait()

	list, err := s.ListNotes(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, n)

	seen := make(map[int64]bool)
	for _, note := range list {
		require.False(t, seen[note.ID], "id %d assigned twice", note.ID)
		seen[note.ID] = true
	}
}

func TestJSONStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestJSONStore(t)
	owner := mustUser(t, s, "a@x.com")

	created, err := s.CreateNote(ctx, owner, baroloInput())
	require.NoError(t, err)

	// Mutating a returned note must not leak into the store.
	created.WineName = "mutated"
	created.Photos = append(created.Photos, "sneaky.jpg")

	got, err := s.GetNote(ctx, owner, created.ID)
	require.NoError(t, err)
	require.Equal(t, "Barolo", got.WineName)
	require.Empty(t, got.Photos)
}

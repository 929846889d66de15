package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zhenyuanliu98-svg/Vinobook/internal/models"
)

// noteBackend is the full contract every note store must satisfy.
type noteBackend interface {
	GetOrCreateUser(ctx context.Context, email, name string) (*models.User, error)
	ListNotes(ctx context.Context, ownerID int64) ([]models.WineNote, error)
	GetNote(ctx context.Context, ownerID, noteID int64) (*models.WineNote, error)
	CreateNote(ctx context.Context, ownerID int64, in *models.WineNoteInput) (*models.WineNote, error)
	UpdateNote(ctx context.Context, ownerID, noteID int64, in *models.WineNoteInput) (*models.WineNote, error)
	DeleteNote(ctx context.Context, ownerID, noteID int64) error
	AddPhoto(ctx context.Context, ownerID, noteID int64, filename string) error
	RemovePhoto(ctx context.Context, ownerID, noteID int64, filename string) error
}

func strptr(s string) *string     { return &s }
func intptr(i int) *int           { return &i }
func floatptr(f float64) *float64 { return &f }

func baroloInput() *models.WineNoteInput {
	return &models.WineNoteInput{
		WineName: "Barolo",
		Varietal: "Nebbiolo",
		Color:    "red",
		Vintage:  intptr(2018),
		Region:   strptr("Piedmont"),
		Rating:   floatptr(4.5),
		Notes:    strptr("tar and roses"),
	}
}

// runNoteStoreContract exercises the behavior shared by every backend.
func runNoteStoreContract(t *testing.T, newBackend func(t *testing.T) noteBackend) {
	ctx := context.Background()

	t.Run("users are provisioned once per email", func(t *testing.T) {
		s := newBackend(t)
		a, err := s.GetOrCreateUser(ctx, "a@x.com", "a")
		require.NoError(t, err)
		again, err := s.GetOrCreateUser(ctx, "a@x.com", "ignored")
		require.NoError(t, err)
		require.Equal(t, a.ID, again.ID)
		require.Equal(t, "a", again.Name)

		b, err := s.GetOrCreateUser(ctx, "b@x.com", "b")
		require.NoError(t, err)
		require.NotEqual(t, a.ID, b.ID)
	})

	t.Run("create assigns id and timestamp, get round-trips", func(t *testing.T) {
		s := newBackend(t)
		owner := mustUser(t, s, "a@x.com")

		created, err := s.CreateNote(ctx, owner, baroloInput())
		require.NoError(t, err)
		require.Equal(t, int64(1), created.ID)
		require.Equal(t, owner, created.UserID)
		require.False(t, created.CreatedAt.IsZero())
		require.Equal(t, []string{}, created.Photos)

		got, err := s.GetNote(ctx, owner, created.ID)
		require.NoError(t, err)
		require.Equal(t, created, got)
		require.Equal(t, "Barolo", got.WineName)
		require.Equal(t, 2018, *got.Vintage)
		require.Equal(t, "Piedmont", *got.Region)
		require.InDelta(t, 4.5, *got.Rating, 0.001)
		require.Nil(t, got.Producer)
	})

	t.Run("ids increase monotonically", func(t *testing.T) {
		s := newBackend(t)
		owner := mustUser(t, s, "a@x.com")

		var last int64
		for i := 0; i < 3; i++ {
			n, err := s.CreateNote(ctx, owner, baroloInput())
			require.NoError(t, err)
			require.Greater(t, n.ID, last)
			last = n.ID
		}
	})

	t.Run("notes are invisible to non-owners", func(t *testing.T) {
		s := newBackend(t)
		ownerA := mustUser(t, s, "a@x.com")
		ownerB := mustUser(t, s, "b@x.com")

		n, err := s.CreateNote(ctx, ownerA, baroloInput())
		require.NoError(t, err)

		_, err = s.GetNote(ctx, ownerB, n.ID)
		require.ErrorIs(t, err, ErrNotFound)
		_, err = s.UpdateNote(ctx, ownerB, n.ID, baroloInput())
		require.ErrorIs(t, err, ErrNotFound)
		require.ErrorIs(t, s.DeleteNote(ctx, ownerB, n.ID), ErrNotFound)
		require.ErrorIs(t, s.AddPhoto(ctx, ownerB, n.ID, "x.jpg"), ErrNotFound)

		list, err := s.ListNotes(ctx, ownerB)
		require.NoError(t, err)
		require.Empty(t, list)

		// Still intact for the owner.
		_, err = s.GetNote(ctx, ownerA, n.ID)
		require.NoError(t, err)
	})

	t.Run("list returns newest first", func(t *testing.T) {
		s := newBackend(t)
		owner := mustUser(t, s, "a@x.com")

		for i := 0; i < 3; i++ {
			_, err := s.CreateNote(ctx, owner, baroloInput())
			require.NoError(t, err)
		}

		list, err := s.ListNotes(ctx, owner)
		require.NoError(t, err)
		require.Len(t, list, 3)
		for i := 1; i < len(list); i++ {
			require.False(t, list[i-1].CreatedAt.Before(list[i].CreatedAt),
				"list must be ordered by created_at descending")
		}
		require.Equal(t, int64(3), list[0].ID)
		require.Equal(t, int64(1), list[2].ID)
	})

	t.Run("update preserves id, owner and created_at", func(t *testing.T) {
		s := newBackend(t)
		owner := mustUser(t, s, "a@x.com")
		created, err := s.CreateNote(ctx, owner, baroloInput())
		require.NoError(t, err)

		in := &models.WineNoteInput{
			WineName: "Chianti Classico",
			Varietal: "Sangiovese",
			Color:    "red",
			Producer: strptr("Fontodi"),
		}
		updated, err := s.UpdateNote(ctx, owner, created.ID, in)
		require.NoError(t, err)
		require.Equal(t, created.ID, updated.ID)
		require.Equal(t, created.UserID, updated.UserID)
		require.Equal(t, created.CreatedAt, updated.CreatedAt)
		require.Equal(t, "Chianti Classico", updated.WineName)
		require.Equal(t, "Fontodi", *updated.Producer)
		require.Nil(t, updated.Vintage, "omitted optional fields are cleared")

		got, err := s.GetNote(ctx, owner, created.ID)
		require.NoError(t, err)
		require.Equal(t, updated, got)
	})

	t.Run("update with nil photos keeps attachments", func(t *testing.T) {
		s := newBackend(t)
		owner := mustUser(t, s, "a@x.com")
		created, err := s.CreateNote(ctx, owner, baroloInput())
		require.NoError(t, err)
		require.NoError(t, s.AddPhoto(ctx, owner, created.ID, "bottle.jpg"))

		updated, err := s.UpdateNote(ctx, owner, created.ID, baroloInput())
		require.NoError(t, err)
		require.Equal(t, []string{"bottle.jpg"}, updated.Photos)

		in := baroloInput()
		in.Photos = []string{}
		updated, err = s.UpdateNote(ctx, owner, created.ID, in)
		require.NoError(t, err)
		require.Equal(t, []string{}, updated.Photos, "explicit photos list replaces attachments")
	})

	t.Run("photo attach and detach keep order", func(t *testing.T) {
		s := newBackend(t)
		owner := mustUser(t, s, "a@x.com")
		created, err := s.CreateNote(ctx, owner, baroloInput())
		require.NoError(t, err)

		for _, f := range []string{"a.jpg", "b.jpg", "c.jpg"} {
			require.NoError(t, s.AddPhoto(ctx, owner, created.ID, f))
		}
		got, err := s.GetNote(ctx, owner, created.ID)
		require.NoError(t, err)
		require.Equal(t, []string{"a.jpg", "b.jpg", "c.jpg"}, got.Photos)

		require.NoError(t, s.RemovePhoto(ctx, owner, created.ID, "b.jpg"))
		got, err = s.GetNote(ctx, owner, created.ID)
		require.NoError(t, err)
		require.Equal(t, []string{"a.jpg", "c.jpg"}, got.Photos)

		require.ErrorIs(t, s.RemovePhoto(ctx, owner, created.ID, "b.jpg"), ErrPhotoNotFound)
	})

	t.Run("delete removes the note", func(t *testing.T) {
		s := newBackend(t)
		owner := mustUser(t, s, "a@x.com")
		created, err := s.CreateNote(ctx, owner, baroloInput())
		require.NoError(t, err)

		require.NoError(t, s.DeleteNote(ctx, owner, created.ID))
		_, err = s.GetNote(ctx, owner, created.ID)
		require.ErrorIs(t, err, ErrNotFound)
		require.ErrorIs(t, s.DeleteNote(ctx, owner, created.ID), ErrNotFound)
	})
}

func mustUser(t *testing.T, s noteBackend, email string) int64 {
	t.Helper()
	u, err := s.GetOrCreateUser(context.Background(), email, email)
	require.NoError(t, err)
	return u.ID
}

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/zhenyuanliu98-svg/Vinobook/internal/models"
)

const pgNoteColumns = `id, user_id, wine_name, vintage, varietal, region, producer, color,
	rating, tasting_date, price, appearance, aroma, taste, finish,
	food_pairing, notes, drinking_with, meal_type, created_at`

// PostgresStore is the relational backend for production deployments.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// Migrate creates the tables if they don't exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS users (
			id         BIGSERIAL PRIMARY KEY,
			email      VARCHAR(255) UNIQUE NOT NULL,
			name       VARCHAR(255),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS wine_notes (
			id            BIGSERIAL PRIMARY KEY,
			user_id       BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			wine_name     VARCHAR(255) NOT NULL,
			vintage       INTEGER,
			varietal      VARCHAR(255) NOT NULL,
			region        VARCHAR(255),
			producer      VARCHAR(255),
			color         VARCHAR(50) NOT NULL,
			rating        DOUBLE PRECISION,
			tasting_date  VARCHAR(50),
			price         DOUBLE PRECISION,
			appearance    TEXT,
			aroma         TEXT,
			taste         TEXT,
			finish        TEXT,
			food_pairing  TEXT,
			notes         TEXT,
			drinking_with VARCHAR(255),
			meal_type     VARCHAR(50),
			created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS note_photos (
			note_id  BIGINT NOT NULL REFERENCES wine_notes(id) ON DELETE CASCADE,
			filename TEXT NOT NULL,
			position INTEGER NOT NULL,
			PRIMARY KEY (note_id, filename)
		);

		CREATE INDEX IF NOT EXISTS idx_wine_notes_user_id ON wine_notes(user_id);
		CREATE INDEX IF NOT EXISTS idx_note_photos_note_id ON note_photos(note_id)
	`)
	return err
}

func (s *PostgresStore) GetOrCreateUser(ctx context.Context, email, name string) (*models.User, error) {
	u := &models.User{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, COALESCE(name, ''), created_at FROM users WHERE email = $1`, email,
	).Scan(&u.ID, &u.Email, &u.Name, &u.CreatedAt)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("get user: %w", err)
	}

	err = s.pool.QueryRow(ctx,
		`INSERT INTO users (email, name) VALUES ($1, $2)
		 RETURNING id, email, COALESCE(name, ''), created_at`,
		email, name,
	).Scan(&u.ID, &u.Email, &u.Name, &u.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}

func scanPgNote(row pgx.Row) (*models.WineNote, error) {
	n := &models.WineNote{}
	err := row.Scan(
		&n.ID, &n.UserID, &n.WineName, &n.Vintage, &n.Varietal, &n.Region,
		&n.Producer, &n.Color, &n.Rating, &n.TastingDate, &n.Price,
		&n.Appearance, &n.Aroma, &n.Taste, &n.Finish, &n.FoodPairing,
		&n.Notes, &n.DrinkingWith, &n.MealType, &n.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	n.CreatedAt = n.CreatedAt.UTC()
	n.Photos = []string{}
	return n, nil
}

func (s *PostgresStore) loadPhotos(ctx context.Context, noteID int64) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT filename FROM note_photos WHERE note_id = $1 ORDER BY position`, noteID)
	if err != nil {
		return nil, fmt.Errorf("get photos: %w", err)
	}
	defer rows.Close()

	photos := []string{}
	for rows.Next() {
		var f string
		if err := rows.Scan(&f); err != nil {
			return nil, fmt.Errorf("scan photo: %w", err)
		}
		photos = append(photos, f)
	}
	return photos, rows.Err()
}

func (s *PostgresStore) ListNotes(ctx context.Context, ownerID int64) ([]models.WineNote, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+pgNoteColumns+` FROM wine_notes
		 WHERE user_id = $1 ORDER BY created_at DESC, id ASC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	notes := make([]models.WineNote, 0)
	for rows.Next() {
		n, err := scanPgNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notes: %w", err)
	}

	for i := range notes {
		photos, err := s.loadPhotos(ctx, notes[i].ID)
		if err != nil {
			return nil, err
		}
		notes[i].Photos = photos
	}
	return notes, nil
}

func (s *PostgresStore) GetNote(ctx context.Context, ownerID, noteID int64) (*models.WineNote, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+pgNoteColumns+` FROM wine_notes WHERE id = $1 AND user_id = $2`,
		noteID, ownerID)
	n, err := scanPgNote(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get note: %w", err)
	}
	if n.Photos, err = s.loadPhotos(ctx, n.ID); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *PostgresStore) CreateNote(ctx context.Context, ownerID int64, in *models.WineNoteInput) (*models.WineNote, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var id int64
	err = tx.QueryRow(ctx, `
		INSERT INTO wine_notes (
			user_id, wine_name, vintage, varietal, region, producer, color,
			rating, tasting_date, price, appearance, aroma, taste, finish,
			food_pairing, notes, drinking_with, meal_type
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING id`,
		ownerID, in.WineName, in.Vintage, in.Varietal, in.Region, in.Producer,
		in.Color, in.Rating, in.TastingDate, in.Price, in.Appearance, in.Aroma,
		in.Taste, in.Finish, in.FoodPairing, in.Notes, in.DrinkingWith, in.MealType,
	).Scan(&id)
	if err != nil {
		return nil, fmt.Errorf("insert note: %w", err)
	}

	for pos, f := range in.Photos {
		if _, err := tx.Exec(ctx,
			`INSERT INTO note_photos (note_id, filename, position) VALUES ($1, $2, $3)`,
			id, f, pos,
		); err != nil {
			return nil, fmt.Errorf("insert photo: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return s.GetNote(ctx, ownerID, id)
}

func (s *PostgresStore) UpdateNote(ctx context.Context, ownerID, noteID int64, in *models.WineNoteInput) (*models.WineNote, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE wine_notes SET
			wine_name = $1, vintage = $2, varietal = $3, region = $4,
			producer = $5, color = $6, rating = $7, tasting_date = $8,
			price = $9, appearance = $10, aroma = $11, taste = $12,
			finish = $13, food_pairing = $14, notes = $15,
			drinking_with = $16, meal_type = $17
		WHERE id = $18 AND user_id = $19`,
		in.WineName, in.Vintage, in.Varietal, in.Region, in.Producer, in.Color,
		in.Rating, in.TastingDate, in.Price, in.Appearance, in.Aroma, in.Taste,
		in.Finish, in.FoodPairing, in.Notes, in.DrinkingWith, in.MealType,
		noteID, ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("update note: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}

	if in.Photos != nil {
		if _, err := tx.Exec(ctx, `DELETE FROM note_photos WHERE note_id = $1`, noteID); err != nil {
			return nil, fmt.Errorf("clear photos: %w", err)
		}
		for pos, f := range in.Photos {
			if _, err := tx.Exec(ctx,
				`INSERT INTO note_photos (note_id, filename, position) VALUES ($1, $2, $3)`,
				noteID, f, pos,
			); err != nil {
				return nil, fmt.Errorf("insert photo: %w", err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return s.GetNote(ctx, ownerID, noteID)
}

func (s *PostgresStore) DeleteNote(ctx context.Context, ownerID, noteID int64) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM wine_notes WHERE id = $1 AND user_id = $2`, noteID, ownerID)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) AddPhoto(ctx context.Context, ownerID, noteID int64, filename string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists int
	err = tx.QueryRow(ctx,
		`SELECT 1 FROM wine_notes WHERE id = $1 AND user_id = $2`, noteID, ownerID,
	).Scan(&exists)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("check note: %w", err)
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO note_photos (note_id, filename, position)
		VALUES ($1, $2, (SELECT COALESCE(MAX(position), -1) + 1 FROM note_photos WHERE note_id = $1))`,
		noteID, filename,
	); err != nil {
		return fmt.Errorf("insert photo: %w", err)
	}
	return tx.Commit(ctx)
}

func (s *PostgresStore) RemovePhoto(ctx context.Context, ownerID, noteID int64, filename string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var exists int
	err = tx.QueryRow(ctx,
		`SELECT 1 FROM wine_notes WHERE id = $1 AND user_id = $2`, noteID, ownerID,
	).Scan(&exists)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("check note: %w", err)
	}

	tag, err := tx.Exec(ctx,
		`DELETE FROM note_photos WHERE note_id = $1 AND filename = $2`, noteID, filename)
	if err != nil {
		return fmt.Errorf("delete photo: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrPhotoNotFound
	}
	return tx.Commit(ctx)
}

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure Go SQLite driver, no CGO

	"github.com/zhenyuanliu98-svg/Vinobook/internal/models"
)

// sqliteSchema is run on startup. Photos live in a normalized child table
// rather than an encoded column; position keeps attachment order.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS users (
    id         INTEGER PRIMARY KEY AUTOINCREMENT,
    email      TEXT UNIQUE NOT NULL,
    name       TEXT,
    created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS wine_notes (
    id            INTEGER PRIMARY KEY AUTOINCREMENT,
    user_id       INTEGER NOT NULL,
    wine_name     TEXT NOT NULL,
    vintage       INTEGER,
    varietal      TEXT NOT NULL,
    region        TEXT,
    producer      TEXT,
    color         TEXT NOT NULL,
    rating        REAL,
    tasting_date  TEXT,
    price         REAL,
    appearance    TEXT,
    aroma         TEXT,
    taste         TEXT,
    finish        TEXT,
    food_pairing  TEXT,
    notes         TEXT,
    drinking_with TEXT,
    meal_type     TEXT,
    created_at    INTEGER NOT NULL,
    FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
);

CREATE TABLE IF NOT EXISTS note_photos (
    note_id  INTEGER NOT NULL,
    filename TEXT NOT NULL,
    position INTEGER NOT NULL,
    PRIMARY KEY (note_id, filename),
    FOREIGN KEY (note_id) REFERENCES wine_notes(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_wine_notes_user_id ON wine_notes(user_id);
CREATE INDEX IF NOT EXISTS idx_note_photos_note_id ON note_photos(note_id);
`

const sqliteNoteColumns = `id, user_id, wine_name, vintage, varietal, region, producer, color,
	rating, tasting_date, price, appearance, aroma, taste, finish,
	food_pairing, notes, drinking_with, meal_type, created_at`

// SQLiteStore is the relational backend for development setups. It speaks
// database/sql through the pure Go driver so no CGO is needed.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at dbPath and bootstraps
// the schema.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) GetOrCreateUser(ctx context.Context, email, name string) (*models.User, error) {
	u := &models.User{Email: email}
	var createdAt int64
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, created_at FROM users WHERE email = ?", email,
	).Scan(&u.ID, &u.Name, &createdAt)
	if err == nil {
		u.CreatedAt = time.Unix(0, createdAt).UTC()
		return u, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get user: %w", err)
	}

	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		"INSERT INTO users (email, name, created_at) VALUES (?, ?, ?)",
		email, name, now.UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("user id: %w", err)
	}
	return &models.User{ID: id, Email: email, Name: name, CreatedAt: now}, nil
}

// scanNote reads one wine_notes row. The created_at column holds unix
// nanoseconds so ordering is exact and ties fall back to id order.
func scanNote(row interface{ Scan(...any) error }) (*models.WineNote, error) {
	n := &models.WineNote{}
	var createdAt int64
	err := row.Scan(
		&n.ID, &n.UserID, &n.WineName, &n.Vintage, &n.Varietal, &n.Region,
		&n.Producer, &n.Color, &n.Rating, &n.TastingDate, &n.Price,
		&n.Appearance, &n.Aroma, &n.Taste, &n.Finish, &n.FoodPairing,
		&n.Notes, &n.DrinkingWith, &n.MealType, &createdAt,
	)
	if err != nil {
		return nil, err
	}
	n.CreatedAt = time.Unix(0, createdAt).UTC()
	n.Photos = []string{}
	return n, nil
}

func (s *SQLiteStore) loadPhotos(ctx context.Context, q interface {
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
}, noteID int64) ([]string, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT filename FROM note_photos WHERE note_id = ? ORDER BY position", noteID)
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

func (s *SQLiteStore) ListNotes(ctx context.Context, ownerID int64) ([]models.WineNote, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+sqliteNoteColumns+" FROM wine_notes WHERE user_id = ? ORDER BY created_at DESC, id ASC",
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	defer rows.Close()

	notes := make([]models.WineNote, 0)
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("scan note: %w", err)
		}
		notes = append(notes, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate notes: %w", err)
	}

	for i := range notes {
		photos, err := s.loadPhotos(ctx, s.db, notes[i].ID)
		if err != nil {
			return nil, err
		}
		notes[i].Photos = photos
	}
	return notes, nil
}

func (s *SQLiteStore) GetNote(ctx context.Context, ownerID, noteID int64) (*models.WineNote, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+sqliteNoteColumns+" FROM wine_notes WHERE id = ? AND user_id = ?",
		noteID, ownerID,
	)
	n, err := scanNote(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get note: %w", err)
	}
	if n.Photos, err = s.loadPhotos(ctx, s.db, n.ID); err != nil {
		return nil, err
	}
	return n, nil
}

func (s *SQLiteStore) CreateNote(ctx context.Context, ownerID int64, in *models.WineNoteInput) (*models.WineNote, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	res, err := tx.ExecContext(ctx, `
		INSERT INTO wine_notes (
			user_id, wine_name, vintage, varietal, region, producer, color,
			rating, tasting_date, price, appearance, aroma, taste, finish,
			food_pairing, notes, drinking_with, meal_type, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ownerID, in.WineName, in.Vintage, in.Varietal, in.Region, in.Producer,
		in.Color, in.Rating, in.TastingDate, in.Price, in.Appearance, in.Aroma,
		in.Taste, in.Finish, in.FoodPairing, in.Notes, in.DrinkingWith,
		in.MealType, now.UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert note: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("note id: %w", err)
	}

	for pos, f := range in.Photos {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO note_photos (note_id, filename, position) VALUES (?, ?, ?)",
			id, f, pos,
		); err != nil {
			return nil, fmt.Errorf("insert photo: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return s.GetNote(ctx, ownerID, id)
}

func (s *SQLiteStore) UpdateNote(ctx context.Context, ownerID, noteID int64, in *models.WineNoteInput) (*models.WineNote, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE wine_notes SET
			wine_name = ?, vintage = ?, varietal = ?, region = ?, producer = ?,
			color = ?, rating = ?, tasting_date = ?, price = ?, appearance = ?,
			aroma = ?, taste = ?, finish = ?, food_pairing = ?, notes = ?,
			drinking_with = ?, meal_type = ?
		WHERE id = ? AND user_id = ?`,
		in.WineName, in.Vintage, in.Varietal, in.Region, in.Producer, in.Color,
		in.Rating, in.TastingDate, in.Price, in.Appearance, in.Aroma, in.Taste,
		in.Finish, in.FoodPairing, in.Notes, in.DrinkingWith, in.MealType,
		noteID, ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("update note: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return nil, ErrNotFound
	}

	if in.Photos != nil {
		if _, err := tx.ExecContext(ctx, "DELETE FROM note_photos WHERE note_id = ?", noteID); err != nil {
			return nil, fmt.Errorf("clear photos: %w", err)
		}
		for pos, f := range in.Photos {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO note_photos (note_id, filename, position) VALUES (?, ?, ?)",
				noteID, f, pos,
			); err != nil {
				return nil, fmt.Errorf("insert photo: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return s.GetNote(ctx, ownerID, noteID)
}

func (s *SQLiteStore) DeleteNote(ctx context.Context, ownerID, noteID int64) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM wine_notes WHERE id = ? AND user_id = ?", noteID, ownerID)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) AddPhoto(ctx context.Context, ownerID, noteID int64, filename string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx,
		"SELECT 1 FROM wine_notes WHERE id = ? AND user_id = ?", noteID, ownerID,
	).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("check note: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO note_photos (note_id, filename, position)
		VALUES (?, ?, (SELECT COALESCE(MAX(position), -1) + 1 FROM note_photos WHERE note_id = ?))`,
		noteID, filename, noteID,
	); err != nil {
		return fmt.Errorf("insert photo: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *SQLiteStore) RemovePhoto(ctx context.Context, ownerID, noteID int64, filename string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx,
		"SELECT 1 FROM wine_notes WHERE id = ? AND user_id = ?", noteID, ownerID,
	).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("check note: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		"DELETE FROM note_photos WHERE note_id = ? AND filename = ?", noteID, filename)
	if err != nil {
		return fmt.Errorf("delete photo: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return ErrPhotoNotFound
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// Package notes implements the owner-scoped wine note CRUD and the photo
// attachment lifecycle over HTTP.
package notes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/zhenyuanliu98-svg/Vinobook/internal/middleware"
	"github.com/zhenyuanliu98-svg/Vinobook/internal/models"
	"github.com/zhenyuanliu98-svg/Vinobook/internal/store"
)

// maxUploadSize caps photo uploads so a client can't stream unbounded.
const maxUploadSize = 10 << 20 // 10 MiB

// NoteStore defines the note persistence contract. Three backends
// implement it: JSON file, SQLite and PostgreSQL.
type NoteStore interface {
	ListNotes(ctx context.Context, ownerID int64) ([]models.WineNote, error)
	GetNote(ctx context.Context, ownerID, noteID int64) (*models.WineNote, error)
	CreateNote(ctx context.Context, ownerID int64, in *models.WineNoteInput) (*models.WineNote, error)
	UpdateNote(ctx context.Context, ownerID, noteID int64, in *models.WineNoteInput) (*models.WineNote, error)
	DeleteNote(ctx context.Context, ownerID, noteID int64) error
	AddPhoto(ctx context.Context, ownerID, noteID int64, filename string) error
	RemovePhoto(ctx context.Context, ownerID, noteID int64, filename string) error
}

// PhotoStore defines the interface for photo file storage.
type PhotoStore interface {
	Save(ctx context.Context, filename string, r io.Reader, size int64, contentType string) error
	Open(ctx context.Context, filename string) (io.ReadCloser, string, error)
	Remove(ctx context.Context, filename string) error
}

// Handler holds the note and photo HTTP handlers.
type Handler struct {
	store  NoteStore
	photos PhotoStore
}

func NewHandler(store NoteStore, photos PhotoStore) *Handler {
	return &Handler{store: store, photos: photos}
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// noteID parses the {id} URL parameter. A non-numeric id behaves like a
// nonexistent note.
func noteID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// List returns all notes of the current user, newest first.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.UserID(r.Context())
	notes, err := h.store.ListNotes(r.Context(), ownerID)
	if err != nil {
		slog.Error("list notes failed", "user_id", ownerID, "error", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

// Get returns a single owned note.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.UserID(r.Context())
	id, err := noteID(r)
	if err != nil {
		writeError(w, http.StatusNotFound, "note not found")
		return
	}

	note, err := h.store.GetNote(r.Context(), ownerID, id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "note not found")
		return
	}
	if err != nil {
		slog.Error("get note failed", "user_id", ownerID, "note_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// Create stores a new note for the current user. The store assigns id and
// created_at.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.UserID(r.Context())

	var in models.WineNoteInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := in.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	note, err := h.store.CreateNote(r.Context(), ownerID, &in)
	if err != nil {
		slog.Error("create note failed", "user_id", ownerID, "error", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	writeJSON(w, http.StatusCreated, note)
}

// Update replaces the mutable fields of an owned note.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.UserID(r.Context())
	id, err := noteID(r)
	if err != nil {
		writeError(w, http.StatusNotFound, "note not found")
		return
	}

	var in models.WineNoteInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := in.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	note, err := h.store.UpdateNote(r.Context(), ownerID, id, &in)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "note not found")
		return
	}
	if err != nil {
		slog.Error("update note failed", "user_id", ownerID, "note_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	writeJSON(w, http.StatusOK, note)
}

// Delete removes an owned note and every photo file it references.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.UserID(r.Context())
	id, err := noteID(r)
	if err != nil {
		writeError(w, http.StatusNotFound, "note not found")
		return
	}

	note, err := h.store.GetNote(r.Context(), ownerID, id)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "note not found")
		return
	}
	if err != nil {
		slog.Error("delete note lookup failed", "user_id", ownerID, "note_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	for _, f := range note.Photos {
		if err := h.photos.Remove(r.Context(), f); err != nil {
			slog.Warn("photo cleanup failed", "note_id", id, "filename", f, "error", err)
		}
	}

	if err := h.store.DeleteNote(r.Context(), ownerID, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "note not found")
			return
		}
		slog.Error("delete note failed", "user_id", ownerID, "note_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Note deleted successfully"})
}

// photoFilename derives a collision-resistant name from the owner, the
// note, a nanosecond timestamp and a random fragment, keeping the
// original extension. Two uploads in the same instant still differ.
func photoFilename(ownerID, noteID int64, original string) string {
	ext := strings.ToLower(filepath.Ext(original))
	return fmt.Sprintf("%d_%d_%d_%s%s",
		ownerID, noteID, time.Now().UnixNano(), uuid.NewString()[:8], ext)
}

// UploadPhoto attaches a photo to an owned note. The file is written
// first; the note record is only updated once the write has completed, so
// the record never references a partial file.
func (h *Handler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.UserID(r.Context())
	id, err := noteID(r)
	if err != nil {
		writeError(w, http.StatusNotFound, "note not found")
		return
	}

	if _, err := h.store.GetNote(r.Context(), ownerID, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "note not found")
			return
		}
		slog.Error("upload lookup failed", "user_id", ownerID, "note_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file upload required")
		return
	}
	defer file.Close()

	filename := photoFilename(ownerID, id, header.Filename)
	contentType := header.Header.Get("Content-Type")

	if err := h.photos.Save(r.Context(), filename, file, header.Size, contentType); err != nil {
		slog.Error("photo save failed", "note_id", id, "filename", filename, "error", err)
		writeError(w, http.StatusInternalServerError, "photo storage error")
		return
	}

	if err := h.store.AddPhoto(r.Context(), ownerID, id, filename); err != nil {
		// Don't leave an orphan file behind when the record update fails.
		if rmErr := h.photos.Remove(r.Context(), filename); rmErr != nil {
			slog.Warn("orphan photo cleanup failed", "filename", filename, "error", rmErr)
		}
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "note not found")
			return
		}
		slog.Error("photo attach failed", "note_id", id, "filename", filename, "error", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"filename": filename,
		"url":      "/uploads/" + filename,
	})
}

// DeletePhoto detaches a photo from an owned note, then deletes the file.
// The record update is authoritative; a missing file is not an error.
func (h *Handler) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.UserID(r.Context())
	id, err := noteID(r)
	if err != nil {
		writeError(w, http.StatusNotFound, "note not found")
		return
	}
	filename := chi.URLParam(r, "filename")

	err = h.store.RemovePhoto(r.Context(), ownerID, id, filename)
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "note not found")
		return
	}
	if errors.Is(err, store.ErrPhotoNotFound) {
		writeError(w, http.StatusNotFound, "photo not found")
		return
	}
	if err != nil {
		slog.Error("photo detach failed", "note_id", id, "filename", filename, "error", err)
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	if err := h.photos.Remove(r.Context(), filename); err != nil {
		slog.Warn("photo file removal failed", "filename", filename, "error", err)
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Photo deleted successfully"})
}

// ServePhoto streams a stored photo back by filename. Works for both the
// local-directory and object-storage backends.
func (h *Handler) ServePhoto(w http.ResponseWriter, r *http.Request) {
	filename := chi.URLParam(r, "filename")
	rc, contentType, err := h.photos.Open(r.Context(), filename)
	if err != nil {
		writeError(w, http.StatusNotFound, "photo not found")
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", contentType)
	if _, err := io.Copy(w, rc); err != nil {
		slog.Warn("photo stream interrupted", "filename", filename, "error", err)
	}
}

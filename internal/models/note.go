package models

import (
	"errors"
	"time"
)

// ErrInvalidInput is returned when a note payload is missing required fields.
var ErrInvalidInput = errors.New("wine_name, varietal and color are required")

// WineNote is a single tasting entry. Every note belongs to exactly one
// user; ID and CreatedAt are assigned by the store and never change.
type WineNote struct {
	ID           int64     `json:"id"`
	UserID       int64     `json:"user_id"`
	WineName     string    `json:"wine_name"`
	Vintage      *int      `json:"vintage"`
	Varietal     string    `json:"varietal"`
	Region       *string   `json:"region"`
	Producer     *string   `json:"producer"`
	Color        string    `json:"color"`
	Rating       *float64  `json:"rating"`
	TastingDate  *string   `json:"tasting_date"`
	Price        *float64  `json:"price"`
	Appearance   *string   `json:"appearance"`
	Aroma        *string   `json:"aroma"`
	Taste        *string   `json:"taste"`
	Finish       *string   `json:"finish"`
	FoodPairing  *string   `json:"food_pairing"`
	Notes        *string   `json:"notes"`
	DrinkingWith *string   `json:"drinking_with"`
	MealType     *string   `json:"meal_type"`
	Photos       []string  `json:"photos"`
	CreatedAt    time.Time `json:"created_at"`
}

// WineNoteInput is the JSON body for POST and PUT /api/notes. The caller
// never supplies id, user_id or created_at; a nil Photos field on update
// means "keep the attachments as they are".
type WineNoteInput struct {
	WineName     string   `json:"wine_name"`
	Vintage      *int     `json:"vintage"`
	Varietal     string   `json:"varietal"`
	Region       *string  `json:"region"`
	Producer     *string  `json:"producer"`
	Color        string   `json:"color"`
	Rating       *float64 `json:"rating"`
	TastingDate  *string  `json:"tasting_date"`
	Price        *float64 `json:"price"`
	Appearance   *string  `json:"appearance"`
	Aroma        *string  `json:"aroma"`
	Taste        *string  `json:"taste"`
	Finish       *string  `json:"finish"`
	FoodPairing  *string  `json:"food_pairing"`
	Notes        *string  `json:"notes"`
	DrinkingWith *string  `json:"drinking_with"`
	MealType     *string  `json:"meal_type"`
	Photos       []string `json:"photos"`
}

// Validate checks the minimum contract for a stored note.
func (in *WineNoteInput) Validate() error {
	if in.WineName == "" || in.Varietal == "" || in.Color == "" {
		return ErrInvalidInput
	}
	return nil
}

// Apply copies the mutable fields of in onto n, leaving ID, UserID and
// CreatedAt untouched. Photos are only replaced when the input carries them.
func (in *WineNoteInput) Apply(n *WineNote) {
	n.WineName = in.WineName
	n.Vintage = in.Vintage
	n.Varietal = in.Varietal
	n.Region = in.Region
	n.Producer = in.Producer
	n.Color = in.Color
	n.Rating = in.Rating
	n.TastingDate = in.TastingDate
	n.Price = in.Price
	n.Appearance = in.Appearance
	n.Aroma = in.Aroma
	n.Taste = in.Taste
	n.Finish = in.Finish
	n.FoodPairing = in.FoodPairing
	n.Notes = in.Notes
	n.DrinkingWith = in.DrinkingWith
	n.MealType = in.MealType
	if in.Photos != nil {
		n.Photos = in.Photos
	}
}

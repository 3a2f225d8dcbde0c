// ================== internal/features/items/model.go ==================
package items

import (
	"fmt"
	"strings"
	"time"

	"github.com/xyz-asif/lostfound/internal/pkg/validator"
	appErrors "github.com/xyz-asif/lostfound/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Status says whether an item was lost or found
type Status string

const (
	StatusLost  Status = "lost"
	StatusFound Status = "found"
)

// Valid reports whether s is lost or found
func (s Status) Valid() bool {
	return s == StatusLost || s == StatusFound
}

// Opposite returns the status an item is matched against
func (s Status) Opposite() Status {
	if s == StatusLost {
		return StatusFound
	}
	return StatusLost
}

// MatchStatus is the state of an item's match link. MatchNone is stored as an absent field.
type MatchStatus string

const (
	MatchNone     MatchStatus = ""
	MatchPending  MatchStatus = "pending"
	MatchVerified MatchStatus = "verified"
)

var (
	// ErrMatchVerified is returned when an item is edited after its match was verified
	ErrMatchVerified = fmt.Errorf("%w: cannot update after verification", appErrors.ErrConflict)

	// ErrSubjectLinked is returned by Store.LinkPending when the subject was linked concurrently
	ErrSubjectLinked = fmt.Errorf("%w: subject already linked", appErrors.ErrConflict)
)

// InputError is a validation failure with a message safe to show the caller
type InputError struct {
	Message string
}

func (e *InputError) Error() string { return e.Message }

func (e *InputError) Unwrap() error { return appErrors.ErrValidation }

// Item represents a lost or found report
// @Description Lost or found item with its match link
type Item struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"id" example:"507f1f77bcf86cd799439011"`
	Name        string              `bson:"name" json:"name" example:"Blue Backpack"`
	Description string              `bson:"description,omitempty" json:"description,omitempty" example:"Has a laptop sleeve"`
	Location    string              `bson:"location" json:"location" example:"Library"`
	Date        *time.Time          `bson:"date,omitempty" json:"date,omitempty" example:"2024-03-05T00:00:00Z"`
	Image       string              `bson:"image,omitempty" json:"image,omitempty" example:"/uploads/4f6c.jpg"`
	ImageKey    string              `bson:"imageKey,omitempty" json:"-"`
	Status      Status              `bson:"status" json:"status" example:"lost" enums:"lost,found"`
	ReportedBy  primitive.ObjectID  `bson:"reportedBy" json:"reportedBy" example:"507f1f77bcf86cd799439012"`
	MatchedWith *primitive.ObjectID `bson:"matchedWith,omitempty" json:"matchedWith,omitempty" example:"507f1f77bcf86cd799439013"`
	MatchStatus MatchStatus         `bson:"matchStatus,omitempty" json:"matchStatus,omitempty" example:"pending" enums:"pending,verified"`
	CreatedAt   time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// IsLinked reports whether the item currently points at a counterpart
func (i *Item) IsLinked() bool {
	return i.MatchedWith != nil
}

// ItemInput is the report/update payload, sent as multipart form or JSON
// @Description Item fields. On update, empty fields keep their current value.
type ItemInput struct {
	Name        string `form:"name" json:"name" binding:"max=120" example:"Blue Backpack"`
	Description string `form:"description" json:"description" binding:"max=2000" example:"Has a laptop sleeve"`
	Location    string `form:"location" json:"location" binding:"max=120" example:"Library"`
	Date        string `form:"date" json:"date" binding:"max=35" example:"2024-03-05"`
}

// NewItem builds a new unlinked item. Name and location are required.
func NewItem(owner primitive.ObjectID, status Status, in ItemInput) (*Item, error) {
	if !status.Valid() {
		return nil, &InputError{Message: "status must be lost or found"}
	}
	if owner.IsZero() {
		return nil, &InputError{Message: "owner is required"}
	}

	name := strings.TrimSpace(in.Name)
	location := strings.TrimSpace(in.Location)
	if name == "" || location == "" {
		return nil, &InputError{Message: "Name and location are required."}
	}

	item := &Item{
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Location:    location,
		Status:      status,
		ReportedBy:  owner,
	}
	date, err := parseDate(in.Date)
	if err != nil {
		return nil, err
	}
	item.Date = date

	return item, nil
}

// Apply overwrites fields given in the input, keeping current values for empty ones
func (i *Item) Apply(in ItemInput) error {
	if v := strings.TrimSpace(in.Name); v != "" {
		i.Name = v
	}
	if v := strings.TrimSpace(in.Description); v != "" {
		i.Description = v
	}
	if v := strings.TrimSpace(in.Location); v != "" {
		i.Location = v
	}
	date, err := parseDate(in.Date)
	if err != nil {
		return err
	}
	if date != nil {
		i.Date = date
	}
	return nil
}

func parseDate(s string) (*time.Time, error) {
	if validator.IsBlank(s) {
		return nil, nil
	}
	t, ok := validator.ParseDate(s)
	if !ok {
		return nil, &InputError{Message: "date must be YYYY-MM-DD or RFC3339"}
	}
	t = t.UTC()
	return &t, nil
}

// Reporter is the public summary of an item's owner
type Reporter struct {
	ID       primitive.ObjectID `json:"id" example:"507f1f77bcf86cd799439012"`
	Username string             `json:"username" example:"alice"`
}

// MatchedItem is the counterpart shown next to an item
type MatchedItem struct {
	ID          primitive.ObjectID `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Location    string             `json:"location"`
	Date        *time.Time         `json:"date,omitempty"`
	Image       string             `json:"image,omitempty"`
	Status      Status             `json:"status"`
	MatchStatus MatchStatus        `json:"matchStatus,omitempty"`
	Reporter    *Reporter          `json:"reporter,omitempty"`
}

// ItemView is an item with its reporter and, when linked, its counterpart
type ItemView struct {
	Item
	Reporter *Reporter    `json:"reporter,omitempty"`
	Match    *MatchedItem `json:"match,omitempty"`
}

// ReportResult is returned by report and update
type ReportResult struct {
	Item    *Item  `json:"item"`
	Matches []Item `json:"matches"`
}

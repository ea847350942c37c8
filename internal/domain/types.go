package domain

import (
	"fmt"
	"time"
)

// DateLayout is the calendar date format used for event dates and grid keys.
const DateLayout = "2006-01-02"

// AnonymousAuthor is stored when a post or comment is submitted without an author.
const AnonymousAuthor = "anonymous"

// Event is a dated calendar entry
type Event struct {
	ID    string `json:"id"`
	Date  string `json:"date"`
	Title string `json:"title"`
}

// Validate checks a decoded event before it is handed to callers
func (e Event) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("event: missing id")
	}
	if e.Title == "" {
		return fmt.Errorf("event %s: missing title", e.ID)
	}
	if _, err := time.Parse(DateLayout, e.Date); err != nil {
		return fmt.Errorf("event %s: bad date %q", e.ID, e.Date)
	}
	return nil
}

// Category classifies community posts
type Category string

const (
	CategoryNotice Category = "notice"
	CategoryFree   Category = "free"
	CategoryColumn Category = "column"
)

// Categories lists the known post categories in display order.
var Categories = []Category{CategoryNotice, CategoryFree, CategoryColumn}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Comment is appended to a post; it has no lifecycle of its own
type Comment struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// CommunityPost is a full community board record
type CommunityPost struct {
	ID        string    `json:"id"`
	Category  Category  `json:"category"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	Views     int       `json:"views"`
	Likes     int       `json:"likes"`
	Comments  []Comment `json:"comments"`
}

// Validate checks a decoded post before it is handed to callers
func (p CommunityPost) Validate() error {
	if p.ID == "" {
		return fmt.Errorf("post: missing id")
	}
	if p.Title == "" {
		return fmt.Errorf("post %s: missing title", p.ID)
	}
	if p.Views < 0 || p.Likes < 0 {
		return fmt.Errorf("post %s: negative counters", p.ID)
	}
	for i, c := range p.Comments {
		if c.ID == "" {
			return fmt.Errorf("post %s: comment %d has no id", p.ID, i)
		}
	}
	return nil
}

// Summary projects the post for list display.
// Replies is always len(Comments); no counter is stored.
func (p CommunityPost) Summary() PostSummary {
	return PostSummary{
		ID:        p.ID,
		Category:  p.Category,
		Title:     p.Title,
		Replies:   len(p.Comments),
		Author:    p.Author,
		CreatedAt: p.CreatedAt,
	}
}

// PostSummary is the list view of a CommunityPost
type PostSummary struct {
	ID        string    `json:"id"`
	Category  Category  `json:"category"`
	Title     string    `json:"title"`
	Replies   int       `json:"replies"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
}

// ProfileStats counts what one author wrote across the board
type ProfileStats struct {
	Author   string `json:"author"`
	Posts    int    `json:"posts"`
	Comments int    `json:"comments"`
}

// Allocation weight policy. Items without a stored value count as
// DefaultAllocationValue.
const (
	MinAllocationValue     = 0
	MaxAllocationValue     = 10
	DefaultAllocationValue = 1
)

// AllocationValue is the weight a user gave one catalog item
type AllocationValue struct {
	ItemID string `json:"itemId"`
	Value  int    `json:"value"`
}

// Validate checks a decoded allocation value
func (v AllocationValue) Validate() error {
	if v.ItemID == "" {
		return fmt.Errorf("allocation: missing item id")
	}
	if v.Value < MinAllocationValue || v.Value > MaxAllocationValue {
		return fmt.Errorf("allocation %s: value %d out of range", v.ItemID, v.Value)
	}
	return nil
}

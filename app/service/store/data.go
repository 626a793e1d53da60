package store

import "strings"

type ItemType string

const (
	TypeCharacter ItemType = "character"
	TypeEvent     ItemType = "event"
	TypeTerm      ItemType = "term"
)

var ItemTypes = []ItemType{TypeCharacter, TypeEvent, TypeTerm}

func (t ItemType) Valid() bool {
	switch t {
	case TypeCharacter, TypeEvent, TypeTerm:
		return true
	}

	return false
}

// Plural is the tab name the dashboard groups items of this type under.
func (t ItemType) Plural() string {
	return string(t) + "s"
}

type Importance string

const (
	ImportanceHigh   Importance = "high"
	ImportanceMedium Importance = "medium"
	ImportanceLow    Importance = "low"
)

func (i Importance) Valid() bool {
	switch i {
	case ImportanceHigh, ImportanceMedium, ImportanceLow:
		return true
	}

	return false
}

const PlaceholderRelationship = "New Relationship"

type Relationship struct {
	TargetID    string `json:"targetId"`
	Description string `json:"description"`
}

type HistoricalItem struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	Description   string         `json:"description"`
	Type          ItemType       `json:"type"`
	Importance    Importance     `json:"importance"`
	Year          string         `json:"year"`
	Relationships []Relationship `json:"relationships"`
}

func (it HistoricalItem) clone() HistoricalItem {
	rels := make([]Relationship, len(it.Relationships))
	copy(rels, it.Relationships)
	it.Relationships = rels

	return it
}

func (it HistoricalItem) HasRelationship(targetID string) bool {
	for _, rel := range it.Relationships {
		if rel.TargetID == targetID {
			return true
		}
	}

	return false
}

// NewItem is the manual entry form: everything but the identifier and relationships.
type NewItem struct {
	Title       string     `json:"title" validate:"required"`
	Description string     `json:"description"`
	Type        ItemType   `json:"type" validate:"required,oneof=character event term"`
	Importance  Importance `json:"importance" validate:"omitempty,oneof=high medium low"`
	Year        string     `json:"year"`
}

func (n *NewItem) normalize() {
	n.Title = strings.TrimSpace(n.Title)
	n.Year = strings.TrimSpace(n.Year)
	if n.Importance == "" {
		n.Importance = ImportanceMedium
	}
}

// ItemPatch holds the scalar fields an editor commits; nil fields are left untouched.
type ItemPatch struct {
	Title       *string     `json:"title,omitempty"`
	Description *string     `json:"description,omitempty"`
	Importance  *Importance `json:"importance,omitempty"`
	Year        *string     `json:"year,omitempty"`
}

func (p ItemPatch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.Importance == nil && p.Year == nil
}

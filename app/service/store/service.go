package store

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/elliotchance/pie/v2"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/samber/do"
	"github.com/samber/oops"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Service is the single owned collection of historical items. Every reader gets copies,
// every writer goes through the methods below.
type Service struct {
	mu       sync.RWMutex
	items    []*HistoricalItem
	index    map[string]int
	revision uint64
}

func New(_ *do.Injector) (*Service, error) {
	return &Service{
		index: make(map[string]int),
	}, nil
}

func NewID() string {
	return uuid.NewString()
}

func (s *Service) Add(input NewItem) (string, error) {
	input.normalize()
	if err := validate.Struct(input); err != nil {
		return "", oops.In("store").Wrapf(fmt.Errorf("%w: %w", ErrInvalidItem, err), "add")
	}

	item := &HistoricalItem{
		ID:            NewID(),
		Title:         input.Title,
		Description:   input.Description,
		Type:          input.Type,
		Importance:    input.Importance,
		Year:          input.Year,
		Relationships: []Relationship{},
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.appendLocked(item)

	slog.Debug("Item added", "id", item.ID, "title", item.Title, "type", item.Type)

	return item.ID, nil
}

// AddBatch appends items whose identifiers were minted by the caller. Either every item
// is stored or none is.
func (s *Service) AddBatch(batch []HistoricalItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkBatchLocked(batch); err != nil {
		return oops.In("store").With("batch_size", len(batch)).Wrapf(err, "add batch")
	}

	for _, item := range batch {
		stored := item.clone()
		s.appendLocked(&stored)
	}

	return nil
}

func (s *Service) checkBatchLocked(batch []HistoricalItem) error {
	ids := make(map[string]struct{}, len(batch))

	for _, item := range batch {
		if item.ID == "" {
			return fmt.Errorf("%w: empty id", ErrInvalidItem)
		}
		if strings.TrimSpace(item.Title) == "" {
			return fmt.Errorf("%w: item %s has empty title", ErrInvalidItem, item.ID)
		}
		if !item.Type.Valid() {
			return fmt.Errorf("%w: item %s has type %q", ErrInvalidItem, item.ID, item.Type)
		}
		if !item.Importance.Valid() {
			return fmt.Errorf("%w: item %s has importance %q", ErrInvalidItem, item.ID, item.Importance)
		}
		if _, ok := s.index[item.ID]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateID, item.ID)
		}
		if _, ok := ids[item.ID]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateID, item.ID)
		}

		ids[item.ID] = struct{}{}
	}

	for _, item := range batch {
		targets := make(map[string]struct{}, len(item.Relationships))

		for _, rel := range item.Relationships {
			if _, ok := targets[rel.TargetID]; ok {
				return fmt.Errorf("%w: %s has two relationships to %q", ErrInvalidRelationship, item.ID, rel.TargetID)
			}
			targets[rel.TargetID] = struct{}{}

			_, inBatch := ids[rel.TargetID]
			_, inStore := s.index[rel.TargetID]
			if !inBatch && !inStore {
				return fmt.Errorf("%w: %s -> %q", ErrDanglingTarget, item.ID, rel.TargetID)
			}
		}
	}

	return nil
}

func (s *Service) appendLocked(item *HistoricalItem) {
	if item.Relationships == nil {
		item.Relationships = []Relationship{}
	}

	s.index[item.ID] = len(s.items)
	s.items = append(s.items, item)
	s.revision++
}

func (s *Service) Update(id string, patch ItemPatch) error {
	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return oops.In("store").With("id", id).Wrapf(ErrInvalidItem, "empty title")
		}
		patch.Title = &title
	}
	if patch.Importance != nil && !patch.Importance.Valid() {
		return oops.In("store").With("id", id, "importance", *patch.Importance).Wrapf(ErrInvalidItem, "unknown importance")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.index[id]
	if !ok {
		return oops.In("store").With("id", id).Wrapf(ErrNotFound, "update")
	}

	if patch.Empty() {
		return nil
	}

	item := s.items[idx]
	if patch.Title != nil {
		item.Title = *patch.Title
	}
	if patch.Description != nil {
		item.Description = *patch.Description
	}
	if patch.Importance != nil {
		item.Importance = *patch.Importance
	}
	if patch.Year != nil {
		item.Year = strings.TrimSpace(*patch.Year)
	}

	s.revision++

	return nil
}

func (s *Service) Get(id string) (HistoricalItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.index[id]
	if !ok {
		return HistoricalItem{}, false
	}

	return s.items[idx].clone(), true
}

func (s *Service) FindByTitle(title string) (HistoricalItem, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx := pie.FindFirstUsing(s.items, func(item *HistoricalItem) bool {
		return item.Title == title
	})
	if idx < 0 {
		return HistoricalItem{}, false
	}

	return s.items[idx].clone(), true
}

func (s *Service) List() []HistoricalItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]HistoricalItem, 0, len(s.items))
	for _, item := range s.items {
		result = append(result, item.clone())
	}

	return result
}

func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.items)
}

// Revision grows by one with every successful mutation.
func (s *Service) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.revision
}

// Connect adds a directed relationship from source to target. Connecting an already
// connected pair changes nothing and reports added=false.
func (s *Service) Connect(sourceID, targetID, description string) (bool, error) {
	if sourceID == targetID {
		return false, oops.In("store").With("id", sourceID).Wrapf(ErrInvalidRelationship, "self reference")
	}

	description = strings.TrimSpace(description)
	if description == "" {
		description = PlaceholderRelationship
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	srcIdx, ok := s.index[sourceID]
	if !ok {
		return false, oops.In("store").With("id", sourceID).Wrapf(ErrNotFound, "connect source")
	}
	if _, ok = s.index[targetID]; !ok {
		return false, oops.In("store").With("id", targetID).Wrapf(ErrNotFound, "connect target")
	}

	source := s.items[srcIdx]
	if source.HasRelationship(targetID) {
		return false, nil
	}

	source.Relationships = append(source.Relationships, Relationship{
		TargetID:    targetID,
		Description: description,
	})
	s.revision++

	slog.Debug("Items connected", "source", sourceID, "target", targetID, "description", description)

	return true, nil
}

// Related returns the existing targets of the item's relationships in relationship order.
func (s *Service) Related(id string) ([]HistoricalItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.index[id]
	if !ok {
		return nil, oops.In("store").With("id", id).Wrapf(ErrNotFound, "related")
	}

	result := make([]HistoricalItem, 0, len(s.items[idx].Relationships))
	for _, rel := range s.items[idx].Relationships {
		targetIdx, ok := s.index[rel.TargetID]
		if !ok {
			continue
		}
		result = append(result, s.items[targetIdx].clone())
	}

	return result, nil
}

func (s *Service) Export() ([]byte, error) {
	data, err := json.MarshalIndent(s.List(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal items: %w", err)
	}

	return data, nil
}

// Import appends the items of an export document, keeping their identifiers.
func (s *Service) Import(data []byte) (int, error) {
	var items []HistoricalItem
	if err := json.Unmarshal(data, &items); err != nil {
		return 0, oops.In("store").Wrapf(fmt.Errorf("%w: %w", ErrMalformed, err), "import")
	}

	for i := range items {
		items[i].Title = strings.TrimSpace(items[i].Title)
		if items[i].Importance == "" {
			items[i].Importance = ImportanceMedium
		}
	}

	if err := s.AddBatch(items); err != nil {
		return 0, err
	}

	slog.Info("Items imported", "count", len(items))

	return len(items), nil
}

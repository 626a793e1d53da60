package resolver

import (
	"errors"
	"fmt"
	"historydash/app/config"
	"historydash/app/service/extract"
	"historydash/app/service/store"
	"log/slog"
	"strings"

	"github.com/samber/do"
	"github.com/samber/oops"
)

// Policy decides what happens to a connection whose target title matches nothing.
type Policy string

const (
	// PolicyStub mints one placeholder term per unknown title and links to it.
	PolicyStub Policy = "stub"
	// PolicySkip drops the connection with a warning.
	PolicySkip Policy = "skip"
)

const StubDescription = "Created automatically for an unresolved relationship target"

var ErrResolution = errors.New("resolution failed")

type Result struct {
	Items   []store.HistoricalItem `json:"items"`
	Stubs   []string               `json:"stubs"`
	Skipped []Skipped              `json:"skipped"`
}

type Skipped struct {
	Source       string `json:"source"`
	Target       string `json:"target"`
	Relationship string `json:"relationship"`
	Reason       string `json:"reason"`
}

type Service struct {
	store  *store.Service
	policy Policy
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return NewWithPolicy(do.MustInvoke[*store.Service](di), Policy(cfg.Extract.UnresolvedPolicy))
}

func NewWithPolicy(st *store.Service, policy Policy) (*Service, error) {
	if policy != PolicyStub && policy != PolicySkip {
		return nil, fmt.Errorf("unknown unresolved policy %q", policy)
	}

	return &Service{
		store:  st,
		policy: policy,
	}, nil
}

type pending struct {
	item        store.HistoricalItem
	connections []extract.Connection
}

// Resolve turns a title-linked batch into identifier-linked items without touching the
// store. Every relationship of the result targets an item of the result or of the store.
func (s *Service) Resolve(batch *extract.Batch) (*Result, error) {
	if batch == nil {
		return nil, oops.In("resolver").Wrapf(ErrResolution, "empty batch")
	}

	groups := []struct {
		typ      store.ItemType
		entities []extract.Entity
	}{
		{store.TypeCharacter, batch.Characters},
		{store.TypeEvent, batch.Events},
		{store.TypeTerm, batch.Terms},
	}

	entries := make([]*pending, 0, batch.Len())
	lookup := make(map[string]string, batch.Len())

	for _, group := range groups {
		for i, entity := range group.entities {
			title := strings.TrimSpace(entity.Title.String())
			if title == "" {
				return nil, oops.In("resolver").
					With("type", group.typ, "index", i).
					Wrapf(fmt.Errorf("%w: entity without title", ErrResolution), "resolve")
			}

			entry := &pending{
				item: store.HistoricalItem{
					ID:            store.NewID(),
					Title:         title,
					Description:   entity.Description.String(),
					Type:          group.typ,
					Importance:    store.ImportanceMedium,
					Year:          entity.Year.String(),
					Relationships: []store.Relationship{},
				},
				connections: entity.Connections,
			}
			entries = append(entries, entry)

			if _, ok := lookup[title]; ok {
				slog.Warn("Duplicate title in extraction batch", "title", title, "type", group.typ)
				continue
			}
			lookup[title] = entry.item.ID
		}
	}

	existing := s.existingTitles()

	result := &Result{
		Stubs:   []string{},
		Skipped: []Skipped{},
	}

	var stubs []store.HistoricalItem

	for _, entry := range entries {
		for _, conn := range entry.connections {
			target := strings.TrimSpace(conn.Target.String())
			description := strings.TrimSpace(conn.Relationship.String())
			if description == "" {
				description = store.PlaceholderRelationship
			}

			skip := func(reason string) {
				result.Skipped = append(result.Skipped, Skipped{
					Source:       entry.item.Title,
					Target:       target,
					Relationship: description,
					Reason:       reason,
				})
			}

			if target == "" {
				skip("empty target")
				continue
			}

			targetID, ok := lookup[target]
			if !ok {
				targetID, ok = existing[target]
			}
			if !ok {
				if s.policy == PolicySkip {
					slog.Warn("Skipping connection to unknown title",
						"source", entry.item.Title,
						"target", target)
					skip("unknown target")
					continue
				}

				stub := store.HistoricalItem{
					ID:            store.NewID(),
					Title:         target,
					Description:   StubDescription,
					Type:          store.TypeTerm,
					Importance:    store.ImportanceLow,
					Relationships: []store.Relationship{},
				}
				stubs = append(stubs, stub)
				result.Stubs = append(result.Stubs, target)
				lookup[target] = stub.ID
				targetID = stub.ID

				slog.Info("Minted stub for unknown title", "source", entry.item.Title, "target", target)
			}

			if targetID == entry.item.ID {
				skip("self reference")
				continue
			}
			if entry.item.HasRelationship(targetID) {
				continue
			}

			entry.item.Relationships = append(entry.item.Relationships, store.Relationship{
				TargetID:    targetID,
				Description: description,
			})
		}
	}

	result.Items = make([]store.HistoricalItem, 0, len(entries)+len(stubs))
	for _, entry := range entries {
		result.Items = append(result.Items, entry.item)
	}
	result.Items = append(result.Items, stubs...)

	return result, nil
}

func (s *Service) existingTitles() map[string]string {
	items := s.store.List()

	titles := make(map[string]string, len(items))
	for _, item := range items {
		if _, ok := titles[item.Title]; !ok {
			titles[item.Title] = item.ID
		}
	}

	return titles
}

// Commit resolves the batch and stores all of its items, or none of them.
func (s *Service) Commit(batch *extract.Batch) (*Result, error) {
	result, err := s.Resolve(batch)
	if err != nil {
		return nil, err
	}

	if err = s.store.AddBatch(result.Items); err != nil {
		return nil, oops.In("resolver").Wrapf(fmt.Errorf("%w: %w", ErrResolution, err), "commit")
	}

	return result, nil
}

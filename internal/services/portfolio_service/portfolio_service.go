package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"portfolio_cms/internal/domain/models"
	"portfolio_cms/internal/lib/logger/sl"
	"portfolio_cms/internal/realtime"
	"portfolio_cms/internal/repository"
	"portfolio_cms/internal/storage"
)

// profileDocID is the fixed key of the singleton profile document.
const profileDocID = "main"

// Notifier receives a nudge after every committed write so subscribers get
// a fresh snapshot. Satisfied by *realtime.Hub.
type Notifier interface {
	Notify(collection models.Collection)
}

type PortfolioService struct {
	log      *slog.Logger
	repo     repository.DocumentRepository
	notifier Notifier
}

func NewPortfolioService(log *slog.Logger, repo repository.DocumentRepository, notifier Notifier) *PortfolioService {
	return &PortfolioService{
		log:      log,
		repo:     repo,
		notifier: notifier,
	}
}

// SetNotifier breaks the construction cycle with the hub: the hub reads
// snapshots from this service, while this service nudges the hub on writes.
func (s *PortfolioService) SetNotifier(n Notifier) {
	s.notifier = n
}

func (s *PortfolioService) notify(collection models.Collection) {
	if s.notifier != nil {
		s.notifier.Notify(collection)
	}
}

// ListAll returns every record of a collection, hidden ones included.
// Admin view only.
func (s *PortfolioService) ListAll(ctx context.Context, collection models.Collection) ([]models.Document, error) {
	const op = "service.PortfolioService.ListAll"

	docs, err := s.repo.List(ctx, collection)
	if err != nil {
		s.log.Error("failed to list collection", slog.String("op", op), sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return docs, nil
}

// ListVisible returns the public view: exactly the records carrying
// visible == true.
func (s *PortfolioService) ListVisible(ctx context.Context, collection models.Collection) ([]models.Document, error) {
	const op = "service.PortfolioService.ListVisible"

	docs, err := s.repo.ListWhere(ctx, collection, "visible", true)
	if err != nil {
		s.log.Error("failed to list visible records", slog.String("op", op), sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return docs, nil
}

// Snapshot feeds the realtime hub: full admin state or the visible-only
// public projection, depending on the audience. The profile singleton
// carries no visible flag and is served unfiltered to both audiences, same
// as the HTTP read.
func (s *PortfolioService) Snapshot(ctx context.Context, collection models.Collection, audience realtime.Audience) ([]models.Document, error) {
	if collection == models.CollectionProfile || audience == realtime.AudienceAdmin {
		return s.ListAll(ctx, collection)
	}
	return s.ListVisible(ctx, collection)
}

// GetProfile returns the singleton profile, or placeholder defaults when no
// profile has been saved yet.
func (s *PortfolioService) GetProfile(ctx context.Context) (models.Profile, error) {
	const op = "service.PortfolioService.GetProfile"

	doc, err := s.repo.Get(ctx, models.CollectionProfile, profileDocID)
	if err != nil {
		if errors.Is(err, storage.ErrDocumentNotFound) {
			return models.DefaultProfile(), nil
		}
		s.log.Error("failed to get profile", slog.String("op", op), sl.Err(err))
		return models.Profile{}, fmt.Errorf("%s: %w", op, err)
	}

	var profile models.Profile
	if err := doc.Decode(&profile); err != nil {
		return models.Profile{}, fmt.Errorf("%s: %w", op, err)
	}

	return profile, nil
}

// SaveProfile replaces the whole profile document. Unlike item edits the
// profile commits on an explicit save, so a full write is intended here.
func (s *PortfolioService) SaveProfile(ctx context.Context, profile models.Profile) error {
	const op = "service.PortfolioService.SaveProfile"

	log := s.log.With(slog.String("op", op))

	fields := models.Fields{
		"name":      profile.Name,
		"role":      profile.Role,
		"bio":       profile.Bio,
		"email":     profile.Email,
		"avatarUrl": profile.AvatarURL,
		"coverUrl":  profile.CoverURL,
		"socials":   profile.Socials,
	}

	if _, err := s.repo.Upsert(ctx, models.CollectionProfile, profileDocID, fields); err != nil {
		log.Error("failed to save profile", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("profile saved")
	s.notify(models.CollectionProfile)

	return nil
}

// CreateItem inserts a new record with the per-type default shape and
// returns its generated id.
func (s *PortfolioService) CreateItem(ctx context.Context, collection models.Collection) (string, error) {
	const op = "service.PortfolioService.CreateItem"

	log := s.log.With(
		slog.String("op", op),
		slog.String("collection", string(collection)),
	)

	defaults, err := defaultFields(collection)
	if err != nil {
		log.Error("no defaults for collection", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	id, err := s.repo.Upsert(ctx, collection, "", defaults)
	if err != nil {
		log.Error("failed to create item", sl.Err(err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	log.Info("item created", slog.String("id", id))
	s.notify(collection)

	return id, nil
}

// UpdateItem merge-writes the supplied fields into one record. Fields not
// present in the request stay untouched.
func (s *PortfolioService) UpdateItem(ctx context.Context, collection models.Collection, id string, fields models.Fields) error {
	const op = "service.PortfolioService.UpdateItem"

	log := s.log.With(
		slog.String("op", op),
		slog.String("collection", string(collection)),
		slog.String("id", id),
	)

	if len(fields) == 0 {
		return fmt.Errorf("%s: no fields to update", op)
	}
	if id == "" {
		return fmt.Errorf("%s: id is required", op)
	}

	delete(fields, "id")
	sanitizeFields(collection, fields)

	if _, err := s.repo.Upsert(ctx, collection, id, fields); err != nil {
		log.Error("failed to update item", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	s.notify(collection)

	return nil
}

// SetVisibility flips the per-record flag gating the public view.
func (s *PortfolioService) SetVisibility(ctx context.Context, collection models.Collection, id string, visible bool) error {
	const op = "service.PortfolioService.SetVisibility"

	log := s.log.With(
		slog.String("op", op),
		slog.String("collection", string(collection)),
		slog.String("id", id),
	)

	if _, err := s.repo.Upsert(ctx, collection, id, models.Fields{"visible": visible}); err != nil {
		log.Error("failed to set visibility", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("visibility updated", slog.Bool("visible", visible))
	s.notify(collection)

	return nil
}

// DeleteItem removes the record. Deleting an already-absent record
// succeeds quietly.
func (s *PortfolioService) DeleteItem(ctx context.Context, collection models.Collection, id string) error {
	const op = "service.PortfolioService.DeleteItem"

	log := s.log.With(
		slog.String("op", op),
		slog.String("collection", string(collection)),
		slog.String("id", id),
	)

	if err := s.repo.Delete(ctx, collection, id); err != nil {
		log.Error("failed to delete item", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Info("item deleted")
	s.notify(collection)

	return nil
}

func defaultFields(collection models.Collection) (models.Fields, error) {
	switch collection {
	case models.CollectionSkills:
		return models.Fields{
			"name":     "New Skill",
			"level":    80,
			"category": "Technical",
			"visible":  true,
		}, nil
	case models.CollectionProjects:
		return models.Fields{
			"title":       "New Project",
			"description": "",
			"imageUrl":    "https://picsum.photos/800/600",
			"link":        "",
			"tags":        []string{"React"},
			"visible":     true,
		}, nil
	case models.CollectionPosts:
		return models.Fields{
			"title":    "New Post",
			"content":  "",
			"imageUrl": "https://picsum.photos/800/600",
			"category": "Tech",
			"date":     time.Now().Format("1/2/2006"),
			"visible":  true,
		}, nil
	case models.CollectionGallery:
		return models.Fields{
			"caption":  "Memory",
			"imageUrl": "https://picsum.photos/800/800",
			"visible":  true,
		}, nil
	}

	return nil, fmt.Errorf("collection %q has no item defaults", collection)
}

// sanitizeFields applies the few value constraints the store itself does
// not enforce. Currently only the skill level range.
func sanitizeFields(collection models.Collection, fields models.Fields) {
	if collection != models.CollectionSkills {
		return
	}

	raw, ok := fields["level"]
	if !ok {
		return
	}

	level, ok := toInt(raw)
	if !ok {
		delete(fields, "level")
		return
	}

	if level < models.MinSkillLevel {
		level = models.MinSkillLevel
	}
	if level > models.MaxSkillLevel {
		level = models.MaxSkillLevel
	}
	fields["level"] = level
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		// JSON numbers decode as float64
		return int(n), true
	}
	return 0, false
}

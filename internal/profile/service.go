package profile

import (
	"context"

	"UniPath/internal/config"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Profiles is the profile persistence used by services and the sweep.
type Profiles interface {
	GetOrCreate(ctx context.Context, userID primitive.ObjectID, prefs AlertPreferences) (*Profile, error)
	Update(ctx context.Context, userID primitive.ObjectID, req UpdateRequest) error
	SaveProgram(ctx context.Context, userID primitive.ObjectID, sp SavedProgram) error
	RemoveProgram(ctx context.Context, userID, savedID primitive.ObjectID) error
	UpdatePreferences(ctx context.Context, userID primitive.ObjectID, prefs AlertPreferences) error
	ForEachWithSavedPrograms(ctx context.Context, fn func(*Profile) error) error
}

type ProfileService struct {
	repo     Profiles
	defaults AlertPreferences
}

func NewProfileService(repo *ProfileRepository, cfg *config.Config) *ProfileService {
	return NewService(repo, DefaultPreferences(cfg.Notifications.DefaultOffsets))
}

func NewService(repo Profiles, defaults AlertPreferences) *ProfileService {
	return &ProfileService{repo: repo, defaults: defaults}
}

func (s *ProfileService) Get(ctx context.Context, userID primitive.ObjectID) (*Profile, error) {
	return s.repo.GetOrCreate(ctx, userID, s.defaults)
}

func (s *ProfileService) Update(ctx context.Context, userID primitive.ObjectID, req UpdateRequest) (*Profile, error) {
	if _, err := s.Get(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, userID, req); err != nil {
		return nil, err
	}
	return s.Get(ctx, userID)
}

// Repo exposes the underlying persistence to packages that extend profiles.
func (s *ProfileService) Repo() Profiles {
	return s.repo
}

func (s *ProfileService) Defaults() AlertPreferences {
	return DefaultPreferences(s.defaults.TriggerOffsets)
}

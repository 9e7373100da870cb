package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"skillbridge-backend/internal/domain"
	"skillbridge-backend/internal/logger"
	"skillbridge-backend/internal/repository"
	"skillbridge-backend/internal/skills"
	"skillbridge-backend/internal/storage"

	"github.com/google/uuid"
)

// MaxAvatarBytes caps avatar uploads.
const MaxAvatarBytes = 2 << 20

var avatarExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

type profileService struct {
	profiles repository.ProfileRepository
	store    storage.Storage
}

func NewProfileService(profiles repository.ProfileRepository, store storage.Storage) ProfileService {
	return &profileService{profiles: profiles, store: store}
}

// applyDraft copies draft onto p, keeping only the fields p's role may carry.
func applyDraft(p *domain.Profile, draft domain.ProfileDraft) error {
	if err := validateStruct(draft); err != nil {
		return err
	}
	p.Name = draft.Name
	p.Email = cleanOptional(draft.Email)
	switch p.Role {
	case domain.RoleNGO:
		p.OrganizationName = cleanOptional(draft.OrganizationName)
		p.Skills = []string{}
	case domain.RoleVolunteer:
		tags, err := skills.CanonicalSet(draft.Skills)
		if err != nil {
			return err
		}
		p.OrganizationName = nil
		p.Skills = tags
	}
	return nil
}

func (s *profileService) CreateProfile(ctx context.Context, actor domain.Actor, draft domain.ProfileDraft) (*domain.Profile, error) {
	logger.EnterMethod("profileService.CreateProfile", "profileID", actor.ProfileID(), "role", actor.Role())

	_, err := s.profiles.GetByID(ctx, actor.ProfileID())
	if err == nil {
		return nil, domain.NewError(domain.KindValidation, "profile %s already exists", actor.ProfileID())
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	draft.Name = strings.TrimSpace(draft.Name)
	p := &domain.Profile{ID: actor.ProfileID(), Role: actor.Role()}
	if err := applyDraft(p, draft); err != nil {
		logger.ExitMethodWithError("profileService.CreateProfile", err)
		return nil, err
	}
	if err := s.profiles.Create(ctx, p); err != nil {
		logger.ExitMethodWithError("profileService.CreateProfile", err)
		return nil, err
	}
	logger.ExitMethod("profileService.CreateProfile", "profileID", p.ID)
	return p, nil
}

func (s *profileService) GetProfile(ctx context.Context, id string) (*domain.Profile, error) {
	return s.profiles.GetByID(ctx, id)
}

// UpdateProfile replaces the editable fields. Role never changes.
func (s *profileService) UpdateProfile(ctx context.Context, actor domain.Actor, draft domain.ProfileDraft) (*domain.Profile, error) {
	p, err := s.profiles.GetByID(ctx, actor.ProfileID())
	if err != nil {
		return nil, err
	}
	if p.Role != actor.Role() {
		return nil, domain.NewError(domain.KindNotAuthorized, "role of profile %s cannot change", p.ID)
	}
	draft.Name = strings.TrimSpace(draft.Name)
	if err := applyDraft(p, draft); err != nil {
		return nil, err
	}
	if err := s.profiles.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *profileService) UploadAvatar(ctx context.Context, actor domain.Actor, contentType string, r io.Reader) (*domain.Profile, error) {
	ext, ok := avatarExtensions[strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0]))]
	if !ok {
		return nil, domain.NewError(domain.KindValidation, "unsupported avatar type %q", contentType)
	}
	p, err := s.profiles.GetByID(ctx, actor.ProfileID())
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%s-%s%s", p.ID, uuid.NewString()[:8], ext)
	n, err := s.store.Save(ctx, key, io.LimitReader(r, MaxAvatarBytes+1))
	if err != nil {
		return nil, err
	}
	if n > MaxAvatarBytes {
		_ = s.store.Delete(ctx, key)
		return nil, domain.NewError(domain.KindValidation, "avatar must be at most %d bytes", MaxAvatarBytes)
	}

	previous := p.AvatarURL
	url := s.store.URL(key)
	p.AvatarURL = &url
	if err := s.profiles.Update(ctx, p); err != nil {
		_ = s.store.Delete(ctx, key)
		return nil, err
	}
	if previous != nil {
		if err := s.store.Delete(ctx, path.Base(*previous)); err != nil {
			logger.Warn("Failed to delete previous avatar", "profileID", p.ID, "error", err)
		}
	}
	return p, nil
}

func (s *profileService) OpenAvatar(ctx context.Context, key string) (io.ReadCloser, error) {
	return s.store.Open(ctx, key)
}

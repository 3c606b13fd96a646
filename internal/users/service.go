package users

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/foodgram-backend/pkg/config"
	"github.com/angelmondragon/foodgram-backend/pkg/db"
	"github.com/angelmondragon/foodgram-backend/pkg/db/models"
	"github.com/angelmondragon/foodgram-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/foodgram-backend/pkg/errors"
	"github.com/angelmondragon/foodgram-backend/pkg/security"
)

var usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)

// reservedUsernames cannot be registered because they collide with routes.
var reservedUsernames = map[string]struct{}{
	"me":            {},
	"subscriptions": {},
	"set_password":  {},
}

// Service exposes account operations.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*RegisteredUser, error)
	Get(ctx context.Context, viewer *uuid.UUID, id uuid.UUID) (*UserDTO, error)
	List(ctx context.Context, viewer *uuid.UUID, offset, limit int) ([]UserDTO, int64, error)
	SetPassword(ctx context.Context, userID uuid.UUID, req SetPasswordRequest) error
	SetAvatar(ctx context.Context, userID uuid.UUID, dataURI string) (*AvatarResponse, error)
	DeleteAvatar(ctx context.Context, userID uuid.UUID) error
	Resolve(ctx context.Context, viewer *uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]UserDTO, error)
}

// SubscriptionLookup reports which of authorIDs userID is subscribed to.
type SubscriptionLookup interface {
	SubscribedAuthors(ctx context.Context, userID uuid.UUID, authorIDs []uuid.UUID) (map[uuid.UUID]bool, error)
}

// MediaStore persists uploaded avatars.
type MediaStore interface {
	Save(ctx context.Context, kind enums.MediaKind, dataURI string) (string, error)
	Delete(ctx context.Context, publicURL string) error
}

type userRepository interface {
	Create(ctx context.Context, dto CreateUserDTO) (*models.User, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.User, error)
	Taken(ctx context.Context, email, username string) (bool, bool, error)
	List(ctx context.Context, offset, limit int) ([]models.User, int64, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
	UpdateAvatar(ctx context.Context, id uuid.UUID, avatar *string) error
}

// ServiceParams bundles the dependencies required to build a users service.
type ServiceParams struct {
	Repo           userRepository
	Subscriptions  SubscriptionLookup
	Media          MediaStore
	PasswordConfig config.PasswordConfig
}

type service struct {
	repo          userRepository
	subscriptions SubscriptionLookup
	media         MediaStore
	passwordCfg   config.PasswordConfig
}

// NewService constructs a users service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("user repository is required")
	}
	if params.Subscriptions == nil {
		return nil, fmt.Errorf("subscription lookup is required")
	}
	if params.Media == nil {
		return nil, fmt.Errorf("media store is required")
	}
	return &service{
		repo:          params.Repo,
		subscriptions: params.Subscriptions,
		media:         params.Media,
		passwordCfg:   params.PasswordConfig,
	}, nil
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*RegisteredUser, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	username := strings.TrimSpace(req.Username)

	details := map[string]string{}
	if !usernamePattern.MatchString(username) {
		details["username"] = "may contain only letters, digits and @/./+/-/_"
	} else if _, reserved := reservedUsernames[strings.ToLower(username)]; reserved {
		details["username"] = "is reserved"
	}
	if err := security.ValidatePassword(req.Password, username, email, req.FirstName, req.LastName); err != nil {
		details["password"] = err.Error()
	}

	emailTaken, usernameTaken, err := s.repo.Taken(ctx, email, username)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "check user uniqueness")
	}
	if emailTaken {
		details["email"] = "is already registered"
	}
	if usernameTaken {
		if _, exists := details["username"]; !exists {
			details["username"] = "is already taken"
		}
	}
	if len(details) > 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(details)
	}

	hash, err := security.HashPassword(req.Password, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	user, err := s.repo.Create(ctx, CreateUserDTO{
		Email:        email,
		Username:     username,
		PasswordHash: hash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
	})
	if err != nil {
		// lost a race with a concurrent signup
		if db.IsUniqueViolation(err) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
				WithDetails(map[string]string{"email": "is already registered"})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create user")
	}

	return &RegisteredUser{
		ID:        user.ID,
		Email:     user.Email,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}, nil
}

func (s *service) Get(ctx context.Context, viewer *uuid.UUID, id uuid.UUID) (*UserDTO, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	subscribed, err := s.subscribedTo(ctx, viewer, []uuid.UUID{user.ID})
	if err != nil {
		return nil, err
	}
	dto := FromModel(user, subscribed[user.ID])
	return &dto, nil
}

func (s *service) List(ctx context.Context, viewer *uuid.UUID, offset, limit int) ([]UserDTO, int64, error) {
	rows, total, err := s.repo.List(ctx, offset, limit)
	if err != nil {
		return nil, 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list users")
	}
	ids := make([]uuid.UUID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	subscribed, err := s.subscribedTo(ctx, viewer, ids)
	if err != nil {
		return nil, 0, err
	}
	out := make([]UserDTO, 0, len(rows))
	for i := range rows {
		out = append(out, FromModel(&rows[i], subscribed[rows[i].ID]))
	}
	return out, total, nil
}

func (s *service) SetPassword(ctx context.Context, userID uuid.UUID, req SetPasswordRequest) error {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeUnauthorized, "user not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	ok, err := security.VerifyPassword(req.CurrentPassword, user.PasswordHash)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
			WithDetails(map[string]string{"current_password": "is incorrect"})
	}
	if err := security.ValidatePassword(req.NewPassword, user.Username, user.Email, user.FirstName, user.LastName); err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "validation failed").
			WithDetails(map[string]string{"new_password": err.Error()})
	}
	hash, err := security.HashPassword(req.NewPassword, s.passwordCfg)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	if err := s.repo.UpdatePassword(ctx, userID, hash); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update password")
	}
	return nil
}

func (s *service) SetAvatar(ctx context.Context, userID uuid.UUID, dataURI string) (*AvatarResponse, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	url, err := s.media.Save(ctx, enums.MediaKindAvatar, dataURI)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateAvatar(ctx, userID, &url); err != nil {
		_ = s.media.Delete(ctx, url)
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update avatar")
	}
	if user.Avatar != nil {
		_ = s.media.Delete(ctx, *user.Avatar)
	}
	return &AvatarResponse{Avatar: &url}, nil
}

func (s *service) DeleteAvatar(ctx context.Context, userID uuid.UUID) error {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeUnauthorized, "user not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load user")
	}
	if user.Avatar == nil {
		return nil
	}
	if err := s.repo.UpdateAvatar(ctx, userID, nil); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "clear avatar")
	}
	_ = s.media.Delete(ctx, *user.Avatar)
	return nil
}

// Resolve returns viewer-relative representations for every id that exists.
func (s *service) Resolve(ctx context.Context, viewer *uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]UserDTO, error) {
	ids = uniqueIDs(ids)
	rows, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load users")
	}
	subscribed, err := s.subscribedTo(ctx, viewer, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]UserDTO, len(rows))
	for i := range rows {
		out[rows[i].ID] = FromModel(&rows[i], subscribed[rows[i].ID])
	}
	return out, nil
}

func (s *service) subscribedTo(ctx context.Context, viewer *uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]bool, error) {
	if viewer == nil || len(ids) == 0 {
		return map[uuid.UUID]bool{}, nil
	}
	subscribed, err := s.subscriptions.SubscribedAuthors(ctx, *viewer, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load subscriptions")
	}
	return subscribed, nil
}

func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/tasko/internal/domain/entity"
	repo "github.com/oksasatya/tasko/internal/domain/repository"
	"github.com/oksasatya/tasko/pkg/helpers"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrStorageDisabled    = errors.New("avatar storage not configured")
)

// AvatarStore persists an uploaded image and returns its public URL.
type AvatarStore interface {
	Upload(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error)
}

type UserService struct {
	Repo       repo.UserRepository
	JWT        *helpers.JWTManager
	Avatars    AvatarStore
	Redis      *redis.Client
	SessionTTL time.Duration
	Logger     *logrus.Logger
}

type TokenPair struct {
	AccessToken        string
	AccessTokenExpiry  time.Time
	RefreshToken       string
	RefreshTokenExpiry time.Time
}

func NewUserService(repo repo.UserRepository, jwt *helpers.JWTManager, avatars AvatarStore, rdb *redis.Client, sessionTTL time.Duration, logger *logrus.Logger) *UserService {
	if sessionTTL <= 0 {
		sessionTTL = 7 * 24 * time.Hour
	}
	return &UserService{
		Repo:       repo,
		JWT:        jwt,
		Avatars:    avatars,
		Redis:      rdb,
		SessionTTL: sessionTTL,
		Logger:     logger,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type RegisterInput struct {
	Name     string
	Email    string
	Password string
	Phone    string
	Role     entity.Role
	Location *entity.GeoPoint
}

// Register creates a client or worker account and signs it in.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*entity.User, TokenPair, error) {
	if in.Role != entity.RoleClient && in.Role != entity.RoleWorker {
		return nil, TokenPair{}, fmt.Errorf("%w: role must be client or worker", entity.ErrValidation)
	}
	if in.Location != nil {
		if err := entity.ValidateCoordinates(in.Location.Latitude, in.Location.Longitude); err != nil {
			return nil, TokenPair{}, err
		}
	}
	email := normalizeEmail(in.Email)
	if _, err := s.Repo.GetByEmail(ctx, email); err == nil {
		return nil, TokenPair{}, ErrUserExists
	} else if !errors.Is(err, entity.ErrNotFound) {
		return nil, TokenPair{}, err
	}

	hash, err := helpers.HashPassword(in.Password)
	if err != nil {
		return nil, TokenPair{}, err
	}
	u := &entity.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		Password:     hash,
		Phone:        strings.TrimSpace(in.Phone),
		Role:         in.Role,
		Availability: entity.DefaultAvailability,
		Location:     in.Location,
	}
	if err := s.Repo.Create(ctx, u); err != nil {
		if errors.Is(err, entity.ErrConflict) {
			return nil, TokenPair{}, ErrUserExists
		}
		return nil, TokenPair{}, err
	}

	pair, err := s.IssueTokens(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return u, pair, nil
}

// Authenticate validates email/password and returns the user without issuing tokens.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*entity.User, error) {
	u, err := s.Repo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil || u == nil {
		return nil, ErrInvalidCredentials
	}
	if !helpers.CompareHashAndPassword(u.Password, password) {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// IssueTokens generates access/refresh tokens and records a session in Redis.
func (s *UserService) IssueTokens(ctx context.Context, u *entity.User) (TokenPair, error) {
	sid := uuid.NewString()
	access, aexp, err := s.JWT.GenerateAccessToken(u.ID, string(u.Role), sid)
	if err != nil {
		helpers.LogError(s.Logger, "generate access token failed", err, logrus.Fields{"user_id": u.ID})
		return TokenPair{}, err
	}
	refresh, rexp, err := s.JWT.GenerateRefreshToken(u.ID, string(u.Role), sid)
	if err != nil {
		helpers.LogError(s.Logger, "generate refresh token failed", err, logrus.Fields{"user_id": u.ID})
		return TokenPair{}, err
	}

	if s.Redis != nil {
		sess := helpers.Session{UserID: u.ID, SID: sid, Role: string(u.Role), Name: u.Name, Email: u.Email}
		if err := helpers.SaveSession(ctx, s.Redis, sess, s.SessionTTL); err != nil {
			helpers.LogError(s.Logger, "save session failed", err, logrus.Fields{"user_id": u.ID})
			return TokenPair{}, err
		}
	}

	return TokenPair{AccessToken: access, AccessTokenExpiry: aexp, RefreshToken: refresh, RefreshTokenExpiry: rexp}, nil
}

func (s *UserService) Login(ctx context.Context, email, password string) (*entity.User, TokenPair, error) {
	u, err := s.Authenticate(ctx, email, password)
	if err != nil {
		return nil, TokenPair{}, err
	}
	pair, err := s.IssueTokens(ctx, u)
	if err != nil {
		return nil, TokenPair{}, err
	}
	return u, pair, nil
}

// Refresh exchanges a refresh token for a new pair and rotates the session id.
// A token whose session was replaced or deleted is rejected.
func (s *UserService) Refresh(ctx context.Context, refreshToken string) (TokenPair, *entity.User, error) {
	claims, err := s.JWT.ParseRefreshToken(refreshToken)
	if err != nil {
		return TokenPair{}, nil, ErrInvalidCredentials
	}
	u, err := s.Repo.GetByID(ctx, claims.UserID)
	if err != nil || u == nil {
		return TokenPair{}, nil, ErrInvalidCredentials
	}
	if s.Redis != nil {
		sess, err := helpers.LoadSession(ctx, s.Redis, u.ID)
		if err != nil || sess.SID != claims.SessionID {
			return TokenPair{}, nil, ErrInvalidCredentials
		}
	}
	pair, err := s.IssueTokens(ctx, u)
	if err != nil {
		return TokenPair{}, nil, err
	}
	return pair, u, nil
}

func (s *UserService) Logout(ctx context.Context, userID string) {
	if s.Redis == nil || userID == "" {
		return
	}
	if err := helpers.DeleteSession(ctx, s.Redis, userID); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", userID).Warn("delete session failed")
	}
}

func (s *UserService) GetProfile(ctx context.Context, userID string) (*entity.User, error) {
	if !validID(userID) {
		return nil, ErrUserNotFound
	}
	u, err := s.Repo.GetByID(ctx, userID)
	if err != nil || u == nil {
		return nil, ErrUserNotFound
	}
	return u, nil
}

// ProfileFields is a partial update of the self-service profile.
// Nil fields are left unchanged.
type ProfileFields struct {
	Name         *string
	Phone        *string
	Skills       []string
	Availability *string
	Bio          *string
}

func (f ProfileFields) apply(u *entity.User) error {
	if f.Name != nil {
		name := strings.TrimSpace(*f.Name)
		if name == "" {
			return fmt.Errorf("%w: name cannot be empty", entity.ErrValidation)
		}
		u.Name = name
	}
	if f.Phone != nil {
		u.Phone = strings.TrimSpace(*f.Phone)
	}
	if f.Skills != nil {
		skills := make([]string, 0, len(f.Skills))
		for _, sk := range f.Skills {
			if sk = strings.TrimSpace(sk); sk != "" {
				skills = append(skills, sk)
			}
		}
		u.Skills = skills
	}
	if f.Availability != nil {
		av := strings.TrimSpace(*f.Availability)
		if av == "" {
			return fmt.Errorf("%w: availability cannot be empty", entity.ErrValidation)
		}
		u.Availability = av
	}
	if f.Bio != nil {
		u.Bio = strings.TrimSpace(*f.Bio)
	}
	return nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID string, in ProfileFields) (*entity.User, error) {
	u, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := in.apply(u); err != nil {
		return nil, err
	}
	if err := s.Repo.UpdateProfile(ctx, u); err != nil {
		return nil, err
	}
	s.touchSession(ctx, u)
	return u, nil
}

type LocationUpdate struct {
	Latitude  float64
	Longitude float64
	Address   string
}

func (s *UserService) UpdateLocation(ctx context.Context, userID string, in LocationUpdate) (*entity.User, error) {
	if err := entity.ValidateCoordinates(in.Latitude, in.Longitude); err != nil {
		return nil, err
	}
	addr := strings.TrimSpace(in.Address)
	if addr == "" {
		return nil, fmt.Errorf("%w: address is required", entity.ErrValidation)
	}
	u, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	u.Location = &entity.GeoPoint{Longitude: in.Longitude, Latitude: in.Latitude, Address: addr}
	if err := s.Repo.UpdateProfile(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// UploadAvatar stores an image under avatars/<userID>/ and saves its URL.
func (s *UserService) UploadAvatar(ctx context.Context, userID string, r io.Reader, contentType string) (*entity.User, error) {
	if s.Avatars == nil {
		return nil, ErrStorageDisabled
	}
	ext, ok := helpers.ImageExt(contentType)
	if !ok {
		return nil, fmt.Errorf("%w: avatar must be a jpeg, png, webp or gif image", entity.ErrValidation)
	}
	u, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	url, err := s.Avatars.Upload(ctx, helpers.ObjectPath("avatars", userID, ext), contentType, r)
	if err != nil {
		return nil, err
	}
	u.AvatarURL = url
	if err := s.Repo.UpdateProfile(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *UserService) touchSession(ctx context.Context, u *entity.User) {
	if s.Redis == nil {
		return
	}
	if err := helpers.TouchSession(ctx, s.Redis, u.ID, map[string]any{"name": u.Name}); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID).Warn("touch session failed")
	}
}

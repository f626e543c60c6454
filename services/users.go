package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/Kariqs/eshop-api/models"
	"github.com/Kariqs/eshop-api/utils"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const bcryptCost = 10

var errInvalidCredentials = utils.Unauthorized("invalid username or password")

// UserService registers and authenticates storefront users.
type UserService struct {
	db     *gorm.DB
	tokens *utils.TokenIssuer
	logger *slog.Logger
}

func NewUserService(db *gorm.DB, tokens *utils.TokenIssuer, logger *slog.Logger) *UserService {
	return &UserService{db: db, tokens: tokens, logger: logger}
}

func (s *UserService) Signup(ctx context.Context, data models.SignupData) (*models.User, error) {
	email := strings.ToLower(strings.TrimSpace(data.Email))
	username := strings.TrimSpace(data.Username)

	var existing int64
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("email = ? OR username = ?", email, username).
		Count(&existing).Error
	if err != nil {
		return nil, utils.Internal("failed to check existing users", err)
	}
	if existing > 0 {
		return nil, utils.Conflict("user already exists")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(data.Password), bcryptCost)
	if err != nil {
		return nil, utils.Internal("failed to hash password", err)
	}

	user := models.User{
		Username:  username,
		Email:     email,
		FirstName: strings.TrimSpace(data.FirstName),
		LastName:  strings.TrimSpace(data.LastName),
		Password:  string(hashed),
		Role:      models.RoleUser,
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, utils.Conflict("user already exists")
		}
		return nil, utils.Internal("failed to create user", err)
	}

	s.logger.InfoContext(ctx, "user signed up", slog.Uint64("user_id", uint64(user.ID)))
	return &user, nil
}

// Login checks a username-or-email and password pair and returns a signed token.
func (s *UserService) Login(ctx context.Context, identifier, password string) (string, *models.User, error) {
	identifier = strings.TrimSpace(identifier)

	var user models.User
	err := s.db.WithContext(ctx).
		Where("username = ? OR email = ?", identifier, strings.ToLower(identifier)).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil, errInvalidCredentials
	}
	if err != nil {
		return "", nil, utils.Internal("failed to fetch user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, errInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID, user.Username, user.Role)
	if err != nil {
		return "", nil, utils.Internal("failed to generate token", err)
	}
	return token, &user, nil
}

func (s *UserService) Get(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NotFound("user not found")
	}
	if err != nil {
		return nil, utils.Internal("failed to fetch user", err)
	}
	return &user, nil
}

// CreateAdmin stores a user with the admin role. Used by the operations CLI.
func (s *UserService) CreateAdmin(ctx context.Context, data models.SignupData) (*models.User, error) {
	user, err := s.Signup(ctx, data)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Model(user).Update("role", models.RoleAdmin).Error; err != nil {
		return nil, utils.Internal("failed to promote user", err)
	}
	user.Role = models.RoleAdmin
	return user, nil
}

package service

import (
	"errors"
	"time"

	"backcheck_api/internal/domain/user/model"
	"backcheck_api/internal/domain/user/repository"
	"backcheck_api/pkg/apperr"
	"backcheck_api/pkg/utils"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// TokenRevoker is the logout side of the blacklist; nil disables revocation.
type TokenRevoker interface {
	Add(jti string, expiresAt time.Time) error
}

// UserService is the user directory consumed by the order/review modules
// plus the auth surface.
type UserService interface {
	Register(username, email, password string) (*model.User, error)
	Login(username, password string) (string, *time.Time, error)
	Logout(jti string, expiresAt time.Time) error
	GetUser(id string) (*model.User, error)
	GetUsers(page, limit int) ([]model.User, int64, error)
	UpdateProfile(id, email, profilePicture string) (*model.User, error)
	DeleteUser(id string) error
}

type userService struct {
	repo    repository.UserRepository
	revoker TokenRevoker
}

func NewUserService(repo repository.UserRepository, revoker TokenRevoker) UserService {
	return &userService{repo: repo, revoker: revoker}
}

func (s *userService) Register(username, email, password string) (*model.User, error) {
	if _, err := s.repo.GetByUsername(username); err == nil {
		return nil, apperr.Errorf(apperr.Conflict, "username %s is already taken", username)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if _, err := s.repo.GetByEmail(email); err == nil {
		return nil, apperr.Errorf(apperr.Conflict, "email %s is already registered", email)
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username: username,
		Email:    email,
		Password: string(hashed),
		Role:     model.RoleUser,
	}
	if err := s.repo.Create(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) Login(username, password string) (string, *time.Time, error) {
	user, err := s.repo.GetByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil, apperr.New(apperr.Forbidden, "invalid username or password")
		}
		return "", nil, err
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) != nil {
		return "", nil, apperr.New(apperr.Forbidden, "invalid username or password")
	}

	return utils.GenerateToken(user.ID, user.Role)
}

func (s *userService) Logout(jti string, expiresAt time.Time) error {
	if s.revoker == nil || jti == "" {
		return nil
	}
	return s.revoker.Add(jti, expiresAt)
}

func (s *userService) GetUser(id string) (*model.User, error) {
	user, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.Errorf(apperr.NotFound, "user with ID %s not found", id)
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) GetUsers(page, limit int) ([]model.User, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 10
	}
	return s.repo.GetList((page-1)*limit, limit)
}

func (s *userService) UpdateProfile(id, email, profilePicture string) (*model.User, error) {
	user, err := s.GetUser(id)
	if err != nil {
		return nil, err
	}

	if email != "" {
		user.Email = email
	}
	if profilePicture != "" {
		user.ProfilePicture = profilePicture
	}

	if err := s.repo.Update(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *userService) DeleteUser(id string) error {
	user, err := s.GetUser(id)
	if err != nil {
		return err
	}
	return s.repo.Delete(user)
}

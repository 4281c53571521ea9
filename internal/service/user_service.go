package service

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"socksflow_backend/internal/model"
)

type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

type RegisterInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name" validate:"required"`
	Phone    string `json:"phone"`
}

type UpdateProfileInput struct {
	Name      *string `json:"name"`
	Phone     *string `json:"phone"`
	AvatarURL *string `json:"avatar_url"`
}

func (s *UserService) GetByID(id uint) (*model.User, error) {
	var user model.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &user, nil
}

func (s *UserService) GetByEmail(email string) (*model.User, error) {
	var user model.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %s: %w", email, ErrNotFound)
		}
		return nil, err
	}
	return &user, nil
}

func (s *UserService) Register(input RegisterInput) (*model.User, error) {
	var count int64
	if err := s.db.Model(&model.User{}).Where("email = ?", input.Email).Count(&count).Error; err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, fmt.Errorf("email already registered: %w", ErrValidation)
	}

	if input.Phone != "" {
		if err := s.db.Model(&model.User{}).Where("phone = ?", input.Phone).Count(&count).Error; err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, fmt.Errorf("phone already registered: %w", ErrValidation)
		}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := model.User{
		Email:        input.Email,
		PasswordHash: string(hashed),
		Name:         input.Name,
		Phone:        input.Phone,
		IsActive:     true,
		IsVerified:   false,
	}

	if err := s.db.Create(&user).Error; err != nil {
		return nil, err
	}

	return &user, nil
}

// Authenticate verifies credentials; deactivated accounts fail the same way
// wrong passwords do.
func (s *UserService) Authenticate(email, password string) (*model.User, error) {
	user, err := s.GetByEmail(email)
	if err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", ErrValidation)
	}

	if !user.IsActive {
		return nil, fmt.Errorf("invalid credentials: %w", ErrValidation)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("invalid credentials: %w", ErrValidation)
	}

	return user, nil
}

func (s *UserService) UpdateProfile(user *model.User, input UpdateProfileInput) (*model.User, error) {
	if input.Name != nil {
		user.Name = *input.Name
	}
	if input.Phone != nil {
		user.Phone = *input.Phone
	}
	if input.AvatarURL != nil {
		user.AvatarURL = *input.AvatarURL
	}

	if err := s.db.Save(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func (s *UserService) ChangePassword(user *model.User, currentPassword, newPassword string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return fmt.Errorf("current password is incorrect: %w", ErrValidation)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	return s.db.Model(user).Update("password_hash", string(hashed)).Error
}

// Deactivate soft-deletes: the row stays because orders and payments
// reference it.
func (s *UserService) Deactivate(user *model.User) error {
	return s.db.Model(user).Update("is_active", false).Error
}

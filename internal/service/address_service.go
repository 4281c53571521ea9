package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"socksflow_backend/internal/model"
)

type AddressService struct {
	db *gorm.DB
}

func NewAddressService(db *gorm.DB) *AddressService {
	return &AddressService{db: db}
}

type AddressInput struct {
	Name      string `json:"name" validate:"required"`
	Phone     string `json:"phone" validate:"required"`
	Province  string `json:"province" validate:"required"`
	City      string `json:"city" validate:"required"`
	District  string `json:"district" validate:"required"`
	Address   string `json:"address" validate:"required"`
	ZipCode   string `json:"zip_code"`
	IsDefault bool   `json:"is_default"`
	Tag       string `json:"tag"`
}

type AddressUpdateInput struct {
	Name      *string `json:"name"`
	Phone     *string `json:"phone"`
	Province  *string `json:"province"`
	City      *string `json:"city"`
	District  *string `json:"district"`
	Address   *string `json:"address"`
	ZipCode   *string `json:"zip_code"`
	IsDefault *bool   `json:"is_default"`
	Tag       *string `json:"tag"`
}

func (s *AddressService) GetByID(id uint) (*model.Address, error) {
	var addr model.Address
	if err := s.db.First(&addr, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("address %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	return &addr, nil
}

func (s *AddressService) GetByUser(userID uint) ([]model.Address, error) {
	var addrs []model.Address
	err := s.db.Where("user_id = ?", userID).
		Order("is_default DESC, created_at DESC").
		Find(&addrs).Error
	return addrs, err
}

func (s *AddressService) GetDefault(userID uint) (*model.Address, error) {
	var addr model.Address
	err := s.db.Where("user_id = ? AND is_default = ?", userID, true).First(&addr).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("no default address: %w", ErrNotFound)
		}
		return nil, err
	}
	return &addr, nil
}

// GetDefaultOrFirst is the fallback read for callers that need some
// shipping address even when none is marked default.
func (s *AddressService) GetDefaultOrFirst(userID uint) (*model.Address, error) {
	addr, err := s.GetDefault(userID)
	if err == nil {
		return addr, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}

	var first model.Address
	err = s.db.Where("user_id = ?", userID).Order("created_at ASC").First(&first).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user has no addresses: %w", ErrNotFound)
		}
		return nil, err
	}
	return &first, nil
}

// Create stores a new address. The first address for a user becomes the
// default regardless of the requested flag.
func (s *AddressService) Create(userID uint, input AddressInput) (*model.Address, error) {
	addr := model.Address{
		UserID:   userID,
		Name:     input.Name,
		Phone:    input.Phone,
		Province: input.Province,
		City:     input.City,
		District: input.District,
		Address:  input.Address,
		ZipCode:  input.ZipCode,
		Tag:      input.Tag,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.Address{}).Where("user_id = ?", userID).Count(&count).Error; err != nil {
			return err
		}

		addr.IsDefault = input.IsDefault || count == 0
		if addr.IsDefault {
			if err := clearDefault(tx, userID); err != nil {
				return err
			}
		}
		return tx.Create(&addr).Error
	})
	if err != nil {
		return nil, err
	}

	return &addr, nil
}

func (s *AddressService) Update(addr *model.Address, input AddressUpdateInput) (*model.Address, error) {
	if input.Name != nil {
		addr.Name = *input.Name
	}
	if input.Phone != nil {
		addr.Phone = *input.Phone
	}
	if input.Province != nil {
		addr.Province = *input.Province
	}
	if input.City != nil {
		addr.City = *input.City
	}
	if input.District != nil {
		addr.District = *input.District
	}
	if input.Address != nil {
		addr.Address = *input.Address
	}
	if input.ZipCode != nil {
		addr.ZipCode = *input.ZipCode
	}
	if input.Tag != nil {
		addr.Tag = *input.Tag
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if input.IsDefault != nil && *input.IsDefault && !addr.IsDefault {
			if err := clearDefault(tx, addr.UserID); err != nil {
				return err
			}
			addr.IsDefault = true
		}
		return tx.Save(addr).Error
	})
	if err != nil {
		return nil, err
	}

	return addr, nil
}

// SetDefault funnels through the same clear-then-set step as create and
// update: never two defaults at once.
func (s *AddressService) SetDefault(addr *model.Address) (*model.Address, error) {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := clearDefault(tx, addr.UserID); err != nil {
			return err
		}
		addr.IsDefault = true
		return tx.Save(addr).Error
	})
	if err != nil {
		return nil, err
	}
	return addr, nil
}

// Delete is unconditional and does not promote another address to default;
// callers must handle a user left with no default.
func (s *AddressService) Delete(addr *model.Address) error {
	return s.db.Unscoped().Delete(addr).Error
}

func clearDefault(tx *gorm.DB, userID uint) error {
	return tx.Model(&model.Address{}).
		Where("user_id = ? AND is_default = ?", userID, true).
		Update("is_default", false).Error
}

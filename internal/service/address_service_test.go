package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"socksflow_backend/internal/model"
)

func testAddressInput(name string) AddressInput {
	return AddressInput{
		Name:     name,
		Phone:    "13800138000",
		Province: "Shanghai",
		City:     "Shanghai",
		District: "Pudong",
		Address:  "88 Century Avenue",
		ZipCode:  "200120",
	}
}

func countDefaults(t *testing.T, db *gorm.DB, userID uint) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&model.Address{}).
		Where("user_id = ? AND is_default = ?", userID, true).
		Count(&n).Error)
	return n
}

func TestAddressFirstBecomesDefault(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db)
	svc := NewAddressService(db)

	// The flag is not requested, but the first address is forced default.
	addr, err := svc.Create(user.ID, testAddressInput("Home"))
	require.NoError(t, err)
	assert.True(t, addr.IsDefault)
	assert.Equal(t, int64(1), countDefaults(t, db, user.ID))
}

func TestAddressSingleDefault(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db)
	svc := NewAddressService(db)

	home, err := svc.Create(user.ID, testAddressInput("Home"))
	require.NoError(t, err)

	officeInput := testAddressInput("Office")
	officeInput.IsDefault = true
	office, err := svc.Create(user.ID, officeInput)
	require.NoError(t, err)
	assert.True(t, office.IsDefault)

	// The previous default was cleared.
	assert.Equal(t, int64(1), countDefaults(t, db, user.ID))
	got, err := svc.GetDefault(user.ID)
	require.NoError(t, err)
	assert.Equal(t, office.ID, got.ID)

	home, err = svc.GetByID(home.ID)
	require.NoError(t, err)
	assert.False(t, home.IsDefault)
}

func TestAddressSetDefault(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db)
	svc := NewAddressService(db)

	_, err := svc.Create(user.ID, testAddressInput("Home"))
	require.NoError(t, err)
	office, err := svc.Create(user.ID, testAddressInput("Office"))
	require.NoError(t, err)
	assert.False(t, office.IsDefault)

	office, err = svc.SetDefault(office)
	require.NoError(t, err)
	assert.True(t, office.IsDefault)
	assert.Equal(t, int64(1), countDefaults(t, db, user.ID))

	got, err := svc.GetDefault(user.ID)
	require.NoError(t, err)
	assert.Equal(t, office.ID, got.ID)
}

func TestAddressUpdateDefaultFlag(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db)
	svc := NewAddressService(db)

	_, err := svc.Create(user.ID, testAddressInput("Home"))
	require.NoError(t, err)
	office, err := svc.Create(user.ID, testAddressInput("Office"))
	require.NoError(t, err)

	isDefault := true
	newName := "Headquarters"
	office, err = svc.Update(office, AddressUpdateInput{
		Name:      &newName,
		IsDefault: &isDefault,
	})
	require.NoError(t, err)
	assert.True(t, office.IsDefault)
	assert.Equal(t, "Headquarters", office.Name)
	assert.Equal(t, int64(1), countDefaults(t, db, user.ID))
}

func TestAddressDeleteDefaultNoPromotion(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db)
	svc := NewAddressService(db)

	home, err := svc.Create(user.ID, testAddressInput("Home"))
	require.NoError(t, err)
	office, err := svc.Create(user.ID, testAddressInput("Office"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(home))

	// Deleting the default leaves the user without one.
	_, err = svc.GetDefault(user.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// GetDefaultOrFirst falls back to the remaining address.
	got, err := svc.GetDefaultOrFirst(user.ID)
	require.NoError(t, err)
	assert.Equal(t, office.ID, got.ID)
}

func TestAddressGetDefaultOrFirstEmpty(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db)

	_, err := NewAddressService(db).GetDefaultOrFirst(user.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAddressListOrdering(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db)
	svc := NewAddressService(db)

	_, err := svc.Create(user.ID, testAddressInput("Home"))
	require.NoError(t, err)
	officeInput := testAddressInput("Office")
	officeInput.IsDefault = true
	office, err := svc.Create(user.ID, officeInput)
	require.NoError(t, err)

	addrs, err := svc.GetByUser(user.ID)
	require.NoError(t, err)
	require.Len(t, addrs, 2)
	// Default first.
	assert.Equal(t, office.ID, addrs[0].ID)
}

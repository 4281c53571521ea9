package service

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"socksflow_backend/internal/model"
	"socksflow_backend/pkg/config"
	"socksflow_backend/pkg/database"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&model.User{},
		&model.SizeProfile{},
		&model.Subscription{},
		&model.Order{},
		&model.Payment{},
		&model.Address{},
	)
	require.NoError(t, err)

	require.NoError(t, database.EnsureInvariantIndexes(db))

	return db
}

var testUserSeq int

func createTestUser(t *testing.T, db *gorm.DB) *model.User {
	t.Helper()

	testUserSeq++
	user, err := NewUserService(db).Register(RegisterInput{
		Email:    fmt.Sprintf("user%d@example.com", testUserSeq),
		Password: "secret123",
		Name:     "Test User",
	})
	require.NoError(t, err)
	return user
}

func createTestSubscription(t *testing.T, db *gorm.DB, userID uint) *model.Subscription {
	t.Helper()

	sub, err := NewSubscriptionService(db).Create(userID, SubscriptionCreateInput{
		PlanCode: "standard",
	})
	require.NoError(t, err)
	return sub
}

func testConfig() *config.Config {
	return &config.Config{
		Payment:  config.PaymentConfig{AllowMock: true},
		Frontend: config.FrontendConfig{URL: "http://localhost:3000"},
	}
}

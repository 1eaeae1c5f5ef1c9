package auth

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/foliolib/folio/internal/config"
	"github.com/foliolib/folio/internal/entities"
)

func setupAuthDB(t *testing.T, name string) (*gorm.DB, func()) {
	t.Helper()
	path := "./test_auth_" + name + ".db"

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entities.User{}))

	return db, func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		os.Remove(path)
	}
}

func testAuthConfig() config.Auth {
	return config.Auth{
		Mode:       config.AuthModeLocal,
		BcryptCost: 4, // minimum cost to keep the tests fast
	}
}

func TestCreateUserAndAuthenticate(t *testing.T) {
	db, cleanup := setupAuthDB(t, "create")
	defer cleanup()
	service := NewService(db, testAuthConfig())

	user, err := service.CreateUser("reader", "correct horse battery")
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.NotEqual(t, "correct horse battery", user.PasswordHash)

	got, err := service.Authenticate("reader", "correct horse battery")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = service.Authenticate("reader", "wrong password wrong")
	assert.ErrorIs(t, err, ErrInvalidPassword)

	// Unknown users get the same error as wrong passwords.
	_, err = service.Authenticate("nobody", "correct horse battery")
	assert.ErrorIs(t, err, ErrInvalidPassword)
}

func TestCreateUserValidation(t *testing.T) {
	db, cleanup := setupAuthDB(t, "validation")
	defer cleanup()
	service := NewService(db, testAuthConfig())

	_, err := service.CreateUser("reader", "short")
	assert.ErrorIs(t, err, ErrPasswordTooShort)

	_, err = service.CreateUser("", "correct horse battery")
	assert.Error(t, err)

	_, err = service.CreateUser("reader", "correct horse battery")
	require.NoError(t, err)
	_, err = service.CreateUser("reader", "another fine password")
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestChangePassword(t *testing.T) {
	db, cleanup := setupAuthDB(t, "changepw")
	defer cleanup()
	service := NewService(db, testAuthConfig())

	user, err := service.CreateUser("reader", "correct horse battery")
	require.NoError(t, err)

	err = service.ChangePassword(user.ID, "not the password", "a brand new password")
	assert.ErrorIs(t, err, ErrInvalidPassword)

	require.NoError(t, service.ChangePassword(user.ID, "correct horse battery", "a brand new password"))

	_, err = service.Authenticate("reader", "correct horse battery")
	assert.ErrorIs(t, err, ErrInvalidPassword)
	_, err = service.Authenticate("reader", "a brand new password")
	assert.NoError(t, err)
}

func TestHasUsers(t *testing.T) {
	db, cleanup := setupAuthDB(t, "hasusers")
	defer cleanup()
	service := NewService(db, testAuthConfig())

	has, err := service.HasUsers()
	require.NoError(t, err)
	assert.False(t, has)

	_, err = service.CreateUser("reader", "correct horse battery")
	require.NoError(t, err)

	has, err = service.HasUsers()
	require.NoError(t, err)
	assert.True(t, has)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("a long enough password", 4)
	require.NoError(t, err)
	assert.NoError(t, CheckPassword("a long enough password", hash))
	assert.ErrorIs(t, CheckPassword("something else here", hash), ErrInvalidPassword)

	_, err = HashPassword("short", 4)
	assert.ErrorIs(t, err, ErrPasswordTooShort)
}

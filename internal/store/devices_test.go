// internal/store/devices_test.go
package store

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "notification-service/internal/common/errors"
	"notification-service/internal/common/logger"
)

func TestDeviceStore_Register(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO user_devices`).
		WithArgs(sqlmock.AnyArg(), "user-1", "arn:aws:sns:endpoint/abc", "ios", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := NewDeviceStore(db, logger.NewNoOpLogger())
	d, err := store.Register(context.Background(), "user-1", "arn:aws:sns:endpoint/abc", "ios")

	require.NoError(t, err)
	assert.NotEmpty(t, d.ID)
	assert.True(t, d.IsActive)
	assert.Equal(t, "ios", d.DeviceType)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeviceStore_Deactivate_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`UPDATE user_devices`).
		WithArgs("user-1", "unknown-token", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	store := NewDeviceStore(db, logger.NewNoOpLogger())
	err = store.Deactivate(context.Background(), "user-1", "unknown-token")

	assert.True(t, apperrors.IsNotFound(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeviceStore_ActiveTokens(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT device_token FROM user_devices`).
		WithArgs("user-1").
		WillReturnRows(sqlmock.NewRows([]string{"device_token"}).
			AddRow("token-a").
			AddRow("token-b"))

	store := NewDeviceStore(db, logger.NewNoOpLogger())
	tokens, err := store.ActiveTokens(context.Background(), "user-1")

	require.NoError(t, err)
	assert.Equal(t, []string{"token-a", "token-b"}, tokens)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeviceStore_ActiveTokens_Empty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`SELECT device_token FROM user_devices`).
		WithArgs("user-2").
		WillReturnRows(sqlmock.NewRows([]string{"device_token"}))

	store := NewDeviceStore(db, logger.NewNoOpLogger())
	tokens, err := store.ActiveTokens(context.Background(), "user-2")

	assert.NoError(t, err)
	assert.Empty(t, tokens)
	assert.NoError(t, mock.ExpectationsWereMet())
}

package repository

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/comanda-app/comanda/app/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Store{}, &models.Device{}, &models.DeviceEvent{}))
	require.NoError(t, db.Exec("DELETE FROM device_events").Error)
	require.NoError(t, db.Exec("DELETE FROM devices").Error)
	return db
}

func seedDevices(t *testing.T, db *gorm.DB, storeID uint, n int) []models.Device {
	t.Helper()
	devices := make([]models.Device, 0, n)
	for i := 0; i < n; i++ {
		d := models.Device{
			StoreID:    storeID,
			DeviceHash: models.NewDeviceHash(),
			Name:       "Device",
			Status:     models.DEVICE_STATUS_REGISTERED,
		}
		require.NoError(t, db.Create(&d).Error)
		devices = append(devices, d)
	}
	return devices
}

func countMain(t *testing.T, db *gorm.DB, storeID uint) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.Device{}).
		Where("store_id = ? AND is_main = ?", storeID, true).Count(&n).Error)
	return n
}

func TestSetMain_Exclusive(t *testing.T) {
	db := newTestDB(t)
	repo := NewDeviceRepository(db)
	devices := seedDevices(t, db, 1, 3)

	require.NoError(t, repo.SetMain(1, devices[0].ID))
	assert.EqualValues(t, 1, countMain(t, db, 1))

	// Moving the flag must clear the previous holder in the same transaction.
	require.NoError(t, repo.SetMain(1, devices[2].ID))
	assert.EqualValues(t, 1, countMain(t, db, 1))

	var holder models.Device
	require.NoError(t, db.Where("store_id = ? AND is_main = ?", 1, true).First(&holder).Error)
	assert.Equal(t, devices[2].ID, holder.ID)
}

func TestSetMain_Idempotent(t *testing.T) {
	db := newTestDB(t)
	repo := NewDeviceRepository(db)
	devices := seedDevices(t, db, 1, 2)

	require.NoError(t, repo.SetMain(1, devices[1].ID))
	require.NoError(t, repo.SetMain(1, devices[1].ID))
	assert.EqualValues(t, 1, countMain(t, db, 1))
}

func TestSetMain_ScopedToStore(t *testing.T) {
	db := newTestDB(t)
	repo := NewDeviceRepository(db)
	storeA := seedDevices(t, db, 1, 2)
	storeB := seedDevices(t, db, 2, 2)

	require.NoError(t, repo.SetMain(1, storeA[0].ID))
	require.NoError(t, repo.SetMain(2, storeB[1].ID))

	assert.EqualValues(t, 1, countMain(t, db, 1))
	assert.EqualValues(t, 1, countMain(t, db, 2))

	// A device of another store cannot be promoted through the wrong scope.
	err := repo.SetMain(1, storeB[0].ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	assert.EqualValues(t, 1, countMain(t, db, 2))
}

func TestDeviceEventRepository_AppendAndList(t *testing.T) {
	db := newTestDB(t)
	devices := seedDevices(t, db, 1, 1)
	repo := NewDeviceEventRepository(db)

	for _, et := range []string{
		models.EVENT_CONNECTED,
		models.EVENT_MESSAGE_RECEIVED,
		models.EVENT_CONNECTED,
	} {
		require.NoError(t, repo.Append(&models.DeviceEvent{
			DeviceID:  devices[0].ID,
			EventType: et,
			Status:    models.DEVICE_STATUS_ACTIVE,
		}))
	}

	events, total, err := repo.ListByDevice(devices[0].ID, "", 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, events, 3)
	// newest first
	assert.GreaterOrEqual(t, events[0].ID, events[1].ID)

	filtered, total, err := repo.ListByDevice(devices[0].ID, models.EVENT_CONNECTED, 10, 0)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, filtered, 2)
	for _, e := range filtered {
		assert.Equal(t, models.EVENT_CONNECTED, e.EventType)
	}
}

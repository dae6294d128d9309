package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"datamarket/internal/model"
)

func TestOpen_UnsupportedDriver(t *testing.T) {
	_, err := Open("oracle", "whatever")
	assert.ErrorContains(t, err, "unsupported DB_DRIVER")
}

func TestOpenAndMigrate_SQLite(t *testing.T) {
	gormDB, err := Open("sqlite", ":memory:")
	require.NoError(t, err)

	require.NoError(t, Migrate(gormDB))

	for _, table := range []interface{}{&model.User{}, &model.Dataset{}, &model.Purchase{}} {
		assert.True(t, gormDB.Migrator().HasTable(table))
	}
	assert.True(t, gormDB.Migrator().HasIndex(&model.Purchase{}, "idx_purchase_user_dataset"))

	require.NoError(t, Reset(gormDB))
	assert.False(t, gormDB.Migrator().HasTable(&model.Purchase{}))
}

package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stayhive/hotel-booking-backend/internal/config"
)

var _ DB = (*PostgresDB)(nil)

func TestNewConnection_RequiresURL(t *testing.T) {
	db, err := NewConnection(config.DatabaseConfig{})
	require.Error(t, err)
	assert.Nil(t, db)
	assert.Contains(t, err.Error(), "database URL is required")
}

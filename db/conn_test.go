package db

import (
	"testing"

	"bitwise74/bucket-panel/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSqliteMemory(t *testing.T) {
	d, err := New("sqlite", ":memory:")
	require.NoError(t, err)

	for _, m := range []any{&model.User{}, &model.Settings{}, &model.OnboardingState{}, &model.Activity{}} {
		assert.True(t, d.Migrator().HasTable(m))
	}
}

func TestNewUnknownDriver(t *testing.T) {
	_, err := New("mysql", "x")
	assert.ErrorContains(t, err, "unsupported database driver")
}

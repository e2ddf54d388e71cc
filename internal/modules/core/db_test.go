package core

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
)

func Test_WithIsolationLevel_Sets_Transaction_Isolation(t *testing.T) {
	// Arrange
	options := sql.TxOptions{}

	// Act
	WithIsolationLevel(sql.LevelReadCommitted)(&options)

	// Assert
	require.Equal(t, sql.LevelReadCommitted, options.Isolation)
	require.False(t, options.ReadOnly)
}

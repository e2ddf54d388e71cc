package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/eskrenkovic/run-sessions-go/internal/modules/user/domain"

	"github.com/eskrenkovic/tql"
	"github.com/google/uuid"
)

type SettingsStore struct {
	db *sql.DB
}

func NewSettingsStore(db *sql.DB) *SettingsStore {
	return &SettingsStore{db}
}

func (s *SettingsStore) FindSettings(ctx context.Context, userID uuid.UUID) (domain.Settings, error) {
	const query = `
		SELECT
			user_id, invite_permissions
		FROM
			user_settings
		WHERE
			user_id = $1;`
	settings, err := tql.QueryFirst[domain.Settings](ctx, s.db, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Settings{}, domain.ErrSettingsNotFound
	}

	return settings, err
}

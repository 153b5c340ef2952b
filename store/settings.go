package store

import (
	"context"
	"database/sql"
	"strconv"

	"github.com/pkg/errors"
)

// ScopeSurvey is the only settings scope this plugin writes to.
const ScopeSurvey = "Survey"

// Settings is the per-survey key/value settings store of the host
// platform: one row per (plugin, scope, surveyId, name).
type Settings struct {
	db     *sql.DB
	plugin string
}

func NewSettings(db *sql.DB, plugin string) *Settings {
	return &Settings{db: db, plugin: plugin}
}

// Get returns the stored value for name, or the empty string when the
// setting was never written. Absence is not an error.
func (s *Settings) Get(ctx context.Context, surveyID int, name string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `
		SELECT value FROM plugin_setting
		WHERE plugin = ? AND scope = ? AND survey_id = ? AND name = ?`,
		s.plugin, ScopeSurvey, surveyID, name,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrap(err, "settings.get")
	}
	return value, nil
}

// GetInt reads a setting as an integer; absent or unparsable values
// yield zero.
func (s *Settings) GetInt(ctx context.Context, surveyID int, name string) (int, error) {
	value, err := s.Get(ctx, surveyID, name)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, nil
	}
	return n, nil
}

// Set writes one setting, replacing any previous value.
func (s *Settings) Set(ctx context.Context, surveyID int, name, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO plugin_setting (plugin, scope, survey_id, name, value)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (plugin, scope, survey_id, name) DO UPDATE SET value = excluded.value`,
		s.plugin, ScopeSurvey, surveyID, name, value,
	)
	return errors.Wrap(err, "settings.set")
}

// SetAll writes every submitted pair verbatim, independently per key.
// A failing key does not roll back keys already written.
func (s *Settings) SetAll(ctx context.Context, surveyID int, values map[string]string) error {
	for name, value := range values {
		if err := s.Set(ctx, surveyID, name, value); err != nil {
			return err
		}
	}
	return nil
}

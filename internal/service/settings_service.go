package service

import (
	"context"
	"regexp"
	"unicode/utf8"

	"github.com/sitecraft/backend/internal/model"
	"github.com/sitecraft/backend/internal/repository"
)

const maxSettingValueLength = 5000

var settingKeyPattern = regexp.MustCompile(`^[a-z0-9_.]{1,64}$`)

// SettingsService は公開サイト設定（会社名・電話番号・SNS リンクなど）を扱う
type SettingsService interface {
	All(ctx context.Context) (model.Settings, error)
	// Update upserts every key in values in one transaction.
	Update(ctx context.Context, values model.Settings) (model.Settings, error)
}

type settingsServiceImpl struct {
	repo repository.SettingRepository
}

// NewSettingsService creates a SettingsService backed by the given repository.
func NewSettingsService(repo repository.SettingRepository) SettingsService {
	return &settingsServiceImpl{repo: repo}
}

func (s *settingsServiceImpl) All(ctx context.Context) (model.Settings, error) {
	all, err := s.repo.All(ctx)
	if err != nil {
		return nil, err
	}
	if all == nil {
		all = model.Settings{}
	}
	return all, nil
}

// Update validates every key before writing any of them and returns the
// full settings map afterwards.
func (s *settingsServiceImpl) Update(ctx context.Context, values model.Settings) (model.Settings, error) {
	if len(values) == 0 {
		return nil, invalid("settings", "required")
	}
	for k, v := range values {
		if !settingKeyPattern.MatchString(k) {
			return nil, &ValidationError{Field: "settings", Code: "settings_key_invalid"}
		}
		if utf8.RuneCountInString(v) > maxSettingValueLength {
			return nil, &ValidationError{Field: "settings", Code: "settings_value_too_long"}
		}
	}
	if err := s.repo.Upsert(ctx, values); err != nil {
		return nil, err
	}
	return s.All(ctx)
}

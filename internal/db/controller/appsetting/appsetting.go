package appsetting

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/gitforge-admin/gitforge-admin/internal/cache"
	"github.com/gitforge-admin/gitforge-admin/internal/db/controller/setting"
	"github.com/gitforge-admin/gitforge-admin/internal/token"
	"github.com/gitforge-admin/gitforge-admin/internal/visibility"
)

// Controller reads and writes the settings record through a cache.
//
// Writers change the record inside a database transaction holding its row lock and
// publish the new value to the cache before committing. Readers only fill an empty
// cache entry, so a reader that loaded an older record never replaces a newer one.
type Controller struct {
	db       *gorm.DB
	cache    cache.Store
	validate *validator.Validate

	// mu serializes the writers of this process.
	mu sync.Mutex
}

// New creates a controller. A nil store disables caching.
func New(db *gorm.DB, store cache.Store) *Controller {
	if store == nil {
		store = cache.None{}
	}

	return &Controller{
		db:       db,
		cache:    store,
		validate: newValidator(),
	}
}

// Current returns a copy of the live record, creating it with defaults on first use.
func (c *Controller) Current(ctx context.Context) (*Settings, error) {
	if raw, ok, err := c.cache.Get(ctx, SettingKey); err != nil {
		log.Warn().Err(err).Msg("application settings cache read failed")
	} else if ok {
		s := new(Settings)
		if err = json.Unmarshal(raw, s); err == nil {
			return s, nil
		}

		log.Warn().Err(err).Msg("dropping undecodable cached application settings")

		if err = c.cache.Delete(ctx, SettingKey); err != nil {
			log.Warn().Err(err).Msg("application settings cache invalidation failed")
		}
	}

	s, err := c.load(ctx)
	if err != nil {
		return nil, err
	}

	if raw, errJSON := json.Marshal(s); errJSON == nil {
		if _, err = c.cache.Add(ctx, SettingKey, raw); err != nil {
			log.Warn().Err(err).Msg("application settings cache write failed")
		}
	}

	return s, nil
}

// OutboundAllowlist returns the local hosts and networks integrations may call.
func (c *Controller) OutboundAllowlist(ctx context.Context) ([]string, error) {
	s, err := c.Current(ctx)
	if err != nil {
		return nil, err
	}

	return s.OutboundLocalRequestsAllowlist, nil
}

// load reads the record from the database, creating it when missing.
func (c *Controller) load(ctx context.Context) (*Settings, error) {
	db := c.db.WithContext(ctx)
	s := new(Settings)

	err := setting.Load(db, SettingKey, s)
	if err == nil {
		return s, nil
	}

	if !errors.Is(err, setting.ErrSettingNotFound) {
		return nil, fmt.Errorf("failed to load application settings: %w", err)
	}

	if s, err = Defaults(); err != nil {
		return nil, err
	}

	created, err := setting.Create(db, SettingKey, s)
	if err != nil {
		return nil, fmt.Errorf("failed to create application settings: %w", err)
	}

	if created {
		log.Info().Str("uuid", s.UUID).Msg("application settings created with defaults")

		return s, nil
	}

	// another request or instance created it meanwhile
	s = new(Settings)
	if err = setting.Load(db, SettingKey, s); err != nil {
		return nil, fmt.Errorf("failed to load application settings: %w", err)
	}

	return s, nil
}

// Update applies the submitted attributes and persists the record when all of them are valid.
//
// Only submitted attributes change; unknown and read-only names are ignored and blank
// secrets keep their stored value. The returned record carries the submitted values
// even when errs is not empty, so forms can be re-rendered with them. Nothing is
// written when errs is not empty.
func (c *Controller) Update(ctx context.Context, params map[string]any) (*Settings, Errors, error) {
	var (
		candidate *Settings
		errs      = make(Errors)
	)

	err := c.write(ctx, func(current *Settings) (*Settings, error) {
		candidate = current.Clone()
		rv := reflect.ValueOf(candidate).Elem()

		for name, value := range params {
			idx, ok := attributes[name]
			if !ok {
				continue
			}

			if IsSecret(name) && isBlank(value) {
				continue
			}

			field := rv.Type().Field(idx)

			decoded, errDecode := decodeAttribute(field, value)
			if errDecode != nil {
				errs.Add(name, decodeMessage(field.Type))
				continue
			}

			rv.Field(idx).Set(decoded)
		}

		candidate.normalize()

		if err := collect(c.validate.Struct(candidate), errs); err != nil {
			return nil, fmt.Errorf("failed to validate application settings: %w", err)
		}

		if errs.Any() {
			return nil, nil
		}

		return candidate, nil
	})
	if err != nil {
		return nil, nil, err
	}

	if errs.Any() {
		return candidate, errs, nil
	}

	return candidate, nil, nil
}

// ResetRunnersRegistrationToken replaces the runner registration token and returns the new one.
func (c *Controller) ResetRunnersRegistrationToken(ctx context.Context) (string, error) {
	tok, err := token.RunnerRegistration()
	if err != nil {
		return "", err
	}

	err = c.write(ctx, func(current *Settings) (*Settings, error) {
		current.RunnersRegistrationToken = tok

		return current, nil
	})
	if err != nil {
		return "", err
	}

	log.Info().Msg("runners registration token reset")

	return tok, nil
}

// write runs change on the locked stored record and persists the record it returns.
// A nil record leaves the database untouched. The cache receives the new value while
// the row is still locked, so concurrent writers publish in commit order.
func (c *Controller) write(ctx context.Context, change func(current *Settings) (*Settings, error)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.load(ctx); err != nil {
		return err
	}

	published := false

	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		row, err := setting.GetForUpdate(tx, SettingKey)
		if err != nil {
			return fmt.Errorf("failed to load application settings: %w", err)
		}

		current := new(Settings)
		if err = json.Unmarshal(row.Value, current); err != nil {
			return fmt.Errorf("failed to decode application settings: %w", err)
		}

		next, err := change(current)
		if err != nil || next == nil {
			return err
		}

		if row.Value, err = json.Marshal(next); err != nil {
			return fmt.Errorf("failed to encode application settings: %w", err)
		}

		if err = tx.Save(row).Error; err != nil {
			return fmt.Errorf("failed to save application settings: %w", err)
		}

		published = true

		if err = c.cache.Set(ctx, SettingKey, row.Value); err != nil {
			log.Warn().Err(err).Msg("application settings cache write failed")
			c.invalidate(ctx)
		}

		return nil
	})
	if err != nil && published {
		// the transaction rolled back after the cache saw the new value
		c.invalidate(ctx)
	}

	return err
}

func (c *Controller) invalidate(ctx context.Context) {
	if err := c.cache.Delete(ctx, SettingKey); err != nil {
		log.Warn().Err(err).Msg("application settings cache invalidation failed")
	}
}

// normalize stores sets de-duplicated and sorted and drops blank list entries.
func (s *Settings) normalize() {
	levels := slices.Clone(s.RestrictedVisibilityLevels)
	slices.Sort(levels)
	s.RestrictedVisibilityLevels = slices.Compact(levels)

	if s.RestrictedVisibilityLevels == nil {
		s.RestrictedVisibilityLevels = []visibility.Level{}
	}

	allow := make([]string, 0, len(s.OutboundLocalRequestsAllowlist))

	for _, entry := range s.OutboundLocalRequestsAllowlist {
		if entry = strings.TrimSpace(entry); entry != "" && !slices.Contains(allow, entry) {
			allow = append(allow, entry)
		}
	}

	s.OutboundLocalRequestsAllowlist = allow
}

func isBlank(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []string:
		return len(v) == 0 || (len(v) == 1 && strings.TrimSpace(v[0]) == "")
	}

	return false
}

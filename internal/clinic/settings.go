// Package clinic holds the clinic-wide settings shared by the booking flows.
package clinic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const settingsKey = "clinic:settings"

// ErrInvalidSettings reports a settings payload that cannot be saved.
var ErrInvalidSettings = errors.New("clinic: invalid settings")

// Settings is the single clinic's operational configuration. The service runs
// one clinic; the address doubles as the capacity/appointment partition key.
type Settings struct {
	Address string `json:"address"`
	// Timezone is the IANA zone all day boundaries are computed in.
	Timezone string `json:"timezone"`
	// TreatMissingCapacityUnlimited lets admin creation on an unscheduled day
	// proceed without a capacity record. Trapper bookings always treat an
	// absent record as zero capacity.
	TreatMissingCapacityUnlimited bool      `json:"treat_missing_capacity_unlimited"`
	UpdatedAt                     time.Time `json:"updated_at"`
	UpdatedByUserID               string    `json:"updated_by_user_id,omitempty"`
}

// Location resolves the configured timezone, falling back to UTC on a bad
// zone name so day math never panics.
func (s *Settings) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// DefaultSettings returns the settings used before an admin has saved any.
func DefaultSettings(address, timezone string) *Settings {
	return &Settings{Address: address, Timezone: timezone}
}

// Store persists clinic settings in Redis.
type Store struct {
	redis    *redis.Client
	defaults *Settings
}

func NewStore(redisClient *redis.Client, defaults *Settings) *Store {
	return &Store{redis: redisClient, defaults: defaults}
}

// Get retrieves the clinic settings, returning the configured defaults when
// nothing has been saved yet.
func (s *Store) Get(ctx context.Context) (*Settings, error) {
	data, err := s.redis.Get(ctx, settingsKey).Bytes()
	if err == redis.Nil {
		copied := *s.defaults
		return &copied, nil
	}
	if err != nil {
		return nil, fmt.Errorf("clinic: get settings: %w", err)
	}

	var settings Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("clinic: unmarshal settings: %w", err)
	}
	return &settings, nil
}

// Set saves the clinic settings. Last write wins.
func (s *Store) Set(ctx context.Context, settings *Settings) error {
	if settings.Address == "" {
		return fmt.Errorf("%w: address is required", ErrInvalidSettings)
	}
	if _, err := time.LoadLocation(settings.Timezone); err != nil {
		return fmt.Errorf("%w: unknown timezone %q", ErrInvalidSettings, settings.Timezone)
	}
	settings.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("clinic: marshal settings: %w", err)
	}
	if err := s.redis.Set(ctx, settingsKey, data, 0).Err(); err != nil {
		return fmt.Errorf("clinic: set settings: %w", err)
	}
	return nil
}

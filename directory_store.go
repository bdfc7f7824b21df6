package credo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const directoryKeyPrefix = "cd"

var errDirectoryRedisUnavailable = errors.New("directory redis unavailable")

// directoryStore is the Local Directory Store: a durable key-value
// namespace holding the whole user list and the current-session pointer as
// JSON blobs, plus per-role permission overrides and the new-user
// notification stream. It enforces no uniqueness; callers do, which keeps
// this leaf simple and swappable.
type directoryStore struct {
	redis  *redis.Client
	prefix string

	// writeMu serializes in-process writers of the user-list blob, so
	// the WATCH loop in Upsert only has to absorb out-of-process
	// contention.
	writeMu sync.Mutex
}

func newDirectoryStore(redisClient *redis.Client, prefix string) *directoryStore {
	if prefix == "" {
		prefix = directoryKeyPrefix
	}
	return &directoryStore{
		redis:  redisClient,
		prefix: prefix,
	}
}

func (s *directoryStore) usersKey() string         { return s.prefix + ":users" }
func (s *directoryStore) sessionKey() string       { return s.prefix + ":session" }
func (s *directoryStore) notificationsKey() string { return s.prefix + ":notifications" }
func (s *directoryStore) overridesKey(role string) string {
	return s.prefix + ":perm:" + role
}

// ListAll describes the listall operation and its observable behavior.
//
// ListAll may return an error when input validation, dependency calls, or security checks fail.
// ListAll does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *directoryStore) ListAll(ctx context.Context) ([]Profile, error) {
	data, err := s.redis.Get(ctx, s.usersKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", errDirectoryRedisUnavailable, err)
	}

	var profiles []Profile
	if err := json.Unmarshal(data, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

// FindByEmailOrUsername describes the findbyemailorusername operation and its observable behavior.
//
// FindByEmailOrUsername may return an error when input validation, dependency calls, or security checks fail.
// FindByEmailOrUsername does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *directoryStore) FindByEmailOrUsername(ctx context.Context, identifier string) (*Profile, error) {
	profiles, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(strings.TrimSpace(identifier))
	for i := range profiles {
		if strings.ToLower(profiles[i].Email) == needle {
			return &profiles[i], nil
		}
		if profiles[i].Username != "" && strings.ToLower(profiles[i].Username) == needle {
			return &profiles[i], nil
		}
	}
	return nil, nil
}

// Upsert describes the upsert operation and its observable behavior.
//
// Upsert may return an error when input validation, dependency calls, or security checks fail.
// Upsert does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *directoryStore) Upsert(ctx context.Context, profile Profile) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	const maxRetries = 16
	key := s.usersKey()

	for i := 0; i < maxRetries; i++ {
		err := s.redis.Watch(ctx, func(tx *redis.Tx) error {
			var profiles []Profile

			data, err := tx.Get(ctx, key).Bytes()
			if err != nil && !errors.Is(err, redis.Nil) {
				return err
			}
			if err == nil {
				if err := json.Unmarshal(data, &profiles); err != nil {
					return err
				}
			}

			replaced := false
			for j := range profiles {
				if profiles[j].ID == profile.ID {
					profiles[j] = profile
					replaced = true
					break
				}
			}
			if !replaced {
				profiles = append(profiles, profile)
			}

			encoded, err := json.Marshal(profiles)
			if err != nil {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, encoded, 0)
				return nil
			})
			return err
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(i+1) * time.Millisecond):
			}
			continue
		}
		if err != nil {
			return fmt.Errorf("%w: %v", errDirectoryRedisUnavailable, err)
		}
		return nil
	}

	return fmt.Errorf("%w: upsert contention", errDirectoryRedisUnavailable)
}

// SetSession describes the setsession operation and its observable behavior.
//
// SetSession may return an error when input validation, dependency calls, or security checks fail.
// SetSession does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *directoryStore) SetSession(ctx context.Context, profile *Profile) error {
	if profile == nil {
		if err := s.redis.Del(ctx, s.sessionKey()).Err(); err != nil {
			return fmt.Errorf("%w: %v", errDirectoryRedisUnavailable, err)
		}
		return nil
	}

	encoded, err := json.Marshal(profile)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, s.sessionKey(), encoded, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", errDirectoryRedisUnavailable, err)
	}
	return nil
}

// GetSession describes the getsession operation and its observable behavior.
//
// GetSession may return an error when input validation, dependency calls, or security checks fail.
// GetSession does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *directoryStore) GetSession(ctx context.Context) (*Profile, error) {
	data, err := s.redis.Get(ctx, s.sessionKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", errDirectoryRedisUnavailable, err)
	}

	var profile Profile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// HasAny describes the hasany operation and its observable behavior.
//
// HasAny may return an error when input validation, dependency calls, or security checks fail.
// HasAny does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *directoryStore) HasAny(ctx context.Context) (bool, error) {
	profiles, err := s.ListAll(ctx)
	if err != nil {
		return false, err
	}
	return len(profiles) > 0, nil
}

// LoadOverrides describes the loadoverrides operation and its observable behavior.
//
// LoadOverrides may return an error when input validation, dependency calls, or security checks fail.
// LoadOverrides does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *directoryStore) LoadOverrides(ctx context.Context, role string) (map[string]bool, error) {
	data, err := s.redis.Get(ctx, s.overridesKey(role)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", errDirectoryRedisUnavailable, err)
	}

	var overrides map[string]bool
	if err := json.Unmarshal(data, &overrides); err != nil {
		return nil, err
	}
	return overrides, nil
}

// SaveOverrides describes the saveoverrides operation and its observable behavior.
//
// SaveOverrides may return an error when input validation, dependency calls, or security checks fail.
// SaveOverrides does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *directoryStore) SaveOverrides(ctx context.Context, role string, overrides map[string]bool) error {
	encoded, err := json.Marshal(overrides)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, s.overridesKey(role), encoded, 0).Err(); err != nil {
		return fmt.Errorf("%w: %v", errDirectoryRedisUnavailable, err)
	}
	return nil
}

// DeleteOverrides describes the deleteoverrides operation and its observable behavior.
//
// DeleteOverrides may return an error when input validation, dependency calls, or security checks fail.
// DeleteOverrides does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *directoryStore) DeleteOverrides(ctx context.Context, role string) error {
	if err := s.redis.Del(ctx, s.overridesKey(role)).Err(); err != nil {
		return fmt.Errorf("%w: %v", errDirectoryRedisUnavailable, err)
	}
	return nil
}

// AppendNotification describes the appendnotification operation and its observable behavior.
//
// AppendNotification may return an error when input validation, dependency calls, or security checks fail.
// AppendNotification does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (s *directoryStore) AppendNotification(ctx context.Context, n Notification) error {
	encoded, err := json.Marshal(n)
	if err != nil {
		return err
	}
	if err := s.redis.RPush(ctx, s.notificationsKey(), encoded).Err(); err != nil {
		return fmt.Errorf("%w: %v", errDirectoryRedisUnavailable, err)
	}
	return nil
}

package cachestore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// SetObject stores v as JSON under key. A zero ttl stores it without expiry.
func SetObject[T any](ctx context.Context, c Cache, key string, v T, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %q: %w", key, err)
	}
	return setJSON(ctx, c, key, string(data), ttl)
}

// GetObject decodes the JSON stored under key. Missing and blank values
// report ErrNotFound.
func GetObject[T any](ctx context.Context, c Cache, key string) (*T, error) {
	data, err := getJSON(ctx, c, key)
	if err != nil {
		return nil, err
	}
	var v T
	if err := json.Unmarshal([]byte(data), &v); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %q: %w", key, err)
	}
	return &v, nil
}

// SetList stores items as a JSON array under key. A nil slice is stored as
// an empty array.
func SetList[T any](ctx context.Context, c Cache, key string, items []T, ttl time.Duration) error {
	if items == nil {
		items = []T{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to marshal %q: %w", key, err)
	}
	return setJSON(ctx, c, key, string(data), ttl)
}

// GetList decodes the JSON array stored under key.
func GetList[T any](ctx context.Context, c Cache, key string) ([]T, error) {
	data, err := getJSON(ctx, c, key)
	if err != nil {
		return nil, err
	}
	var items []T
	if err := json.Unmarshal([]byte(data), &items); err != nil {
		return nil, fmt.Errorf("failed to unmarshal %q: %w", key, err)
	}
	return items, nil
}

func setJSON(ctx context.Context, c Cache, key, data string, ttl time.Duration) error {
	if ttl <= 0 {
		return c.SetString(ctx, key, data)
	}
	ok, err := c.SetStringEx(ctx, key, data, ttl)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("set %q was not acknowledged", key)
	}
	return nil
}

func getJSON(ctx context.Context, c Cache, key string) (string, error) {
	data, err := c.GetString(ctx, key)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(data) == "" {
		return "", ErrNotFound
	}
	return data, nil
}

package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/campus-schedule-api/pkg/errors"
)

type memoryCacheRepo struct {
	values  map[string][]byte
	deleted []string
	getErr  error
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{values: map[string][]byte{}}
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	if m.getErr != nil {
		return m.getErr
	}
	raw, ok := m.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.values[key] = raw
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.deleted = append(m.deleted, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.values {
		if strings.HasPrefix(key, prefix) {
			delete(m.values, key)
		}
	}
	return nil
}

type cachedValue struct {
	Name string `json:"name"`
}

func TestCacheServiceRemember(t *testing.T) {
	repo := newMemoryCacheRepo()
	svc := NewCacheService(repo, nil, time.Minute, nil, true)
	loads := 0
	load := func() (interface{}, error) {
		loads++
		return cachedValue{Name: "A-101"}, nil
	}

	var first cachedValue
	hit, err := svc.Remember(context.Background(), "campus:rooms:1", &first, load)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "A-101", first.Name)

	var second cachedValue
	hit, err = svc.Remember(context.Background(), "campus:rooms:1", &second, load)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "A-101", second.Name)
	assert.Equal(t, 1, loads)
}

func TestCacheServiceRememberIgnoresCacheFailures(t *testing.T) {
	repo := newMemoryCacheRepo()
	repo.getErr = errors.New("redis down")
	svc := NewCacheService(repo, nil, time.Minute, nil, true)

	var dest cachedValue
	hit, err := svc.Remember(context.Background(), "k", &dest, func() (interface{}, error) {
		return cachedValue{Name: "fresh"}, nil
	})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, "fresh", dest.Name)
}

func TestCacheServiceDisabled(t *testing.T) {
	var nilSvc *CacheService
	assert.False(t, nilSvc.Enabled())
	assert.NoError(t, nilSvc.Invalidate(context.Background(), "*"))

	repo := newMemoryCacheRepo()
	svc := NewCacheService(repo, nil, 0, nil, false)
	require.NoError(t, svc.Set(context.Background(), "k", cachedValue{Name: "x"}, 0))
	assert.Empty(t, repo.values)

	var dest cachedValue
	hit, err := svc.Get(context.Background(), "k", &dest)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestCacheServiceLoadError(t *testing.T) {
	svc := NewCacheService(newMemoryCacheRepo(), nil, time.Minute, nil, true)
	var dest cachedValue
	_, err := svc.Remember(context.Background(), "k", &dest, func() (interface{}, error) {
		return nil, errors.New("db down")
	})
	require.Error(t, err)
}

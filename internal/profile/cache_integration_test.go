//go:build integration

package profile_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	platformredis "seva/internal/platform/redis"
	"seva/internal/profile"
	"seva/pkg/platform/sentinel"
	"seva/pkg/testutil/containers"
)

type RedisCacheSuite struct {
	suite.Suite
	redis *containers.RedisContainer
	cache *profile.RedisCache
}

func TestRedisCacheSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(RedisCacheSuite))
}

func (s *RedisCacheSuite) SetupSuite() {
	s.redis = containers.GetManager().GetRedis(s.T())
	client := &platformredis.Client{Client: s.redis.Client}
	s.cache = profile.NewRedisCache(client, time.Minute)
}

func (s *RedisCacheSuite) SetupTest() {
	s.Require().NoError(s.redis.FlushAll(context.Background()))
}

func (s *RedisCacheSuite) TestSetAndGet() {
	ctx := context.Background()
	income := int64(120000)
	p := profile.Profile{
		UserID:       "user-1",
		Name:         "Asha Devi",
		Location:     "Bihar",
		AnnualIncome: &income,
		UpdatedAt:    time.Now().UTC().Truncate(time.Second),
	}
	s.Require().NoError(s.cache.Set(ctx, p))

	found, err := s.cache.Get(ctx, "user-1")
	s.Require().NoError(err)
	s.Equal("Asha Devi", found.Name)
	s.Require().NotNil(found.AnnualIncome)
	s.Equal(int64(120000), *found.AnnualIncome)
}

func (s *RedisCacheSuite) TestMissIsNotFound() {
	_, err := s.cache.Get(context.Background(), "ghost")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisCacheSuite) TestInvalidate() {
	ctx := context.Background()
	s.Require().NoError(s.cache.Set(ctx, profile.Profile{UserID: "user-1", Name: "Asha"}))

	s.Require().NoError(s.cache.Invalidate(ctx, "user-1"))

	_, err := s.cache.Get(ctx, "user-1")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisCacheSuite) TestInvalidateMissingKeyIsNoop() {
	s.NoError(s.cache.Invalidate(context.Background(), "ghost"))
}

func (s *RedisCacheSuite) TestCorruptEntryBehavesLikeMiss() {
	ctx := context.Background()
	s.Require().NoError(s.redis.Client.Set(ctx, "profile:user-1", "not-json", time.Minute).Err())

	_, err := s.cache.Get(ctx, "user-1")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *RedisCacheSuite) TestEntryExpires() {
	ctx := context.Background()
	shortTTL := profile.NewRedisCache(&platformredis.Client{Client: s.redis.Client}, time.Second)
	s.Require().NoError(shortTTL.Set(ctx, profile.Profile{UserID: "user-1", Name: "Asha"}))

	_, err := shortTTL.Get(ctx, "user-1")
	s.Require().NoError(err)

	time.Sleep(1500 * time.Millisecond)

	_, err = shortTTL.Get(ctx, "user-1")
	s.ErrorIs(err, sentinel.ErrNotFound)
}

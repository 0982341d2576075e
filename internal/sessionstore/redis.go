package sessionstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/sekkei-dojo/backend/internal/logger"
	"github.com/sekkei-dojo/backend/internal/utils"
)

type redisStore struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

func NewRedisStore(log *logger.Logger) (GuestClaimStore, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	ttlSec := utils.GetEnvAsInt("GUEST_SESSION_TTL_SECONDS", 86400, log)

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &redisStore{
		log: log.With("service", "RedisGuestClaimStore"),
		rdb: rdb,
		ttl: time.Duration(ttlSec) * time.Second,
	}, nil
}

func claimKey(sessionID string) string {
	return "guest_claim:" + sessionID
}

func (s *redisStore) Get(ctx context.Context, sessionID string) (*GuestClaim, error) {
	raw, err := s.rdb.Get(ctx, claimKey(sessionID)).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get guest claim: %w", err)
	}
	var claim GuestClaim
	if err := json.Unmarshal(raw, &claim); err != nil {
		return nil, fmt.Errorf("decode guest claim: %w", err)
	}
	return &claim, nil
}

func (s *redisStore) Claim(ctx context.Context, sessionID string, claim *GuestClaim) (bool, error) {
	raw, err := json.Marshal(claim)
	if err != nil {
		return false, err
	}
	ok, err := s.rdb.SetNX(ctx, claimKey(sessionID), raw, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx guest claim: %w", err)
	}
	return ok, nil
}

func (s *redisStore) MarkCompleted(ctx context.Context, sessionID string) error {
	claim, err := s.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if claim == nil {
		return fmt.Errorf("no guest claim for session")
	}
	claim.Completed = true
	raw, err := json.Marshal(claim)
	if err != nil {
		return err
	}
	// KeepTTL so completion does not extend the session lifetime.
	if err := s.rdb.Set(ctx, claimKey(sessionID), raw, goredis.KeepTTL).Err(); err != nil {
		return fmt.Errorf("redis set guest claim: %w", err)
	}
	return nil
}

func (s *redisStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.rdb.Del(ctx, claimKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("redis del guest claim: %w", err)
	}
	return nil
}

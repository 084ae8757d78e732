package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"

	"github.com/alphagov/verify-hub-sub002/internal/config"
	"github.com/alphagov/verify-hub-sub002/internal/domain"
	"github.com/alphagov/verify-hub-sub002/internal/state"
)

// redisStore はStoreのRedis実装。
// 状態はバージョン付きエンベロープJSONとして1セッション1キーで保持し、
// 更新はWATCH/MULTIによる条件付き書き込みで直列化する。
type redisStore struct {
	client *redis.Client
	clock  clockwork.Clock
}

// NewStore はRedisを背後に持つStoreを生成する。
func NewStore(client *redis.Client, clock clockwork.Clock) Store {
	return &redisStore{client: client, clock: clock}
}

// Create は新規セッションを初期世代1で保存する。
func (s *redisStore) Create(ctx context.Context, st state.State) error {
	ttl, err := s.remainingTTL(st)
	if err != nil {
		return err
	}

	enc, err := state.Encode(st, 1)
	if err != nil {
		return err
	}

	key := KeyPrefixSession + st.Common().SessionID.String()
	ok, err := s.client.SetNX(ctx, key, enc, ttl).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if !ok {
		return ErrSessionExists
	}
	return nil
}

// Get はセッション状態と更新世代を取得する。
func (s *redisStore) Get(ctx context.Context, sessionID domain.SessionID) (state.State, int64, error) {
	key := KeyPrefixSession + sessionID.String()
	b, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, 0, ErrSessionNotFound
	}
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return state.Decode(b)
}

// Update は格納世代の一致を確認したうえで状態を次世代として書き込む。
func (s *redisStore) Update(ctx context.Context, next state.State, expectedVersion int64) error {
	key := KeyPrefixSession + next.Common().SessionID.String()

	txf := func(tx *redis.Tx) error {
		b, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrSessionNotFound
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}

		current, version, err := state.Decode(b)
		if err != nil {
			return err
		}
		if version != expectedVersion {
			return ErrConcurrentUpdate
		}
		if err := state.ValidateTransition(current.Kind(), next.Kind()); err != nil {
			return err
		}

		ttl, err := s.remainingTTL(next)
		if err != nil {
			return err
		}

		enc, err := state.Encode(next, expectedVersion+1)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, enc, ttl)
			return nil
		})
		if err != nil {
			return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
		return nil
	}

	err := s.client.Watch(ctx, txf, key)
	if errors.Is(err, redis.TxFailedErr) {
		return ErrConcurrentUpdate
	}
	return err
}

// Exists はセッションの存在有無を返す。
func (s *redisStore) Exists(ctx context.Context, sessionID domain.SessionID) (bool, error) {
	key := KeyPrefixSession + sessionID.String()
	n, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return n > 0, nil
}

// remainingTTL はセッション失効時刻に猶予を加えたキーTTLを算出する。
// Timeout状態は失効後に書き込まれるため、猶予期間をそのままTTLとする。
func (s *redisStore) remainingTTL(st state.State) (time.Duration, error) {
	expiry := st.Common().SessionExpiryTimestamp
	ttl := expiry.Add(config.SessionStoreTTLGrace).Sub(s.clock.Now())
	if ttl <= 0 {
		if st.Kind() == state.KindTimeout {
			return config.SessionStoreTTLGrace, nil
		}
		return 0, &TimeoutError{SessionID: st.Common().SessionID}
	}
	return ttl, nil
}

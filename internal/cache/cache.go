package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sysu-ecnc-dev/feedback-system/backend/internal/config"
)

var ErrNotFound = errors.New("缓存中不存在该键")

const OTPPurposeResetPassword = "reset_password"

// Store 保存会话吊销记录与验证码，所有键都带有过期时间
type Store struct {
	cfg         *config.Config
	redisClient *redis.Client
}

func NewStore(cfg *config.Config, rdb *redis.Client) *Store {
	return &Store{
		cfg:         cfg,
		redisClient: rdb,
	}
}

func revokedTokenKey(jti string) string {
	return fmt.Sprintf("revoked_token_%s", jti)
}

func otpKey(purpose, username string) string {
	return fmt.Sprintf("otp_%s_%s", username, purpose)
}

func (s *Store) operationContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), time.Duration(s.cfg.Redis.OperationExpiration)*time.Second)
}

// RevokeToken 记录已登出的令牌，ttl 为令牌剩余的有效期，已过期的令牌无需记录
func (s *Store) RevokeToken(jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	ctx, cancel := s.operationContext()
	defer cancel()

	return s.redisClient.Set(ctx, revokedTokenKey(jti), 1, ttl).Err()
}

func (s *Store) IsTokenRevoked(jti string) (bool, error) {
	ctx, cancel := s.operationContext()
	defer cancel()

	n, err := s.redisClient.Exists(ctx, revokedTokenKey(jti)).Result()
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

func (s *Store) SetOTP(purpose, username, otp string) error {
	ctx, cancel := s.operationContext()
	defer cancel()

	return s.redisClient.Set(ctx, otpKey(purpose, username), otp, time.Duration(s.cfg.OTP.Expiration)*time.Second).Err()
}

func (s *Store) GetOTP(purpose, username string) (string, error) {
	ctx, cancel := s.operationContext()
	defer cancel()

	otp, err := s.redisClient.Get(ctx, otpKey(purpose, username)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", err
	}

	return otp, nil
}

func (s *Store) DelOTP(purpose, username string) error {
	ctx, cancel := s.operationContext()
	defer cancel()

	return s.redisClient.Del(ctx, otpKey(purpose, username)).Err()
}

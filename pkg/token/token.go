// Package token 门户 access token 的签发与校验，与 hertz jwt 中间件共用同一份配置
package token

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strconv"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/hertz-contrib/jwt"

	"github.com/amanifadhili/encubation-management-system-sub001/config"
	"github.com/amanifadhili/encubation-management-system-sub001/pkg/errors"
)

// IdentityKey 用户 ID 所在的 claim
const IdentityKey = "uid"

var generator *jwt.HertzJWTMiddleware

var parser = jwtv5.NewParser(
	jwtv5.WithValidMethods([]string{jwtv5.SigningMethodHS256.Alg()}),
	jwtv5.WithExpirationRequired(),
)

// Init 按当前配置构建共享的 jwt 中间件
func Init() error {
	if config.Cfg.JWTSecret == "" {
		return fmt.Errorf("init token: %w", errJWTSecretMissing)
	}

	mw, err := jwt.New(&jwt.HertzJWTMiddleware{
		Key:         []byte(config.Cfg.JWTSecret),
		Timeout:     time.Duration(config.Cfg.JWTExpireMinutes) * time.Minute,
		MaxRefresh:  time.Duration(config.Cfg.JWTRefreshDays) * 24 * time.Hour,
		IdentityKey: IdentityKey,
		TimeFunc:    time.Now,
	})
	if err != nil {
		return fmt.Errorf("init token: %w", err)
	}

	generator = mw
	return nil
}

var errJWTSecretMissing = stderrors.New("JWT_SECRET is empty")

// GetGenerator 供 middleware 使用
func GetGenerator() *jwt.HertzJWTMiddleware {
	return generator
}

// GenerateAccessToken 签发 access token，ttl 不为正时使用配置的有效期。
// 正式 token 由门户登录服务签发，这里用于本地联调
func GenerateAccessToken(userID string, ttl time.Duration) (string, int, error) {
	if generator == nil {
		return "", 0, errors.ErrTokenGeneratorNotInitialized
	}
	if ttl <= 0 {
		ttl = generator.Timeout
	}

	issuedAt := generator.TimeFunc()
	signed, err := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, jwtv5.MapClaims{
		IdentityKey: userID,
		"iat":       issuedAt.Unix(),
		"exp":       issuedAt.Add(ttl).Unix(),
	}).SignedString(generator.Key)
	if err != nil {
		return "", 0, fmt.Errorf("sign access token: %w", err)
	}
	return signed, int(ttl / time.Second), nil
}

// ParseUserID 校验签名与有效期，返回 token 中的用户 ID
func ParseUserID(raw string) (string, error) {
	if generator == nil {
		return "", errors.ErrTokenGeneratorNotInitialized
	}

	claims := jwtv5.MapClaims{}
	parsed, err := parser.ParseWithClaims(raw, claims, func(*jwtv5.Token) (interface{}, error) {
		return generator.Key, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", errors.ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return "", errors.ErrInvalidToken
	}
	return UserIDFromClaims(claims)
}

// UserIDFromClaims uid 可以是字符串或数字
func UserIDFromClaims(claims map[string]interface{}) (string, error) {
	var uid string
	switch v := claims[IdentityKey].(type) {
	case string:
		uid = v
	case float64:
		uid = strconv.FormatFloat(v, 'f', 0, 64)
	case json.Number:
		uid = v.String()
	case int64:
		uid = strconv.FormatInt(v, 10)
	}
	if uid == "" {
		return "", errors.ErrUserIDNotFound
	}
	return uid, nil
}

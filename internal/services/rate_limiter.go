package services

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"car-valuation/internal/apperror"
	"car-valuation/internal/config"
	"car-valuation/internal/logger"
)

// RateCounter — счётчики в Redis, нужные лимитеру.
type RateCounter interface {
	Incr(ctx context.Context, key string) (int64, error)
	Expire(ctx context.Context, key string, ttl time.Duration) error
	TTL(ctx context.Context, key string) (time.Duration, error)
	GetInt(ctx context.Context, key string) (int64, error)
}

// RateLimiter ограничивает число запросов оценки в фиксированном окне на клиента.
//
// Заголовки X-Real-IP и X-Forwarded-For учитываются только при TrustProxyHeaders:
// без доверенного прокси перед сервисом клиент подставит в них что угодно
// и получит новое окно на каждый запрос.
type RateLimiter struct {
	counter    RateCounter
	log        *logger.Logger
	enabled    bool
	trustProxy bool
	limit      int64
	window     time.Duration
	prefix     string
}

// NewRateLimiter создаёт лимитер; без Redis или при выключенном конфиге он пропускает всё.
func NewRateLimiter(counter RateCounter, log *logger.Logger, cfg *config.RateLimitConfig) *RateLimiter {
	if counter == nil || cfg == nil || !cfg.Enabled || cfg.Requests <= 0 || cfg.WindowSeconds <= 0 {
		return &RateLimiter{enabled: false}
	}

	prefix := cfg.KeyPrefix
	if prefix == "" {
		prefix = "ratelimit"
	}
	if log == nil {
		log = logger.NewNop()
	}

	return &RateLimiter{
		counter:    counter,
		log:        log,
		enabled:    true,
		trustProxy: cfg.TrustProxyHeaders,
		limit:      int64(cfg.Requests),
		window:     time.Duration(cfg.WindowSeconds) * time.Second,
		prefix:     prefix,
	}
}

// Allow учитывает запрос клиента и сообщает, укладывается ли он в лимит окна.
func (r *RateLimiter) Allow(ctx context.Context, client string) (allowed bool, remaining int64, resetAt time.Time, err error) {
	if !r.enabled {
		return true, r.limit, time.Now().Add(r.window), nil
	}

	key := r.counterKey(client)
	count, err := r.counter.Incr(ctx, key)
	if err != nil {
		return false, 0, time.Time{}, fmt.Errorf("rate limiter incr failed: %w", err)
	}

	left := r.windowLeft(ctx, key, count == 1)
	return count <= r.limit, r.remaining(count), time.Now().Add(left), nil
}

// windowLeft возвращает время до конца окна. Новый счётчик получает TTL окна;
// счётчик без TTL (Expire на первом запросе не прошёл) получает его заново,
// иначе он не сбросится никогда.
func (r *RateLimiter) windowLeft(ctx context.Context, key string, first bool) time.Duration {
	if first {
		err := r.counter.Expire(ctx, key, r.window)
		if err == nil {
			return r.window
		}
		r.log.WithError(err).WithField("key", key).Warn("failed to set rate limit ttl")
	}

	ttl, err := r.counter.TTL(ctx, key)
	switch {
	case err != nil:
		r.log.WithError(err).WithField("key", key).Warn("failed to get rate limit ttl")
		return r.window
	case ttl < 0:
		if err := r.counter.Expire(ctx, key, r.window); err != nil {
			r.log.WithError(err).WithField("key", key).Error("rate limit counter has no ttl")
		}
		return r.window
	case ttl == 0:
		return r.window
	}
	return ttl
}

// Usage возвращает число запросов клиента в текущем окне без его изменения.
func (r *RateLimiter) Usage(ctx context.Context, client string) (used int64, remaining int64, resetAt *time.Time, err error) {
	if !r.enabled {
		return 0, r.limit, nil, nil
	}

	key := r.counterKey(client)
	count, err := r.counter.GetInt(ctx, key)
	if err != nil {
		if apperror.Is(err, apperror.KindNotFound) {
			return 0, r.limit, nil, nil
		}
		return 0, 0, nil, fmt.Errorf("rate limiter usage failed: %w", err)
	}

	if ttl, ttlErr := r.counter.TTL(ctx, key); ttlErr != nil {
		r.log.WithError(ttlErr).WithField("key", key).Warn("failed to get rate limit ttl")
	} else if ttl > 0 {
		at := time.Now().Add(ttl)
		resetAt = &at
	}

	return count, r.remaining(count), resetAt, nil
}

func (r *RateLimiter) remaining(count int64) int64 {
	if count >= r.limit {
		return 0
	}
	return r.limit - count
}

func (r *RateLimiter) counterKey(client string) string {
	return fmt.Sprintf("%s:%s", r.prefix, strings.ReplaceAll(client, ":", "_"))
}

// Limit возвращает лимит для текущего окна.
func (r *RateLimiter) Limit() int64 {
	return r.limit
}

// Enabled сообщает, включён ли rate limiting.
func (r *RateLimiter) Enabled() bool {
	return r.enabled
}

// ClientKey возвращает ключ клиента для лимита с учётом настройки доверия к прокси.
func (r *RateLimiter) ClientKey(req *http.Request) string {
	return ClientIP(req, r.trustProxy)
}

// ClientIP определяет IP клиента. Заголовки прокси читаются только при trustProxy,
// иначе берётся адрес TCP-соединения.
func ClientIP(req *http.Request, trustProxy bool) string {
	if trustProxy {
		if ip := strings.TrimSpace(req.Header.Get("X-Real-IP")); ip != "" {
			return ip
		}
		if fwd := req.Header.Get("X-Forwarded-For"); fwd != "" {
			first, _, _ := strings.Cut(fwd, ",")
			if ip := strings.TrimSpace(first); ip != "" {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err == nil && host != "" {
		return host
	}
	return req.RemoteAddr
}

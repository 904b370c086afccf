package bot

import (
	"sync"
	"time"
)

// RateLimiter простой rate limiter для пользователей
type RateLimiter struct {
	requests map[int64][]time.Time
	limit    int
	window   time.Duration
	mutex    sync.Mutex
}

// NewRateLimiter создает rate limiter на limit запросов за window
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		requests: make(map[int64][]time.Time),
		limit:    limit,
		window:   window,
	}
}

// IsAllowed проверяет, разрешен ли запрос для пользователя
func (rl *RateLimiter) IsAllowed(userID int64) bool {
	rl.mutex.Lock()
	defer rl.mutex.Unlock()

	now := time.Now()

	// Удаляем старые запросы
	var validRequests []time.Time
	for _, reqTime := range rl.requests[userID] {
		if now.Sub(reqTime) < rl.window {
			validRequests = append(validRequests, reqTime)
		}
	}

	if len(validRequests) >= rl.limit {
		rl.requests[userID] = validRequests
		return false
	}

	rl.requests[userID] = append(validRequests, now)
	return true
}

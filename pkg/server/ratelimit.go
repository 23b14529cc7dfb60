// Copyright 2025 zkSL Labs
//
// Rate Limiter - fixed window per client address.

package server

import (
	"sync"
	"time"
)

type rateWindow struct {
	start time.Time
	count int
}

// RateLimiter enforces a fixed request window per client address.
type RateLimiter struct {
	mu      sync.Mutex
	max     int
	window  time.Duration
	clients map[string]*rateWindow
	now     func() time.Time
}

// NewRateLimiter allows max requests per window per client.
func NewRateLimiter(max int, window time.Duration) *RateLimiter {
	if max <= 0 {
		max = 60
	}
	if window <= 0 {
		window = time.Minute
	}
	return &RateLimiter{
		max:     max,
		window:  window,
		clients: make(map[string]*rateWindow),
		now:     time.Now,
	}
}

// Allow reports whether the client may proceed and counts the request.
func (rl *RateLimiter) Allow(client string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	w, ok := rl.clients[client]
	if !ok || now.Sub(w.start) >= rl.window {
		rl.clients[client] = &rateWindow{start: now, count: 1}
		// Opportunistic sweep keeps the map bounded by active clients.
		if len(rl.clients) > 4096 {
			for k, win := range rl.clients {
				if now.Sub(win.start) >= rl.window {
					delete(rl.clients, k)
				}
			}
		}
		return true
	}
	if w.count >= rl.max {
		return false
	}
	w.count++
	return true
}

package ratelimiter

import (
	"sync"
	"time"
)

// FixedWindowCounter implements the RateLimiter interface using a fixed window counter algorithm.
// It allows a certain number of requests in a fixed time window.
type FixedWindowCounter struct {
	limit       int           // Maximum number of requests allowed in the window.
	window      time.Duration // The duration of the time window.
	count       int
	windowStart time.Time
	mutex       sync.Mutex
}

// NewFixedWindowCounter creates a new FixedWindowCounter.
func NewFixedWindowCounter(limit int, window time.Duration) *FixedWindowCounter {
	return &FixedWindowCounter{
		limit:       limit,
		window:      window,
		windowStart: time.Now(),
	}
}

// Allow checks if a request is allowed, resetting the counter whenever the
// current window has passed.
func (fwc *FixedWindowCounter) Allow() bool {
	fwc.mutex.Lock()
	defer fwc.mutex.Unlock()

	now := time.Now()
	if now.After(fwc.windowStart.Add(fwc.window)) {
		fwc.windowStart = now
		fwc.count = 0
	}

	if fwc.count < fwc.limit {
		fwc.count++
		return true
	}
	return false
}

// SlidingWindowCounter implements the RateLimiter interface using the sliding window
// counter algorithm: the window is divided into buckets, which smooths out the
// boundary bursts a fixed window allows while staying cheap on memory.
type SlidingWindowCounter struct {
	limit      int
	numBuckets int
	bucketSize time.Duration
	buckets    []int
	current    int       // Index of the current bucket.
	lastUpdate time.Time // Timestamp of the last slide.
	mutex      sync.Mutex
}

// NewSlidingWindowCounter creates a new SlidingWindowCounter dividing window into numBuckets.
func NewSlidingWindowCounter(limit int, window time.Duration, numBuckets int) *SlidingWindowCounter {
	if numBuckets <= 0 {
		numBuckets = 10
	}
	return &SlidingWindowCounter{
		limit:      limit,
		numBuckets: numBuckets,
		bucketSize: window / time.Duration(numBuckets),
		buckets:    make([]int, numBuckets),
		lastUpdate: time.Now(),
	}
}

// slide advances the window, zeroing buckets that have aged out.
func (swc *SlidingWindowCounter) slide() {
	now := time.Now()
	steps := int(now.Sub(swc.lastUpdate) / swc.bucketSize)
	if steps <= 0 {
		return
	}

	if steps >= swc.numBuckets {
		for i := range swc.buckets {
			swc.buckets[i] = 0
		}
	} else {
		for i := 1; i <= steps; i++ {
			swc.buckets[(swc.current+i)%swc.numBuckets] = 0
		}
	}
	swc.current = (swc.current + steps) % swc.numBuckets
	swc.lastUpdate = now
}

// Allow checks if a request is allowed.
func (swc *SlidingWindowCounter) Allow() bool {
	swc.mutex.Lock()
	defer swc.mutex.Unlock()

	swc.slide()

	total := 0
	for _, count := range swc.buckets {
		total += count
	}
	if total < swc.limit {
		swc.buckets[swc.current]++
		return true
	}
	return false
}

package service

import (
	"math"
	"sync"
	"time"
)

// GenerationStatus 生成进度，按耗时估算而非真实的生成步骤
type GenerationStatus struct {
	InProgress       bool       `json:"inProgress"`
	StartedAt        *time.Time `json:"startedAt,omitempty"`
	ElapsedSeconds   float64    `json:"elapsedSeconds"`
	EstimatedPercent int        `json:"estimatedPercent"`
	IsEstimate       bool       `json:"isEstimate"`
}

// generationTracker 记录每个用户进行中的生成；同一用户可能有多个重叠的请求
type generationTracker struct {
	mu       sync.Mutex
	nextID   uint64
	started  map[string]map[uint64]time.Time
	expected time.Duration
}

func newGenerationTracker(expected time.Duration) *generationTracker {
	if expected <= 0 {
		expected = 45 * time.Second
	}
	return &generationTracker{started: make(map[string]map[uint64]time.Time), expected: expected}
}

// begin 登记一次生成，返回的 end 只移除这一次
func (t *generationTracker) begin(userID string, now time.Time) (end func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.nextID++
	id := t.nextID
	if t.started[userID] == nil {
		t.started[userID] = make(map[uint64]time.Time)
	}
	t.started[userID][id] = now
	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		delete(t.started[userID], id)
		if len(t.started[userID]) == 0 {
			delete(t.started, userID)
		}
	}
}

// earliest 进行中的最早一次生成；估算以它为准
func (t *generationTracker) earliest(userID string) (time.Time, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	var first time.Time
	found := false
	for _, at := range t.started[userID] {
		if !found || at.Before(first) {
			first, found = at, true
		}
	}
	return first, found
}

// status 估算值 95 × (1 − e^(−elapsed/expected))，永远不会到达 100
func (t *generationTracker) status(userID string, now time.Time) GenerationStatus {
	started, ok := t.earliest(userID)
	if !ok {
		return GenerationStatus{IsEstimate: true}
	}
	elapsed := now.Sub(started).Seconds()
	if elapsed < 0 {
		elapsed = 0
	}
	pct := 95 * (1 - math.Exp(-elapsed/t.expected.Seconds()))
	return GenerationStatus{
		InProgress:       true,
		StartedAt:        &started,
		ElapsedSeconds:   elapsed,
		EstimatedPercent: int(math.Floor(pct)),
		IsEstimate:       true,
	}
}

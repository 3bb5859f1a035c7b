package ratelimit

import (
	"fmt"
	"sync"
	"time"
)

// Budget tracks per-tenant call counts within fixed time windows.
type Budget struct {
	mu     sync.Mutex
	counts map[string]*windowCounter

	maxPerWindow int
	windowSize   time.Duration
	now          func() time.Time
}

type windowCounter struct {
	count     int
	windowEnd time.Time
}

// BudgetExceededError is returned once a tenant has used up its window.
type BudgetExceededError struct {
	TenantID string
	Action   string
	Count    int
	Max      int
	RetryAt  time.Time
}

func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("budget exceeded: tenant %s action %s (%d/%d in window)",
		e.TenantID, e.Action, e.Count, e.Max)
}

// NewBudget creates a budget limiter. maxPerWindow limits calls per
// (tenantID, action) within windowSize; zero disables the limit.
func NewBudget(maxPerWindow int, windowSize time.Duration) *Budget {
	return &Budget{
		counts:       make(map[string]*windowCounter),
		maxPerWindow: maxPerWindow,
		windowSize:   windowSize,
		now:          time.Now,
	}
}

func budgetKey(tenantID, action string) string {
	return tenantID + "|" + action
}

// Check returns an error if the tenant has exceeded the budget for the action.
func (b *Budget) Check(tenantID, action string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.check(budgetKey(tenantID, action), tenantID, action)
}

func (b *Budget) check(key, tenantID, action string) error {
	if b.maxPerWindow <= 0 {
		return nil
	}
	wc, ok := b.counts[key]
	if !ok || b.now().After(wc.windowEnd) {
		return nil // no window or expired window
	}
	if wc.count >= b.maxPerWindow {
		return &BudgetExceededError{
			TenantID: tenantID,
			Action:   action,
			Count:    wc.count,
			Max:      b.maxPerWindow,
			RetryAt:  wc.windowEnd,
		}
	}
	return nil
}

// Record records a call for the tenant.
func (b *Budget) Record(tenantID, action string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record(budgetKey(tenantID, action))
}

func (b *Budget) record(key string) {
	wc, ok := b.counts[key]
	if !ok || b.now().After(wc.windowEnd) {
		b.counts[key] = &windowCounter{
			count:     1,
			windowEnd: b.now().Add(b.windowSize),
		}
		return
	}
	wc.count++
}

// Allow checks and records in one step.
func (b *Budget) Allow(tenantID, action string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	key := budgetKey(tenantID, action)
	if err := b.check(key, tenantID, action); err != nil {
		return err
	}
	b.record(key)
	return nil
}

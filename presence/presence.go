// Package presence 記錄每位參與者目前有幾條已綁定的即時連線。
package presence

import (
	"context"
	"sync"

	"lawchat/backend/models"
)

// Tracker 以計數方式追蹤上線狀態，同一參與者可以同時有多個分頁或裝置
type Tracker interface {
	Online(ctx context.Context, ref models.ParticipantRef) error
	Offline(ctx context.Context, ref models.ParticipantRef) error
	// Refresh 表示參與者的連線仍然活著，有存活時間的實作藉此延長計數
	Refresh(ctx context.Context, ref models.ParticipantRef) error
	OnlineSet(ctx context.Context, refs []models.ParticipantRef) (map[models.ParticipantRef]bool, error)
}

// MemoryTracker 是單一程序內的 Tracker
type MemoryTracker struct {
	mu     sync.RWMutex
	counts map[models.ParticipantRef]int
}

// NewMemoryTracker 建立 MemoryTracker
func NewMemoryTracker() *MemoryTracker {
	return &MemoryTracker{counts: make(map[models.ParticipantRef]int)}
}

func (t *MemoryTracker) Online(_ context.Context, ref models.ParticipantRef) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.counts[ref]++
	return nil
}

func (t *MemoryTracker) Offline(_ context.Context, ref models.ParticipantRef) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.counts[ref] <= 1 {
		delete(t.counts, ref)
		return nil
	}
	t.counts[ref]--
	return nil
}

// Refresh 沒有作用，記憶體中的計數隨程序一起消失，不會殘留
func (t *MemoryTracker) Refresh(_ context.Context, _ models.ParticipantRef) error {
	return nil
}

func (t *MemoryTracker) OnlineSet(_ context.Context, refs []models.ParticipantRef) (map[models.ParticipantRef]bool, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[models.ParticipantRef]bool, len(refs))
	for _, r := range refs {
		out[r] = t.counts[r] > 0
	}
	return out, nil
}

package reconcile

import (
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"kishu/model"
)

// heldBatch は確認待ちのバッチ1件分の完全な解決結果です。
// メモリ上にのみ存在し、確定またはキャンセルで破棄されます。
type heldBatch struct {
	ID             string
	State          State
	CompetitorID   int64
	CategoryID     int64
	CategoryName   string
	SubmittedTotal int
	StoredTotal    int
	Resolved       []model.ResolvedMachine // 全項目 (自動確定分も含む)
	UpdatedAt      time.Time
	Timestamp      string // machine_data に書く一括分の更新日時
}

// pendingItems はステージ3/4の項目だけを返します。
func (b *heldBatch) pendingItems() []model.ResolvedMachine {
	var pending []model.ResolvedMachine
	for _, item := range b.Resolved {
		if item.Candidate.MatchStage >= model.MatchStageFuzzy {
			pending = append(pending, item)
		}
	}
	return pending
}

func (b *heldBatch) toPendingConfirmation() *model.PendingConfirmation {
	return &model.PendingConfirmation{
		PendingID:      b.ID,
		CompetitorID:   b.CompetitorID,
		Category:       b.CategoryName,
		CategoryID:     b.CategoryID,
		SubmittedTotal: b.SubmittedTotal,
		Items:          b.pendingItems(),
		UpdatedAt:      b.UpdatedAt,
	}
}

// pendingStore は確認待ちバッチのインメモリ置き場です。
type pendingStore struct {
	mu      sync.Mutex
	batches map[string]*heldBatch
}

func newPendingStore() *pendingStore {
	return &pendingStore{batches: make(map[string]*heldBatch)}
}

func (s *pendingStore) put(b *heldBatch) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b.ID == "" {
		b.ID = ulid.Make().String()
	}
	s.batches[b.ID] = b
	return b.ID
}

func (s *pendingStore) get(id string) (*heldBatch, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.batches[id]
	return b, ok
}

func (s *pendingStore) remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.batches, id)
}

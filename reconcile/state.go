// 登録バッチの突合ワークフローです。照合 → 総台数チェック →
// 保留項目の確定という多段の流れを明示的な状態機械として扱います。
package reconcile

import "fmt"

// State は1バッチの処理状態です。
type State int

const (
	StateDraft State = iota
	StateResolving
	StateAwaitingTotalConfirmation
	StateAwaitingItemConfirmation
	StateCommitted
	StateCancelled
)

func (s State) String() string {
	switch s {
	case StateDraft:
		return "DRAFT"
	case StateResolving:
		return "RESOLVING"
	case StateAwaitingTotalConfirmation:
		return "AWAITING_TOTAL_CONFIRMATION"
	case StateAwaitingItemConfirmation:
		return "AWAITING_ITEM_CONFIRMATION"
	case StateCommitted:
		return "COMMITTED"
	case StateCancelled:
		return "CANCELLED"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Event は状態遷移の引き金です。
type Event int

const (
	EventSubmit Event = iota
	EventResolvedClean       // 差異なし・保留なしで解決完了
	EventTotalMismatch       // 総台数に差異あり
	EventPendingItems        // ステージ3/4の保留項目あり
	EventTotalAccepted       // オペレーターが総台数差異を承認
	EventItemsConfirmed      // 保留項目がすべて確定
	EventCancel              // オペレーターによる中断
)

func (e Event) String() string {
	switch e {
	case EventSubmit:
		return "SUBMIT"
	case EventResolvedClean:
		return "RESOLVED_CLEAN"
	case EventTotalMismatch:
		return "TOTAL_MISMATCH"
	case EventPendingItems:
		return "PENDING_ITEMS"
	case EventTotalAccepted:
		return "TOTAL_ACCEPTED"
	case EventItemsConfirmed:
		return "ITEMS_CONFIRMED"
	case EventCancel:
		return "CANCEL"
	}
	return fmt.Sprintf("Event(%d)", int(e))
}

// transitions は許可された遷移の全一覧です。キャンセルは確認待ちの
// 2状態からのみ可能で、確定済みの書き込みは巻き戻しません。
var transitions = map[State]map[Event]State{
	StateDraft: {
		EventSubmit: StateResolving,
	},
	StateResolving: {
		EventResolvedClean: StateCommitted,
		EventTotalMismatch: StateAwaitingTotalConfirmation,
		EventPendingItems:  StateAwaitingItemConfirmation,
	},
	StateAwaitingTotalConfirmation: {
		EventTotalAccepted: StateResolving,
		EventCancel:        StateCancelled,
	},
	StateAwaitingItemConfirmation: {
		EventItemsConfirmed: StateCommitted,
		EventCancel:         StateCancelled,
	},
}

// Transition は純粋な遷移関数です。許可されない組み合わせはエラー。
func Transition(s State, e Event) (State, error) {
	if next, ok := transitions[s][e]; ok {
		return next, nil
	}
	return s, fmt.Errorf("invalid transition: %s on %s", e, s)
}

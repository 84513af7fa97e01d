package model

import "time"

// MachineSubmissionItem は登録リクエスト中の1機種分の入力行です。
// リクエスト処理の間だけ存在し、永続化はされません。
type MachineSubmissionItem struct {
	RawName  string `json:"machine"`
	Quantity int    `json:"quantity"`
}

// マッチステージ (確度) の定義。
// 1: stage1正規化での完全/部分一致
// 2: stage2正規化 (ジャンル接頭辞除去) での一致
// 3: 編集距離または外部サービスによる曖昧一致 (要目視確認)
// 4: 一致なし (要手動検索)
const (
	MatchStageBasic    = 1
	MatchStageGenre    = 2
	MatchStageFuzzy    = 3
	MatchStageNoMatch  = 4
	MaxEditDistanceDef = 5
)

// MatchCandidate は機種名解決の結果1件です。
// MatchStage が 4 の場合、ID・コード類はゼロ値のままです。
type MatchCandidate struct {
	NameCollectionID int64  `json:"nameCollectionId,omitempty"`
	CanonicalName    string `json:"canonicalName,omitempty"`
	SisCode          string `json:"sisCode,omitempty"`
	MatchStage       int    `json:"matchStage"`
	EditDistance     int    `json:"editDistance,omitempty"`
}

// ResolvedMachine は解決済みの入力行です。ステージ3は Confirmed、
// ステージ4は FixedSisCode/FixedName がオペレーター操作で埋まります。
type ResolvedMachine struct {
	RawName      string         `json:"machine"`
	Quantity     int            `json:"quantity"`
	Candidate    MatchCandidate `json:"candidate"`
	Confirmed    bool           `json:"confirmed"`
	FixedSisCode string         `json:"fixedSisCode,omitempty"`
	FixedName    string         `json:"fixedName,omitempty"`
}

// PendingConfirmation は1バッチ分の未確定データ (ステージ3/4) と
// バッチのメタ情報をまとめたものです。確定またはキャンセルで破棄されます。
type PendingConfirmation struct {
	PendingID      string            `json:"pendingId"`
	CompetitorID   int64             `json:"competitorId"`
	Category       string            `json:"category"`
	CategoryID     int64             `json:"categoryId"`
	SubmittedTotal int               `json:"totalQuantity"`
	Items          []ResolvedMachine `json:"items"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

// BatchResult は登録系APIの応答です。Status は
// "committed" / "needs_total_confirmation" / "needs_item_confirmation" のいずれかです。
type BatchResult struct {
	Status         string               `json:"status"`
	Message        string               `json:"message,omitempty"`
	PendingID      string               `json:"pendingId,omitempty"`
	StoredTotal    int                  `json:"storedTotal,omitempty"`
	SubmittedTotal int                  `json:"submittedTotal,omitempty"`
	Pending        *PendingConfirmation `json:"pending,omitempty"`
}

const (
	BatchCommitted              = "committed"
	BatchNeedsTotalConfirmation = "needs_total_confirmation"
	BatchNeedsItemConfirmation  = "needs_item_confirmation"
)

// MachineRecord は machine_data テーブルの1行です。履歴は updated_at 付きの
// 行を追加して保持します (上書きは台数編集APIのみ)。
type MachineRecord struct {
	ID               int64  `db:"id" json:"id"`
	CompetitorID     int64  `db:"competitor_id" json:"competitorId"`
	CategoryID       int64  `db:"category_id" json:"categoryId"`
	MachineName      string `db:"machine_name" json:"machineName"`
	NameCollectionID *int64 `db:"name_collection_id" json:"nameCollectionId"`
	SisCode          *string `db:"sis_code" json:"sisCode"`
	Quantity         int    `db:"quantity" json:"quantity"`
	UpdatedAt        string `db:"updated_at" json:"updatedAt"`
}

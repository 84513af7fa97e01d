package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"kishu/database"
	"kishu/matcher"
	"kishu/model"
)

var (
	ErrNoItems         = errors.New("登録する機種がありません")
	ErrInvalidQuantity = errors.New("台数は0以上で入力してください")
	ErrPendingNotFound = errors.New("確認待ちのデータが見つかりません")
)

// UnconfirmedError は保留項目が残ったまま確定しようとしたときのエラーです。
// どのステージが未完了かを機種名付きで報告します。
type UnconfirmedError struct {
	Stage3Unconfirmed []string
	Stage4Unresolved  []string
}

func (e *UnconfirmedError) Error() string {
	var parts []string
	if len(e.Stage3Unconfirmed) > 0 {
		parts = append(parts, fmt.Sprintf("ステージ3の目視確認が未完了: %s", strings.Join(e.Stage3Unconfirmed, ", ")))
	}
	if len(e.Stage4Unresolved) > 0 {
		parts = append(parts, fmt.Sprintf("ステージ4の機種未選択: %s", strings.Join(e.Stage4Unresolved, ", ")))
	}
	return "未確定の項目があります。" + strings.Join(parts, " / ")
}

// SubmitRequest は1バッチ分の登録要求です。
type SubmitRequest struct {
	StoreName      string
	CompetitorName string
	Category       string
	Items          []model.MachineSubmissionItem
}

// Workflow は登録バッチの突合と確定を司ります。
// ステージ1/2の行と新しい総台数は保留項目の確定を待たずに書き込みます
// (きれいなデータを汚いデータで塞がない)。保留確定前のキャンセルでは
// その書き込みは巻き戻しません。
type Workflow struct {
	db       *sqlx.DB
	resolver *matcher.Resolver
	pending  *pendingStore
	now      func() time.Time
}

func NewWorkflow(db *sqlx.DB, resolver *matcher.Resolver) *Workflow {
	return &Workflow{
		db:       db,
		resolver: resolver,
		pending:  newPendingStore(),
		now:      time.Now,
	}
}

// SubmitBatch は登録の入口です。キー解決 → バッチ内並行照合 →
// 総台数チェック → (必要なら確認待ち) → 確定、と進みます。
func (w *Workflow) SubmitBatch(ctx context.Context, req SubmitRequest) (*model.BatchResult, error) {
	return w.submit(ctx, req, true)
}

// ResolveWithoutGate は総台数チェックを飛ばして登録します。
// 確認応答を失った場合の再送経路です (照合は再実行されます)。
func (w *Workflow) ResolveWithoutGate(ctx context.Context, req SubmitRequest) (*model.BatchResult, error) {
	return w.submit(ctx, req, false)
}

func (w *Workflow) submit(ctx context.Context, req SubmitRequest, gateOnTotal bool) (*model.BatchResult, error) {
	if len(req.Items) == 0 {
		return nil, ErrNoItems
	}
	for _, item := range req.Items {
		if item.Quantity < 0 {
			return nil, ErrInvalidQuantity
		}
	}

	storeID, err := database.GetStoreIDByName(w.db, req.StoreName)
	if err != nil {
		return nil, err
	}
	competitorID, err := database.GetCompetitorID(w.db, storeID, req.CompetitorName)
	if err != nil {
		return nil, err
	}
	category, err := database.GetCategoryByName(w.db, req.Category)
	if err != nil {
		return nil, err
	}

	state, err := Transition(StateDraft, EventSubmit)
	if err != nil {
		return nil, err
	}

	resolved := w.resolver.ResolveAll(ctx, req.Items)

	submittedTotal := 0
	for _, item := range req.Items {
		submittedTotal += item.Quantity
	}

	now := w.now()
	batch := &heldBatch{
		State:          state,
		CompetitorID:   competitorID,
		CategoryID:     category.ID,
		CategoryName:   category.CategoryName,
		SubmittedTotal: submittedTotal,
		Resolved:       resolved,
		UpdatedAt:      now,
		Timestamp:      now.Format("2006-01-02 15:04:05"),
	}

	check, err := CheckTotal(w.db, competitorID, category.ID, submittedTotal)
	if err != nil {
		return nil, err
	}
	batch.StoredTotal = check.StoredTotal

	if gateOnTotal && !check.Matches {
		batch.State, err = Transition(batch.State, EventTotalMismatch)
		if err != nil {
			return nil, err
		}
		pendingID := w.pending.put(batch)
		log.Printf("WARN: total mismatch for competitor=%d category=%s: stored=%d submitted=%d",
			competitorID, category.CategoryName, check.StoredTotal, submittedTotal)
		return &model.BatchResult{
			Status:         model.BatchNeedsTotalConfirmation,
			Message:        fmt.Sprintf("総台数に差異があります（%d → %d）。確認してください。", check.StoredTotal, submittedTotal),
			PendingID:      pendingID,
			StoredTotal:    check.StoredTotal,
			SubmittedTotal: submittedTotal,
		}, nil
	}

	return w.commitResolved(batch)
}

// ConfirmTotal は総台数差異の承認です。保持済みの解決結果をそのまま
// 使い、照合は再実行しません。
func (w *Workflow) ConfirmTotal(pendingID string) (*model.BatchResult, error) {
	batch, ok := w.pending.get(pendingID)
	if !ok {
		return nil, ErrPendingNotFound
	}
	next, err := Transition(batch.State, EventTotalAccepted)
	if err != nil {
		return nil, err
	}
	batch.State = next
	w.pending.remove(pendingID)
	batch.ID = "" // 確定で保留が残る場合は新しいIDで持ち直す
	return w.commitResolved(batch)
}

// Cancel は確認待ちバッチを破棄します。メモリ上の保留を捨てるだけで、
// 既に書き込まれた行や総台数は取り消しません。
func (w *Workflow) Cancel(pendingID string) error {
	batch, ok := w.pending.get(pendingID)
	if !ok {
		return ErrPendingNotFound
	}
	if _, err := Transition(batch.State, EventCancel); err != nil {
		return err
	}
	w.pending.remove(pendingID)
	log.Printf("Batch %s cancelled in state %s (committed rows are kept).", pendingID, batch.State)
	return nil
}

// Pending は確認待ちバッチの現在の内容を返します。
func (w *Workflow) Pending(pendingID string) (*model.PendingConfirmation, error) {
	batch, ok := w.pending.get(pendingID)
	if !ok {
		return nil, ErrPendingNotFound
	}
	return batch.toPendingConfirmation(), nil
}

// commitResolved は解決済みバッチの確定処理です。まず新しい総台数、
// 次にステージ1/2の明細行を書き込みます (この2つは意図的に別書き込み)。
// ステージ3/4が残っていれば確認待ちとして保持します。
func (w *Workflow) commitResolved(batch *heldBatch) (*model.BatchResult, error) {
	if err := database.SetAggregateTotal(w.db, batch.CompetitorID, batch.CategoryID, batch.SubmittedTotal); err != nil {
		return nil, err
	}

	var autoRows []model.MachineRecord
	for _, item := range batch.Resolved {
		if item.Candidate.MatchStage <= model.MatchStageGenre {
			autoRows = append(autoRows, recordFrom(batch, item))
		}
	}
	if err := database.UpsertMachineRows(w.db, autoRows); err != nil {
		return nil, err
	}

	pending := batch.pendingItems()
	if len(pending) == 0 {
		next, err := Transition(batch.State, EventResolvedClean)
		if err != nil {
			return nil, err
		}
		batch.State = next
		log.Printf("Batch committed: competitor=%d category=%s rows=%d total=%d",
			batch.CompetitorID, batch.CategoryName, len(autoRows), batch.SubmittedTotal)
		return &model.BatchResult{Status: model.BatchCommitted, Message: "データ登録成功"}, nil
	}

	next, err := Transition(batch.State, EventPendingItems)
	if err != nil {
		return nil, err
	}
	batch.State = next
	pendingID := w.pending.put(batch)
	log.Printf("Batch held for item confirmation: pending=%s items=%d (auto-committed rows=%d)",
		pendingID, len(pending), len(autoRows))
	return &model.BatchResult{
		Status:         model.BatchNeedsItemConfirmation,
		Message:        fmt.Sprintf("確認が必要な機種が%d件あります。", len(pending)),
		PendingID:      pendingID,
		StoredTotal:    batch.StoredTotal,
		SubmittedTotal: batch.SubmittedTotal,
		Pending:        batch.toPendingConfirmation(),
	}, nil
}

// ConfirmItems は保留項目の確定です。ステージ3は全件の目視確認、
// ステージ4は全件のSISコード指定が揃わない限り確定できません。
// 項目はオペレーターの編集結果 (確認フラグ・選び直したコード) で
// 上書きされた状態で渡されます。
func (w *Workflow) ConfirmItems(pendingID string, items []model.ResolvedMachine) (*model.BatchResult, error) {
	batch, ok := w.pending.get(pendingID)
	if !ok {
		return nil, ErrPendingNotFound
	}
	if batch.State != StateAwaitingItemConfirmation {
		return nil, fmt.Errorf("batch %s is not awaiting item confirmation (state=%s)", pendingID, batch.State)
	}

	byName := make(map[string]model.ResolvedMachine, len(items))
	for _, item := range items {
		byName[item.RawName] = item
	}

	var unconfirmed UnconfirmedError
	final := make([]model.ResolvedMachine, 0, len(batch.Resolved))
	for _, held := range batch.pendingItems() {
		// オペレーターの編集 (確認フラグ・選び直し) だけを保持側に重ねる。
		// 解決結果そのものはクライアント入力を信用しない。
		item := held
		if posted, ok := byName[held.RawName]; ok {
			item.Confirmed = posted.Confirmed
			item.FixedSisCode = posted.FixedSisCode
			item.FixedName = posted.FixedName
		}
		switch held.Candidate.MatchStage {
		case model.MatchStageFuzzy:
			if item.FixedSisCode == "" && !item.Confirmed {
				unconfirmed.Stage3Unconfirmed = append(unconfirmed.Stage3Unconfirmed, held.RawName)
			}
		case model.MatchStageNoMatch:
			if item.FixedSisCode == "" {
				unconfirmed.Stage4Unresolved = append(unconfirmed.Stage4Unresolved, held.RawName)
			}
		}
		final = append(final, item)
	}
	if len(unconfirmed.Stage3Unconfirmed) > 0 || len(unconfirmed.Stage4Unresolved) > 0 {
		return nil, &unconfirmed
	}

	// 選び直されたコードはカタログで実在確認する。
	for i := range final {
		if final[i].FixedSisCode == "" {
			continue
		}
		machine, err := database.GetSisMachineByCode(w.db, final[i].FixedSisCode)
		if err != nil {
			return nil, err
		}
		if machine == nil {
			return nil, fmt.Errorf("指定されたSISコードが見つかりません: %s", final[i].FixedSisCode)
		}
		if final[i].FixedName == "" {
			final[i].FixedName = machine.SisMachineName
		}
	}

	tx, err := w.db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction for item confirmation: %w", err)
	}
	defer tx.Rollback()

	var rows []model.MachineRecord
	for _, item := range final {
		sisCode := item.Candidate.SisCode
		nameCollectionID := item.Candidate.NameCollectionID
		if item.FixedSisCode != "" {
			sisCode = item.FixedSisCode
		}
		// 確定した (入力名 → SISコード) の対応は監査用に蓄積し、
		// 次回からステージ1で即ヒットさせる。
		id, err := database.InsertAcceptedPairing(tx, item.RawName, sisCode)
		if err != nil {
			return nil, err
		}
		if id != 0 {
			nameCollectionID = id
		}

		rec := recordFrom(batch, item)
		if sisCode != "" {
			rec.SisCode = &sisCode
		}
		if nameCollectionID != 0 {
			rec.NameCollectionID = &nameCollectionID
		}
		rows = append(rows, rec)
	}
	if err := database.UpsertMachineRows(tx, rows); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit item confirmation: %w", err)
	}

	next, err := Transition(batch.State, EventItemsConfirmed)
	if err != nil {
		return nil, err
	}
	batch.State = next
	w.pending.remove(pendingID)
	log.Printf("Pending batch %s committed: rows=%d", pendingID, len(rows))
	return &model.BatchResult{Status: model.BatchCommitted, Message: "データ登録成功"}, nil
}

func recordFrom(batch *heldBatch, item model.ResolvedMachine) model.MachineRecord {
	rec := model.MachineRecord{
		CompetitorID: batch.CompetitorID,
		CategoryID:   batch.CategoryID,
		MachineName:  item.RawName,
		Quantity:     item.Quantity,
		UpdatedAt:    batch.Timestamp,
	}
	if item.Candidate.NameCollectionID != 0 {
		id := item.Candidate.NameCollectionID
		rec.NameCollectionID = &id
	}
	if item.Candidate.SisCode != "" {
		code := item.Candidate.SisCode
		rec.SisCode = &code
	}
	return rec
}

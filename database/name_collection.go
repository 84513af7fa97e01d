package database

import (
	"database/sql"
	"fmt"

	"kishu/model"
	"kishu/normalizer"
)

// CatalogLookup は matcher.Catalog を name_collection テーブルで実装します。
// 照合は事前計算済みの normalized_name 列に対して行い、クエリ時の
// 文字列変換は行いません。
type CatalogLookup struct {
	DB DBTX
}

// FindByNormalized は正規化済みパターンとの双方向部分一致で最良の
// 1件を返します。完全一致を最優先、次いで【...】修飾子抜き名称の
// 短い行 (基準機種) を優先します。該当なしは (nil, nil)。
func (c CatalogLookup) FindByNormalized(pattern string) (*model.NameCollectionEntry, error) {
	if pattern == "" {
		return nil, nil
	}
	var entry model.NameCollectionEntry
	err := c.DB.Get(&entry, `
		SELECT id, dotcom_machine_name, sis_code, normalized_name, stripped_length
		FROM name_collection
		WHERE normalized_name <> ''
		  AND (instr(?, normalized_name) > 0 OR instr(normalized_name, ?) > 0)
		ORDER BY (normalized_name = ?) DESC, stripped_length ASC, id ASC
		LIMIT 1`,
		pattern, pattern, pattern)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find name_collection by normalized name: %w", err)
	}
	return &entry, nil
}

// ListNormalized は編集距離照合用の全行スナップショットを返します。
func (c CatalogLookup) ListNormalized() ([]model.NameCollectionEntry, error) {
	var entries []model.NameCollectionEntry
	err := c.DB.Select(&entries, `
		SELECT id, dotcom_machine_name, sis_code, normalized_name, stripped_length
		FROM name_collection
		WHERE normalized_name <> ''`)
	if err != nil {
		if err == sql.ErrNoRows {
			return []model.NameCollectionEntry{}, nil
		}
		return nil, fmt.Errorf("failed to list name_collection: %w", err)
	}
	if entries == nil {
		entries = []model.NameCollectionEntry{}
	}
	return entries, nil
}

// InsertNameCollectionEntry は名称とSISコードの対応を1件追加し、
// 照合用の正規化列も同時に埋めます。
func InsertNameCollectionEntry(dbtx DBTX, machineName, sisCode string) (int64, error) {
	res, err := dbtx.Exec(`
		INSERT INTO name_collection (dotcom_machine_name, sis_code, normalized_name, stripped_length)
		VALUES (?, ?, ?, ?)`,
		machineName, sisCode,
		normalizer.NormalizeStage1(machineName),
		normalizer.StrippedLength(machineName))
	if err != nil {
		return 0, fmt.Errorf("failed to insert name_collection entry %s: %w", machineName, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get name_collection insert id: %w", err)
	}
	return id, nil
}

// InsertAcceptedPairing はオペレーターが確定した (入力名 → SISコード) の
// 対応を監査用に蓄積します。同じ正規化名が既にあれば何もせず、その行の
// IDを返します。蓄積された行は次回以降ステージ1で即ヒットします。
func InsertAcceptedPairing(dbtx DBTX, rawName, sisCode string) (int64, error) {
	normalized := normalizer.NormalizeStage1(rawName)
	if normalized == "" {
		return 0, nil
	}
	var existingID int64
	err := dbtx.Get(&existingID,
		`SELECT id FROM name_collection WHERE normalized_name = ? AND sis_code = ?`,
		normalized, sisCode)
	if err == nil {
		return existingID, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("failed to check existing pairing for %s: %w", rawName, err)
	}
	return InsertNameCollectionEntry(dbtx, rawName, sisCode)
}

// RefreshNormalizedIndex は name_collection 全行の照合用列を作り直します。
// カタログの取込・更新のたびに呼びます。正規化ルールの変更が
// アプリ側だけで完結するよう、SQL内では一切変換しません。
func RefreshNormalizedIndex(dbtx DBTX) error {
	rows, err := dbtx.Query(`SELECT id, dotcom_machine_name FROM name_collection`)
	if err != nil {
		return fmt.Errorf("failed to query name_collection for reindex: %w", err)
	}
	defer rows.Close()

	type rec struct {
		id   int64
		name string
	}
	var all []rec
	for rows.Next() {
		var r rec
		if err := rows.Scan(&r.id, &r.name); err != nil {
			return fmt.Errorf("failed to scan name_collection row: %w", err)
		}
		all = append(all, r)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	stmt, err := dbtx.Prepare(`UPDATE name_collection SET normalized_name = ?, stripped_length = ? WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare reindex update: %w", err)
	}
	defer stmt.Close()

	for _, r := range all {
		if _, err := stmt.Exec(normalizer.NormalizeStage1(r.name), normalizer.StrippedLength(r.name), r.id); err != nil {
			return fmt.Errorf("failed to reindex name_collection id %d: %w", r.id, err)
		}
	}
	return nil
}

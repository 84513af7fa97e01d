package database

import (
	"database/sql"
	"fmt"
	"sort"

	"kishu/model"
)

var (
	// ハンドラ側でHTTP 400に振り分けるためのキー未解決エラー。
	// メッセージはそのまま利用者に見せます。
	ErrStoreNotFound      = fmt.Errorf("自店が見つかりません")
	ErrCompetitorNotFound = fmt.Errorf("競合店が見つかりません")
	ErrCategoryNotFound   = fmt.Errorf("カテゴリーが見つかりません")
)

func GetStoreIDByName(dbtx DBTX, storeName string) (int64, error) {
	var id int64
	err := dbtx.Get(&id, `SELECT id FROM stores WHERE store_name = ?`, storeName)
	if err == sql.ErrNoRows {
		return 0, ErrStoreNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get store by name %s: %w", storeName, err)
	}
	return id, nil
}

func GetCompetitorID(dbtx DBTX, storeID int64, competitorName string) (int64, error) {
	var id int64
	err := dbtx.Get(&id,
		`SELECT id FROM competitor_stores WHERE store_id = ? AND competitor_name = ?`,
		storeID, competitorName)
	if err == sql.ErrNoRows {
		return 0, ErrCompetitorNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get competitor %s: %w", competitorName, err)
	}
	return id, nil
}

// GetAllStoresWithCompetitors は店舗選択画面向けに、自店ごとの競合店名
// 一覧を返します。
func GetAllStoresWithCompetitors(dbtx DBTX) ([]model.StoreWithCompetitors, error) {
	rows, err := dbtx.Query(`
		SELECT s.store_name, c.competitor_name
		FROM stores s
		LEFT JOIN competitor_stores c ON s.id = c.store_id
		ORDER BY s.store_name, c.competitor_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query stores with competitors: %w", err)
	}
	defer rows.Close()

	grouped := make(map[string][]string)
	var order []string
	for rows.Next() {
		var storeName string
		var competitorName sql.NullString
		if err := rows.Scan(&storeName, &competitorName); err != nil {
			return nil, fmt.Errorf("failed to scan store row: %w", err)
		}
		if _, ok := grouped[storeName]; !ok {
			order = append(order, storeName)
			grouped[storeName] = []string{}
		}
		if competitorName.Valid {
			grouped[storeName] = append(grouped[storeName], competitorName.String)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Strings(order)
	result := make([]model.StoreWithCompetitors, 0, len(order))
	for _, name := range order {
		result = append(result, model.StoreWithCompetitors{Name: name, Competitors: grouped[name]})
	}
	return result, nil
}

// CreateCompetitor は競合店を追加します。同名の競合店が既にあれば何もしません。
func CreateCompetitor(dbtx DBTX, storeID int64, competitorName string) error {
	_, err := dbtx.Exec(`
		INSERT INTO competitor_stores (store_id, competitor_name) VALUES (?, ?)
		ON CONFLICT(store_id, competitor_name) DO NOTHING`,
		storeID, competitorName)
	if err != nil {
		return fmt.Errorf("failed to create competitor %s: %w", competitorName, err)
	}
	return nil
}

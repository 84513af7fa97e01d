package database

import (
	"database/sql"
	"fmt"
)

// GetAggregateTotal は (競合店, 種別) の確定済み総台数を返します。
// 未登録なら 0。明細行の合計ではなく、独立に保持している値です。
func GetAggregateTotal(dbtx DBTX, competitorID, categoryID int64) (int, error) {
	var total int
	err := dbtx.Get(&total,
		`SELECT total_quantity FROM aggregate_totals WHERE competitor_id = ? AND category_id = ?`,
		competitorID, categoryID)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get aggregate total: %w", err)
	}
	return total, nil
}

// SetAggregateTotal は総台数を上書きします (last-writer-wins)。
func SetAggregateTotal(dbtx DBTX, competitorID, categoryID int64, total int) error {
	_, err := dbtx.Exec(`
		INSERT INTO aggregate_totals (competitor_id, category_id, total_quantity)
		VALUES (?, ?, ?)
		ON CONFLICT(competitor_id, category_id) DO UPDATE SET total_quantity = excluded.total_quantity`,
		competitorID, categoryID, total)
	if err != nil {
		return fmt.Errorf("failed to set aggregate total: %w", err)
	}
	return nil
}

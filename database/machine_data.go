package database

import (
	"database/sql"
	"fmt"

	"kishu/model"
)

// UpsertMachineRows は機種明細を一括登録します。同じ
// (競合店, 種別, 機種名, 更新日時) の行があれば台数とコード類を
// 上書きします。履歴は updated_at の異なる行として積み上がります。
func UpsertMachineRows(dbtx DBTX, rows []model.MachineRecord) error {
	if len(rows) == 0 {
		return nil
	}
	const q = `
		INSERT INTO machine_data
			(competitor_id, category_id, machine_name, name_collection_id, sis_code, quantity, updated_at)
		VALUES
			(:competitor_id, :category_id, :machine_name, :name_collection_id, :sis_code, :quantity, :updated_at)
		ON CONFLICT(competitor_id, category_id, machine_name, updated_at) DO UPDATE SET
			quantity = excluded.quantity,
			name_collection_id = excluded.name_collection_id,
			sis_code = excluded.sis_code`
	for i := range rows {
		if _, err := dbtx.NamedExec(q, rows[i]); err != nil {
			return fmt.Errorf("failed to upsert machine row %s: %w", rows[i].MachineName, err)
		}
	}
	return nil
}

// GetLatestMachines は (競合店, 種別) の最新スナップショット
// (updated_at が最大の一括分) を台数の多い順で返します。
func GetLatestMachines(dbtx DBTX, competitorID, categoryID int64) ([]model.MachineRecord, error) {
	var records []model.MachineRecord
	err := dbtx.Select(&records, `
		SELECT * FROM machine_data
		WHERE competitor_id = ? AND category_id = ?
		  AND updated_at = (
			SELECT MAX(updated_at) FROM machine_data
			WHERE competitor_id = ? AND category_id = ?
		  )
		ORDER BY quantity DESC, machine_name`,
		competitorID, categoryID, competitorID, categoryID)
	if err != nil {
		if err == sql.ErrNoRows {
			return []model.MachineRecord{}, nil
		}
		return nil, fmt.Errorf("failed to select latest machines: %w", err)
	}
	if records == nil {
		records = []model.MachineRecord{}
	}
	return records, nil
}

// UpdateLatestQuantity は最新の1行の台数だけを書き換えます。
// updated_at は触りません (履歴上は同じ一括分のままにする)。
func UpdateLatestQuantity(dbtx DBTX, competitorID, categoryID int64, machineName string, quantity int) error {
	res, err := dbtx.Exec(`
		UPDATE machine_data
		SET quantity = ?
		WHERE machine_name = ? AND competitor_id = ? AND category_id = ?
		  AND updated_at = (
			SELECT MAX(updated_at) FROM machine_data
			WHERE machine_name = ? AND competitor_id = ? AND category_id = ?
		  )`,
		quantity, machineName, competitorID, categoryID,
		machineName, competitorID, categoryID)
	if err != nil {
		return fmt.Errorf("failed to update quantity for %s: %w", machineName, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("最新のレコードが見つかりませんでした")
	}
	return nil
}

// GetAllLatestUpdates は1自店分の (競合店, 種別) ごとの最新更新日時を
// 返します。更新情報一覧画面向け。
func GetAllLatestUpdates(dbtx DBTX, storeID int64) ([]model.LatestUpdate, error) {
	var updates []model.LatestUpdate
	err := dbtx.Select(&updates, `
		SELECT c.competitor_name AS competitor_name,
		       cat.category_name AS category_name,
		       MAX(m.updated_at) AS latest_update
		FROM machine_data m
		JOIN competitor_stores c ON c.id = m.competitor_id
		JOIN categories cat ON cat.id = m.category_id
		WHERE c.store_id = ?
		GROUP BY c.competitor_name, cat.category_name
		ORDER BY c.competitor_name, cat.sort_order`,
		storeID)
	if err != nil {
		if err == sql.ErrNoRows {
			return []model.LatestUpdate{}, nil
		}
		return nil, fmt.Errorf("failed to select latest updates: %w", err)
	}
	if updates == nil {
		updates = []model.LatestUpdate{}
	}
	return updates, nil
}

package machines

import (
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/xuri/excelize/v2"

	"kishu/database"
)

// ExportHandler は (競合店, 種別) の最新スナップショットをxlsxで返します。
// 画面の表と同じ内容 (機種名・台数・SISコード・更新日時) です。
func ExportHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		queryParams := r.URL.Query()
		competitorName := queryParams.Get("competitorName")
		categoryName := queryParams.Get("category")
		key, err := resolveBatchKey(db,
			queryParams.Get("storeName"),
			competitorName,
			categoryName)
		if err != nil {
			writeKeyError(w, err)
			return
		}

		records, err := database.GetLatestMachines(db, key.competitorID, key.categoryID)
		if err != nil {
			log.Printf("Error fetching machines for export: %v", err)
			http.Error(w, "エクスポート対象の取得に失敗しました", http.StatusInternalServerError)
			return
		}

		f := excelize.NewFile()
		defer f.Close()
		const sheet = "設置機種"
		index, err := f.NewSheet(sheet)
		if err != nil {
			log.Printf("Error creating export sheet: %v", err)
			http.Error(w, "エクスポートファイルの作成に失敗しました", http.StatusInternalServerError)
			return
		}
		f.SetActiveSheet(index)
		f.DeleteSheet("Sheet1")

		headers := []string{"機種名", "台数", "SISコード", "更新日時"}
		for i, h := range headers {
			cell, _ := excelize.CoordinatesToCellName(i+1, 1)
			f.SetCellValue(sheet, cell, h)
		}
		for rowIdx, rec := range records {
			sisCode := ""
			if rec.SisCode != nil {
				sisCode = *rec.SisCode
			}
			values := []interface{}{rec.MachineName, rec.Quantity, sisCode, rec.UpdatedAt}
			for colIdx, v := range values {
				cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
				f.SetCellValue(sheet, cell, v)
			}
		}
		f.SetColWidth(sheet, "A", "A", 40)
		f.SetColWidth(sheet, "C", "D", 18)

		filename := fmt.Sprintf("%s_%s_%s.xlsx", competitorName, categoryName, time.Now().Format("20060102"))
		w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		w.Header().Set("Content-Disposition",
			fmt.Sprintf(`attachment; filename*=UTF-8''%s`, url.PathEscape(filename)))
		if err := f.Write(w); err != nil {
			log.Printf("Error writing export file: %v", err)
		}
	}
}

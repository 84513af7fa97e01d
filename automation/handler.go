package automation

import (
	"encoding/json"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"

	"kishu/config"
	"kishu/loader"
)

func writeJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}

// DownloadSisHandler はSISポータルから機種マスターCSVを自動取得し、
// そのままカタログに取り込みます。
func DownloadSisHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeJSONError(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}

		cfg := config.GetConfig()
		if cfg.SisPortalUserID == "" || cfg.SisPortalPassword == "" {
			writeJSONError(w, "SISポータルのIDまたはパスワードが設定されていません。設定画面で入力してください。", http.StatusBadRequest)
			return
		}

		saveDir := cfg.SisFolderPath
		if saveDir == "" {
			saveDir = os.TempDir()
			log.Printf("SIS保存先設定がないため、一時フォルダを使用します: %s", saveDir)
		}

		log.Println("Starting SIS portal automation...")
		filePath, err := DownloadSisCsv(cfg.SisPortalUserID, cfg.SisPortalPassword, saveDir)
		if err != nil {
			log.Printf("Automation Error: %v", err)
			writeJSONError(w, "自動取得エラー: "+err.Error(), http.StatusInternalServerError)
			return
		}

		if filePath == "NO_UPDATE" {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{
				"status":  "no_update",
				"message": "機種マスターの更新はありませんでした。",
			})
			return
		}

		log.Printf("Importing downloaded SIS masters from: %s", filepath.Dir(filePath))
		if err := loader.ImportSisMasters(db, filepath.Dir(filePath)); err != nil {
			writeJSONError(w, "SISマスター取込処理でエラー: "+err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":   "success",
			"message":  "ダウンロード＆取込完了",
			"filePath": filePath,
		})
	}
}

package loader

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/jmoiron/sqlx"

	"kishu/config"
)

// ReloadCatalogHandler はSISマスターCSVの再取込と照合索引の再構築を行います。
func ReloadCatalogHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
			return
		}

		cfg := config.GetConfig()
		folder := cfg.SisFolderPath
		if folder == "" {
			folder = "SIS"
		}

		log.Printf("Reloading SIS masters from %s...", folder)
		if err := ImportSisMasters(db, folder); err != nil {
			log.Printf("Error reloading SIS masters: %v", err)
			http.Error(w, "SISマスターの再取込に失敗しました: "+err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "SISマスターを再取込しました"})
	}
}

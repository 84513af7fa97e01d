// 自店・競合店・種別マスターのAPIです。
package stores

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/jmoiron/sqlx"

	"kishu/database"
)

// ListHandler は全自店とその競合店一覧を返します (店舗選択画面用)。
func ListHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storesWithCompetitors, err := database.GetAllStoresWithCompetitors(db)
		if err != nil {
			log.Printf("Error fetching stores with competitors: %v", err)
			http.Error(w, "店舗一覧の取得に失敗しました", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(storesWithCompetitors)
	}
}

type addCompetitorRequest struct {
	StoreName      string `json:"storeName"`
	CompetitorName string `json:"competitorName"`
}

// AddCompetitorHandler は自店に競合店を追加します。登録済みの名前は黙って無視します。
func AddCompetitorHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POSTメソッドのみ許可されています", http.StatusMethodNotAllowed)
			return
		}
		var req addCompetitorRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "リクエストの形式が不正です", http.StatusBadRequest)
			return
		}
		if req.StoreName == "" || req.CompetitorName == "" {
			http.Error(w, "storeNameとcompetitorNameを指定してください", http.StatusBadRequest)
			return
		}

		storeID, err := database.GetStoreIDByName(db, req.StoreName)
		if err != nil {
			if errors.Is(err, database.ErrStoreNotFound) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			log.Printf("Error resolving store %q: %v", req.StoreName, err)
			http.Error(w, "店舗の取得に失敗しました", http.StatusInternalServerError)
			return
		}
		if err := database.CreateCompetitor(db, storeID, req.CompetitorName); err != nil {
			log.Printf("Error creating competitor %q: %v", req.CompetitorName, err)
			http.Error(w, "競合店の登録に失敗しました", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "競合店を登録しました"})
	}
}

// CategoriesHandler は種別 (料金レート区分) の一覧を表示順で返します。
func CategoriesHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categories, err := database.GetAllCategories(db)
		if err != nil {
			log.Printf("Error fetching categories: %v", err)
			http.Error(w, "種別一覧の取得に失敗しました", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(categories)
	}
}

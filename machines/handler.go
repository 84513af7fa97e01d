// 登録済み設置機種の照会・台数編集APIです。
package machines

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/jmoiron/sqlx"

	"kishu/database"
)

type batchKey struct {
	competitorID int64
	categoryID   int64
	categoryName string
}

// resolveBatchKey は (店舗名, 競合店名, 種別名) をIDに引き直します。
// 見つからないキーはそのまま呼び出し元のエラーになります。
func resolveBatchKey(db *sqlx.DB, storeName, competitorName, categoryName string) (batchKey, error) {
	storeID, err := database.GetStoreIDByName(db, storeName)
	if err != nil {
		return batchKey{}, err
	}
	competitorID, err := database.GetCompetitorID(db, storeID, competitorName)
	if err != nil {
		return batchKey{}, err
	}
	category, err := database.GetCategoryByName(db, categoryName)
	if err != nil {
		return batchKey{}, err
	}
	return batchKey{competitorID: competitorID, categoryID: category.ID, categoryName: category.CategoryName}, nil
}

func writeKeyError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, database.ErrStoreNotFound),
		errors.Is(err, database.ErrCompetitorNotFound),
		errors.Is(err, database.ErrCategoryNotFound):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		log.Printf("Error resolving batch key: %v", err)
		http.Error(w, "サーバー内部でエラーが発生しました", http.StatusInternalServerError)
	}
}

// ListHandler は (競合店, 種別) の最新スナップショットを台数降順で返します。
func ListHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		queryParams := r.URL.Query()
		key, err := resolveBatchKey(db,
			queryParams.Get("storeName"),
			queryParams.Get("competitorName"),
			queryParams.Get("category"))
		if err != nil {
			writeKeyError(w, err)
			return
		}

		records, err := database.GetLatestMachines(db, key.competitorID, key.categoryID)
		if err != nil {
			log.Printf("Error fetching latest machines: %v", err)
			http.Error(w, "機種一覧の取得に失敗しました", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(records)
	}
}

type updateQuantityRequest struct {
	StoreName      string `json:"storeName"`
	CompetitorName string `json:"competitorName"`
	Category       string `json:"category"`
	MachineName    string `json:"machineName"`
	Quantity       int    `json:"quantity"`
}

// UpdateQuantityHandler は最新行の台数だけを上書きします。
// updated_at は変えないので履歴上は新しい回と見なされません。
func UpdateQuantityHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "POSTメソッドのみ許可されています", http.StatusMethodNotAllowed)
			return
		}
		var req updateQuantityRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "リクエストの形式が不正です", http.StatusBadRequest)
			return
		}
		if req.MachineName == "" {
			http.Error(w, "machineNameを指定してください", http.StatusBadRequest)
			return
		}
		if req.Quantity < 0 {
			http.Error(w, "台数は0以上で入力してください", http.StatusBadRequest)
			return
		}

		key, err := resolveBatchKey(db, req.StoreName, req.CompetitorName, req.Category)
		if err != nil {
			writeKeyError(w, err)
			return
		}
		if err := database.UpdateLatestQuantity(db, key.competitorID, key.categoryID, req.MachineName, req.Quantity); err != nil {
			log.Printf("Error updating quantity for %q: %v", req.MachineName, err)
			http.Error(w, "台数の更新に失敗しました", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "台数を更新しました"})
	}
}

// LatestUpdatesHandler は自店配下の (競合店, 種別) ごとの最終更新日時を返します。
func LatestUpdatesHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		storeName := r.URL.Query().Get("storeName")
		storeID, err := database.GetStoreIDByName(db, storeName)
		if err != nil {
			if errors.Is(err, database.ErrStoreNotFound) {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			log.Printf("Error resolving store %q: %v", storeName, err)
			http.Error(w, "サーバー内部でエラーが発生しました", http.StatusInternalServerError)
			return
		}

		updates, err := database.GetAllLatestUpdates(db, storeID)
		if err != nil {
			log.Printf("Error fetching latest updates: %v", err)
			http.Error(w, "更新日時一覧の取得に失敗しました", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(updates)
	}
}

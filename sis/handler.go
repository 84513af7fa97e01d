// SISマスター (メーカー・タイプ・機種) の検索APIです。
// ステージ4項目の手動解決画面で使う機種検索がここに乗ります。
package sis

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/jmoiron/sqlx"

	"kishu/database"
)

func MakersHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		makers, err := database.GetAllSisMakers(db)
		if err != nil {
			log.Printf("Error fetching sis makers: %v", err)
			http.Error(w, "メーカー一覧の取得に失敗しました", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(makers)
	}
}

func TypesHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		types, err := database.GetAllSisTypes(db)
		if err != nil {
			log.Printf("Error fetching sis types: %v", err)
			http.Error(w, "タイプ一覧の取得に失敗しました", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(types)
	}
}

// MachinesHandler はSIS機種マスターの絞り込み検索です。
// deviceClass (1=パチンコ, 2=スロット) は必須、他の条件は任意です。
func MachinesHandler(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		queryParams := r.URL.Query()
		deviceClass, err := strconv.Atoi(queryParams.Get("deviceClass"))
		if err != nil || (deviceClass != 1 && deviceClass != 2) {
			http.Error(w, "deviceClassは1(パチンコ)または2(スロット)を指定してください", http.StatusBadRequest)
			return
		}

		machines, err := database.GetFilteredSisMachines(db,
			deviceClass,
			queryParams.Get("makerCode"),
			queryParams.Get("typeCode"),
			queryParams.Get("name"))
		if err != nil {
			log.Printf("Error fetching filtered sis machines: %v", err)
			http.Error(w, "機種マスターの検索中にエラーが発生しました", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(machines)
	}
}

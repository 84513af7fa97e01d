package model

// Store は自店マスターの1行です。
type Store struct {
	ID        int64  `db:"id" json:"id"`
	StoreName string `db:"store_name" json:"storeName"`
}

// CompetitorStore は自店に紐づく競合店の1行です。
type CompetitorStore struct {
	ID             int64  `db:"id" json:"id"`
	StoreID        int64  `db:"store_id" json:"storeId"`
	CompetitorName string `db:"competitor_name" json:"competitorName"`
}

// StoreWithCompetitors は店舗選択画面向けの集約ビューです。
type StoreWithCompetitors struct {
	Name        string   `json:"name"`
	Competitors []string `json:"competitors"`
}

// Category は種別 (料金レート区分。例: 4円パチンコ) の1行です。
// DeviceClass は 1=パチンコ, 2=スロット。
type Category struct {
	ID           int64  `db:"id" json:"id"`
	CategoryName string `db:"category_name" json:"categoryName"`
	DeviceClass  int    `db:"device_class" json:"deviceClass"`
	SortOrder    int    `db:"sort_order" json:"sortOrder"`
}

// LatestUpdate は (競合店, 種別) ごとの最新更新日時です。
type LatestUpdate struct {
	CompetitorName string `db:"competitor_name" json:"competitor_name"`
	CategoryName   string `db:"category_name" json:"category_name"`
	LatestUpdate   string `db:"latest_update" json:"latest_update"`
}

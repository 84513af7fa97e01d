package model

// SisMaker はSISメーカーマスターの1行です。
type SisMaker struct {
	SisMakerCode string `db:"sis_maker_code" json:"sis_maker_code"`
	SisMakerName string `db:"sis_maker_name" json:"sis_maker_name"`
}

// SisType はSIS機種タイプマスターの1行です。
type SisType struct {
	SisTypeCode string `db:"sis_type_code" json:"sis_type_code"`
	SisTypeName string `db:"sis_type_name" json:"sis_type_name"`
}

// SisMachine はSIS機種マスター (正式な機種カタログ) の1行です。
// DeviceClass は 1=パチンコ, 2=スロット。
type SisMachine struct {
	SisCode        string `db:"sis_code" json:"sis_code"`
	SisMachineName string `db:"sis_machine_name" json:"sis_machine_name"`
	SisMakerCode   string `db:"sis_maker_code" json:"sis_maker_code"`
	SisTypeCode    string `db:"sis_type_code" json:"sis_type_code"`
	DeviceClass    int    `db:"device_class" json:"device_class"`
	RegisteredAt   string `db:"registered_at" json:"registered_at"`
}

// NameCollectionEntry は name_collection テーブルの1行です。
// 過去に確定した表記ゆれ名と sis_code の対応を蓄積し、マッチングの
// 対象兼監査ログとして使います。NormalizedName / StrippedLength は
// 照合用の事前計算列で、カタログ更新時に再構築されます。
type NameCollectionEntry struct {
	ID                int64  `db:"id" json:"id"`
	DotcomMachineName string `db:"dotcom_machine_name" json:"dotcomMachineName"`
	SisCode           string `db:"sis_code" json:"sisCode"`
	NormalizedName    string `db:"normalized_name" json:"normalizedName"`
	StrippedLength    int    `db:"stripped_length" json:"strippedLength"`
}

package database

import (
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kishu/normalizer"
)

func newCatalogTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	db.MustExec(`
		CREATE TABLE name_collection (
			id                  INTEGER PRIMARY KEY AUTOINCREMENT,
			dotcom_machine_name TEXT NOT NULL,
			sis_code            TEXT NOT NULL DEFAULT '',
			normalized_name     TEXT NOT NULL DEFAULT '',
			stripped_length     INTEGER NOT NULL DEFAULT 0
		)`)
	return db
}

func TestFindByNormalizedBidirectional(t *testing.T) {
	db := newCatalogTestDB(t)
	_, err := InsertNameCollectionEntry(db, "花火", "S001")
	require.NoError(t, err)

	lookup := CatalogLookup{DB: db}

	// カタログ名が入力パターンに含まれるケース。
	entry, err := lookup.FindByNormalized(normalizer.NormalizeStage1("ＣＲぱちんこ花火"))
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "S001", entry.SisCode)

	// 入力パターンがカタログ名に含まれる逆方向のケース。
	_, err = InsertNameCollectionEntry(db, "海物語イン沖縄", "S002")
	require.NoError(t, err)
	entry, err = lookup.FindByNormalized(normalizer.NormalizeStage1("海物語イン"))
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "S002", entry.SisCode)
}

func TestFindByNormalizedPrefersExactThenShortestStripped(t *testing.T) {
	db := newCatalogTestDB(t)
	for _, e := range []struct{ name, code string }{
		{"北斗の拳転生の章", "S010"},
		{"北斗の拳", "S011"},
		{"北斗の拳宿命", "S012"},
	} {
		_, err := InsertNameCollectionEntry(db, e.name, e.code)
		require.NoError(t, err)
	}
	lookup := CatalogLookup{DB: db}

	// 完全一致が最優先。
	entry, err := lookup.FindByNormalized("北斗の拳宿命")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "S012", entry.SisCode)

	// 完全一致がなければ修飾子抜き名称の短い行 (基準機種) を選ぶ。
	// 「パチンコ北斗の拳転生の章SP」はS010とS011の両方に部分一致する。
	entry, err = lookup.FindByNormalized("パチンコ北斗の拳転生の章SP")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "S011", entry.SisCode)
}

func TestFindByNormalizedNoMatch(t *testing.T) {
	db := newCatalogTestDB(t)
	_, err := InsertNameCollectionEntry(db, "花火", "S001")
	require.NoError(t, err)

	lookup := CatalogLookup{DB: db}
	entry, err := lookup.FindByNormalized("まったく別の機種")
	require.NoError(t, err)
	assert.Nil(t, entry)

	entry, err = lookup.FindByNormalized("")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestInsertAcceptedPairingDeduplicates(t *testing.T) {
	db := newCatalogTestDB(t)

	first, err := InsertAcceptedPairing(db, "ＣＲ花火～祭～", "S001")
	require.NoError(t, err)
	require.NotZero(t, first)

	// 表記が違っても正規化後が同じなら同じ行を返す。
	second, err := InsertAcceptedPairing(db, "CR花火 祭", "S001")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	var count int
	require.NoError(t, db.Get(&count, `SELECT COUNT(*) FROM name_collection`))
	assert.Equal(t, 1, count)

	// 同じ名前でもコードが違えば別の監査行になる。
	third, err := InsertAcceptedPairing(db, "CR花火祭", "S099")
	require.NoError(t, err)
	assert.NotEqual(t, first, third)
}

func TestRefreshNormalizedIndex(t *testing.T) {
	db := newCatalogTestDB(t)
	db.MustExec(`INSERT INTO name_collection (dotcom_machine_name, sis_code) VALUES ('Ｐ大海物語４【甘デジ】', 'S020')`)

	require.NoError(t, RefreshNormalizedIndex(db))

	var normalized string
	var strippedLength int
	row := db.QueryRow(`SELECT normalized_name, stripped_length FROM name_collection WHERE sis_code = 'S020'`)
	require.NoError(t, row.Scan(&normalized, &strippedLength))
	assert.Equal(t, normalizer.NormalizeStage1("Ｐ大海物語４【甘デジ】"), normalized)
	assert.Equal(t, normalizer.StrippedLength("Ｐ大海物語４【甘デジ】"), strippedLength)
}

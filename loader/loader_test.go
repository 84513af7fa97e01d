package loader

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

func newLoaderTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, ApplySchema(db))
	return db
}

func writeShiftJIS(t *testing.T, path, content string) {
	t.Helper()
	encoded, _, err := transform.String(japanese.ShiftJIS.NewEncoder(), content)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, []byte(encoded), 0644))
}

func writeSisFolder(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	writeShiftJIS(t, filepath.Join(dir, "SIS_MAKER.CSV"),
		"メーカーコード,メーカー名\nM01,三洋\nM02,サミー\n")
	writeShiftJIS(t, filepath.Join(dir, "SIS_TYPE.CSV"),
		"タイプコード,タイプ名\nT01,海物語シリーズ\n")
	writeShiftJIS(t, filepath.Join(dir, "SIS_MACHINE.CSV"),
		"SISコード,機種名,メーカーコード,タイプコード,機種区分,登録日\n"+
			"S001,Ｐ大海物語４,M01,T01,1,2024-01-10\n"+
			"S002,パチスロ北斗の拳,M02,,2,2024-02-01\n")
	return dir
}

func TestImportSisMasters(t *testing.T) {
	db := newLoaderTestDB(t)
	dir := writeSisFolder(t)

	require.NoError(t, ImportSisMasters(db, dir))

	var makers, types, machines int
	require.NoError(t, db.Get(&makers, `SELECT COUNT(*) FROM sis_makers`))
	require.NoError(t, db.Get(&types, `SELECT COUNT(*) FROM sis_types`))
	require.NoError(t, db.Get(&machines, `SELECT COUNT(*) FROM sis_machines`))
	assert.Equal(t, 2, makers)
	assert.Equal(t, 1, types)
	assert.Equal(t, 2, machines)

	// Shift-JISの機種名が正しくUTF-8で入っている。
	var name string
	require.NoError(t, db.Get(&name, `SELECT sis_machine_name FROM sis_machines WHERE sis_code = 'S001'`))
	assert.Equal(t, "Ｐ大海物語４", name)

	// name_collection が補充され、照合用の正規化列も埋まっている。
	var normalized string
	require.NoError(t, db.Get(&normalized,
		`SELECT normalized_name FROM name_collection WHERE sis_code = 'S001'`))
	assert.Equal(t, "P大海物語4", normalized)
}

func TestImportSisMastersIsIdempotent(t *testing.T) {
	db := newLoaderTestDB(t)
	dir := writeSisFolder(t)

	require.NoError(t, ImportSisMasters(db, dir))
	require.NoError(t, ImportSisMasters(db, dir))

	var machines, collected int
	require.NoError(t, db.Get(&machines, `SELECT COUNT(*) FROM sis_machines`))
	require.NoError(t, db.Get(&collected, `SELECT COUNT(*) FROM name_collection`))
	assert.Equal(t, 2, machines)
	assert.Equal(t, 2, collected)
}

func TestImportSisMastersSkipsMissingFiles(t *testing.T) {
	db := newLoaderTestDB(t)

	// 空フォルダでもエラーにしない (WARNしてスキップ)。
	require.NoError(t, ImportSisMasters(db, t.TempDir()))

	var machines int
	require.NoError(t, db.Get(&machines, `SELECT COUNT(*) FROM sis_machines`))
	assert.Equal(t, 0, machines)
}

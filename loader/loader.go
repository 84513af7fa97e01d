package loader

import (
	_ "embed"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/jmoiron/sqlx"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"

	"kishu/database"
)

//go:embed schema.sql
var schemaSQL string

// InitDatabase はスキーマを適用し、SISマスターCSVがあれば取り込みます。
func InitDatabase(db *sqlx.DB, sisFolder string) error {
	log.Println("Applying database schema...")
	if err := ApplySchema(db); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	log.Println("Schema applied successfully.")

	if sisFolder == "" {
		sisFolder = "SIS"
	}
	if err := ImportSisMasters(db, sisFolder); err != nil {
		return fmt.Errorf("failed to import SIS masters: %w", err)
	}
	return nil
}

// ApplySchema は埋め込みの schema.sql を実行します。
func ApplySchema(db *sqlx.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	return nil
}

// ImportSisMasters はSISマスターCSV (Shift-JIS) を取り込みます。
// ファイルが無いものはWARNを出してスキップします。何か取り込んだ場合は
// name_collection の初期行を補充し、照合用索引を作り直します。
func ImportSisMasters(db *sqlx.DB, folder string) error {
	makerPath := filepath.Join(folder, "SIS_MAKER.CSV")
	typePath := filepath.Join(folder, "SIS_TYPE.CSV")
	machinePath := filepath.Join(folder, "SIS_MACHINE.CSV")

	imported := false

	if _, err := os.Stat(makerPath); os.IsNotExist(err) {
		log.Printf("WARN: %s not found, skipping.", makerPath)
	} else {
		if err := loadCSV(db, makerPath, 2, true, insertSisMaker); err != nil {
			return fmt.Errorf("failed to load %s: %w", makerPath, err)
		}
		log.Printf("Loaded %s successfully.", makerPath)
		imported = true
	}

	if _, err := os.Stat(typePath); os.IsNotExist(err) {
		log.Printf("WARN: %s not found, skipping.", typePath)
	} else {
		if err := loadCSV(db, typePath, 2, true, insertSisType); err != nil {
			return fmt.Errorf("failed to load %s: %w", typePath, err)
		}
		log.Printf("Loaded %s successfully.", typePath)
		imported = true
	}

	if _, err := os.Stat(machinePath); os.IsNotExist(err) {
		log.Printf("WARN: %s not found, skipping.", machinePath)
	} else {
		if err := loadCSV(db, machinePath, 6, true, insertSisMachine); err != nil {
			return fmt.Errorf("failed to load %s: %w", machinePath, err)
		}
		log.Printf("Loaded %s successfully.", machinePath)
		imported = true
	}

	if !imported {
		return nil
	}
	return RebuildNameIndex(db)
}

// RebuildNameIndex は sis_machines の正式名称を name_collection に補充し、
// 全行の正規化列を再計算します。カタログが変わるたびに呼びます。
func RebuildNameIndex(db *sqlx.DB) error {
	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction for name index rebuild: %w", err)
	}
	defer tx.Rollback()

	// sis_machines にあって name_collection に無い名称を補充
	_, err = tx.Exec(`
		INSERT INTO name_collection (dotcom_machine_name, sis_code)
		SELECT m.sis_machine_name, m.sis_code
		FROM sis_machines m
		WHERE NOT EXISTS (
			SELECT 1 FROM name_collection n
			WHERE n.sis_code = m.sis_code AND n.dotcom_machine_name = m.sis_machine_name
		)`)
	if err != nil {
		return fmt.Errorf("failed to seed name_collection from sis_machines: %w", err)
	}

	if err := database.RefreshNormalizedIndex(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit name index rebuild: %w", err)
	}
	log.Println("Name collection index rebuilt.")
	return nil
}

func insertSisMaker(tx *sqlx.Tx, row []string) error {
	_, err := tx.Exec(`INSERT OR REPLACE INTO sis_makers (sis_maker_code, sis_maker_name) VALUES (?, ?)`,
		row[0], row[1])
	return err
}

func insertSisType(tx *sqlx.Tx, row []string) error {
	_, err := tx.Exec(`INSERT OR REPLACE INTO sis_types (sis_type_code, sis_type_name) VALUES (?, ?)`,
		row[0], row[1])
	return err
}

func insertSisMachine(tx *sqlx.Tx, row []string) error {
	deviceClass, err := strconv.Atoi(row[4])
	if err != nil {
		return fmt.Errorf("invalid device_class %q: %w", row[4], err)
	}
	_, err = tx.Exec(`
		INSERT OR REPLACE INTO sis_machines
			(sis_code, sis_machine_name, sis_maker_code, sis_type_code, device_class, registered_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		row[0], row[1], row[2], row[3], deviceClass, row[5])
	return err
}

// loadCSV はShift-JISのCSVを読み、1行ずつ insert に渡します。
func loadCSV(db *sqlx.DB, path string, expectedColumns int, skipHeader bool, insert func(*sqlx.Tx, []string) error) (err error) {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("could not open file %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(transform.NewReader(f, japanese.ShiftJIS.NewDecoder()))
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	if skipHeader {
		if _, err := r.Read(); err != nil && err != io.EOF {
			return fmt.Errorf("failed to skip header in %s: %w", path, err)
		}
	}

	tx, err := db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		} else if err != nil {
			log.Printf("Rolling back transaction for %s due to error: %v", path, err)
			tx.Rollback()
		} else {
			err = tx.Commit()
			if err != nil {
				log.Printf("Error committing transaction for %s: %v", path, err)
			}
		}
	}()

	rowCount := 0
	for {
		row, readErr := r.Read()
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			log.Printf("WARN: Error reading row in %s (skipping): %v", path, readErr)
			continue
		}
		if len(row) < expectedColumns {
			continue
		}
		if err = insert(tx, row[:expectedColumns]); err != nil {
			return fmt.Errorf("failed to insert row %d of %s: %w", rowCount+1, path, err)
		}
		rowCount++
	}
	log.Printf("Imported %d rows from %s.", rowCount, path)
	return nil
}

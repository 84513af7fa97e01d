package database

import (
	"database/sql"
	"fmt"
	"strings"

	"kishu/model"
)

func GetAllSisMakers(dbtx DBTX) ([]model.SisMaker, error) {
	var makers []model.SisMaker
	err := dbtx.Select(&makers, `SELECT * FROM sis_makers ORDER BY sis_maker_code`)
	if err != nil {
		if err == sql.ErrNoRows {
			return []model.SisMaker{}, nil
		}
		return nil, fmt.Errorf("failed to select sis makers: %w", err)
	}
	if makers == nil {
		makers = []model.SisMaker{}
	}
	return makers, nil
}

func GetAllSisTypes(dbtx DBTX) ([]model.SisType, error) {
	var types []model.SisType
	err := dbtx.Select(&types, `SELECT * FROM sis_types ORDER BY sis_type_code`)
	if err != nil {
		if err == sql.ErrNoRows {
			return []model.SisType{}, nil
		}
		return nil, fmt.Errorf("failed to select sis types: %w", err)
	}
	if types == nil {
		types = []model.SisType{}
	}
	return types, nil
}

// GetFilteredSisMachines は手動の機種検索です。deviceClass (1=パチンコ,
// 2=スロット) は必須、maker / typeCode / nameContains は任意のAND条件。
// 登録日の新しい順で全件返します (ページングなし)。
func GetFilteredSisMachines(dbtx DBTX, deviceClass int, makerCode, typeCode, nameContains string) ([]model.SisMachine, error) {
	if deviceClass != 1 && deviceClass != 2 {
		return nil, fmt.Errorf("device class must be 1 (pachinko) or 2 (slot), got %d", deviceClass)
	}

	query := `SELECT * FROM sis_machines`
	conditions := []string{"device_class = ?"}
	args := []interface{}{deviceClass}

	if makerCode != "" {
		conditions = append(conditions, "sis_maker_code = ?")
		args = append(args, makerCode)
	}
	if typeCode != "" {
		conditions = append(conditions, "sis_type_code = ?")
		args = append(args, typeCode)
	}
	if nameContains != "" {
		conditions = append(conditions, "sis_machine_name LIKE ?")
		args = append(args, "%"+nameContains+"%")
	}

	query += " WHERE " + strings.Join(conditions, " AND ")
	query += " ORDER BY registered_at DESC, sis_code"

	var machines []model.SisMachine
	err := dbtx.Select(&machines, query, args...)
	if err != nil {
		if err == sql.ErrNoRows {
			return []model.SisMachine{}, nil
		}
		return nil, fmt.Errorf("failed to select filtered sis machines: %w", err)
	}
	if machines == nil {
		machines = []model.SisMachine{}
	}
	return machines, nil
}

func GetSisMachineByCode(dbtx DBTX, sisCode string) (*model.SisMachine, error) {
	var m model.SisMachine
	err := dbtx.Get(&m, `SELECT * FROM sis_machines WHERE sis_code = ?`, sisCode)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sis machine by code %s: %w", sisCode, err)
	}
	return &m, nil
}

package database

import (
	"database/sql"
	"fmt"

	"kishu/model"
)

func GetCategoryByName(dbtx DBTX, categoryName string) (*model.Category, error) {
	var c model.Category
	err := dbtx.Get(&c, `SELECT * FROM categories WHERE category_name = ?`, categoryName)
	if err == sql.ErrNoRows {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category %s: %w", categoryName, err)
	}
	return &c, nil
}

func GetAllCategories(dbtx DBTX) ([]model.Category, error) {
	var categories []model.Category
	err := dbtx.Select(&categories, `SELECT * FROM categories ORDER BY sort_order ASC`)
	if err != nil {
		if err == sql.ErrNoRows {
			return []model.Category{}, nil
		}
		return nil, fmt.Errorf("failed to select categories: %w", err)
	}
	if categories == nil {
		categories = []model.Category{}
	}
	return categories, nil
}

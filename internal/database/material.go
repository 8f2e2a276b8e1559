package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Material cost tables mirror the costing workbook: door cores priced per
// sheet, ironmongery and general materials priced per unit.

type DoorCore struct {
	ID            uuid.UUID `json:"id"`
	TenantID      uuid.UUID `json:"tenant_id"`
	CoreType      string    `json:"core_type"`
	FireRating    string    `json:"fire_rating"`
	CostPerSheet  float64   `json:"cost_per_sheet"`
	SheetWidthMM  int       `json:"sheet_width_mm"`
	SheetHeightMM int       `json:"sheet_height_mm"`
}

type IronmongeryItem struct {
	ID       uuid.UUID `json:"id"`
	TenantID uuid.UUID `json:"tenant_id"`
	Category string    `json:"category"`
	Name     string    `json:"name"`
	Cost     float64   `json:"cost"`
}

type MaterialItem struct {
	ID       uuid.UUID `json:"id"`
	TenantID uuid.UUID `json:"tenant_id"`
	Category string    `json:"category"`
	Name     string    `json:"name"`
	Unit     string    `json:"unit"`
	Cost     float64   `json:"cost"`
}

type MaterialCosts struct {
	DoorCores   []DoorCore        `json:"door_cores"`
	Ironmongery []IronmongeryItem `json:"ironmongery"`
	Materials   []MaterialItem    `json:"materials"`
}

type ImportStats struct {
	DoorCores   int `json:"door_cores"`
	Ironmongery int `json:"ironmongery"`
	Materials   int `json:"materials"`
}

func (s *service) ListMaterialCosts(ctx context.Context, tenantID uuid.UUID) (*MaterialCosts, error) {
	costs := &MaterialCosts{
		DoorCores:   []DoorCore{},
		Ironmongery: []IronmongeryItem{},
		Materials:   []MaterialItem{},
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, core_type, fire_rating, cost_per_sheet, sheet_width_mm, sheet_height_mm
		FROM door_cores WHERE tenant_id = $1 ORDER BY core_type, fire_rating`, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var c DoorCore
		if err := rows.Scan(&c.ID, &c.TenantID, &c.CoreType, &c.FireRating, &c.CostPerSheet, &c.SheetWidthMM, &c.SheetHeightMM); err != nil {
			return nil, err
		}
		costs.DoorCores = append(costs.DoorCores, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	ironRows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, category, name, cost
		FROM ironmongery_items WHERE tenant_id = $1 ORDER BY category, name`, tenantID)
	if err != nil {
		return nil, err
	}
	defer ironRows.Close()
	for ironRows.Next() {
		var i IronmongeryItem
		if err := ironRows.Scan(&i.ID, &i.TenantID, &i.Category, &i.Name, &i.Cost); err != nil {
			return nil, err
		}
		costs.Ironmongery = append(costs.Ironmongery, i)
	}
	if err := ironRows.Err(); err != nil {
		return nil, err
	}

	matRows, err := s.db.QueryContext(ctx, `
		SELECT id, tenant_id, category, name, unit, cost
		FROM material_items WHERE tenant_id = $1 ORDER BY category, name`, tenantID)
	if err != nil {
		return nil, err
	}
	defer matRows.Close()
	for matRows.Next() {
		var m MaterialItem
		if err := matRows.Scan(&m.ID, &m.TenantID, &m.Category, &m.Name, &m.Unit, &m.Cost); err != nil {
			return nil, err
		}
		costs.Materials = append(costs.Materials, m)
	}
	return costs, matRows.Err()
}

// ImportMaterialCosts upserts every parsed row on its natural key so repeat
// imports refresh prices instead of duplicating.
func (s *service) ImportMaterialCosts(ctx context.Context, tenantID uuid.UUID, costs *MaterialCosts) (ImportStats, error) {
	stats := ImportStats{}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return stats, fmt.Errorf("failed to start transaction: %w", err)
	}
	defer tx.Rollback()

	for _, core := range costs.DoorCores {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO door_cores (tenant_id, core_type, fire_rating, cost_per_sheet, sheet_width_mm, sheet_height_mm)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (tenant_id, core_type, fire_rating)
			DO UPDATE SET
				cost_per_sheet = EXCLUDED.cost_per_sheet,
				sheet_width_mm = EXCLUDED.sheet_width_mm,
				sheet_height_mm = EXCLUDED.sheet_height_mm`,
			tenantID, core.CoreType, core.FireRating, core.CostPerSheet, core.SheetWidthMM, core.SheetHeightMM)
		if err != nil {
			return stats, err
		}
		stats.DoorCores++
	}

	for _, item := range costs.Ironmongery {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO ironmongery_items (tenant_id, category, name, cost)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (tenant_id, category, name)
			DO UPDATE SET cost = EXCLUDED.cost`,
			tenantID, item.Category, item.Name, item.Cost)
		if err != nil {
			return stats, err
		}
		stats.Ironmongery++
	}

	for _, item := range costs.Materials {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO material_items (tenant_id, category, name, unit, cost)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (tenant_id, category, name)
			DO UPDATE SET unit = EXCLUDED.unit, cost = EXCLUDED.cost`,
			tenantID, item.Category, item.Name, item.Unit, item.Cost)
		if err != nil {
			return stats, err
		}
		stats.Materials++
	}

	return stats, tx.Commit()
}

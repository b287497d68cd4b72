// Package seed installs the default cut and cost-item catalogs so a fresh
// server is usable immediately. Seeding is idempotent: existing rows are
// never touched.
package seed

import (
	"database/sql"
	"fmt"
)

// Stats contains seed operation counters.
type Stats struct {
	Inserts int
}

type cutRow struct {
	id         string
	name       string
	percentage float64
	macro      string
	fixedCost  bool
	zeroExempt bool
	utility    bool
	sortOrder  int
}

type costItemRow struct {
	id       string
	name     string
	category string
}

// Percentages per macro family sum to the macro's share of the media res, so
// the displayed total stays at 100 in either granularity.
var defaultCuts = []cutRow{
	{id: "parrillero", name: "Parrillero", percentage: 26, sortOrder: 10},
	{id: "asado", name: "Asado", percentage: 13, macro: "parrillero", sortOrder: 11},
	{id: "vacio", name: "Vacío", percentage: 7, macro: "parrillero", sortOrder: 12},
	{id: "matambre", name: "Matambre", percentage: 3, macro: "parrillero", sortOrder: 13},
	{id: "falda", name: "Falda", percentage: 3, macro: "parrillero", sortOrder: 14},

	{id: "ruedas", name: "Ruedas", percentage: 38, sortOrder: 20},
	{id: "nalga", name: "Nalga", percentage: 8, macro: "ruedas", sortOrder: 21},
	{id: "cuadrada", name: "Cuadrada", percentage: 6, macro: "ruedas", sortOrder: 22},
	{id: "bola-de-lomo", name: "Bola de lomo", percentage: 6, macro: "ruedas", sortOrder: 23},
	{id: "cuadril", name: "Cuadril", percentage: 5, macro: "ruedas", sortOrder: 24},
	{id: "peceto", name: "Peceto", percentage: 4, macro: "ruedas", sortOrder: 25},
	{id: "lomo", name: "Lomo", percentage: 3, macro: "ruedas", sortOrder: 26},
	{id: "tortuguita", name: "Tortuguita", percentage: 3, macro: "ruedas", sortOrder: 27},
	{id: "garron", name: "Garrón", percentage: 3, macro: "ruedas", sortOrder: 28},
	{id: "hueso", name: "Hueso", macro: "ruedas", fixedCost: true, sortOrder: 29},

	{id: "delantero", name: "Delantero", percentage: 36, sortOrder: 30},
	{id: "paleta", name: "Paleta", percentage: 9, macro: "delantero", sortOrder: 31},
	{id: "aguja", name: "Aguja", percentage: 8, macro: "delantero", sortOrder: 32},
	{id: "pecho", name: "Pecho", percentage: 6, macro: "delantero", sortOrder: 33},
	{id: "cogote", name: "Cogote", percentage: 4, macro: "delantero", sortOrder: 34},
	{id: "brazuelo", name: "Brazuelo", percentage: 4, macro: "delantero", sortOrder: 35},
	{id: "carnaza", name: "Carnaza", percentage: 3, macro: "delantero", sortOrder: 36},
	{id: "recortes", name: "Recortes", percentage: 2, macro: "delantero", zeroExempt: true, sortOrder: 37},
	{id: "grasa", name: "Grasa", macro: "delantero", fixedCost: true, sortOrder: 38},

	{id: "oreo", name: "Oreo", zeroExempt: true, utility: true, sortOrder: 90},
}

var defaultCostItems = []costItemRow{
	{id: "desposte", name: "Desposte", category: "Proceso"},
	{id: "mano-de-obra", name: "Mano de obra", category: "Proceso"},
	{id: "frio", name: "Frío", category: "Frío"},
	{id: "congelado", name: "Congelado", category: "Frío"},
	{id: "empaque", name: "Empaque", category: "Logística"},
	{id: "flete", name: "Flete", category: "Logística"},
	{id: "comercializacion", name: "Comercialización", category: "Comercial"},
}

// Run executes the startup seed in an idempotent way.
func Run(db *sql.DB) (Stats, error) {
	tx, err := db.Begin()
	if err != nil {
		return Stats{}, fmt.Errorf("begin seed transaction: %w", err)
	}

	stats := Stats{}

	if err := ensureCuts(tx, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}
	if err := ensureCostItems(tx, &stats); err != nil {
		_ = tx.Rollback()
		return Stats{}, err
	}

	if err := tx.Commit(); err != nil {
		return Stats{}, fmt.Errorf("commit seed transaction: %w", err)
	}

	return stats, nil
}

func ensureCuts(tx *sql.Tx, stats *Stats) error {
	for _, cut := range defaultCuts {
		var exists bool
		if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM cuts WHERE id = ? LIMIT 1)`, cut.id).Scan(&exists); err != nil {
			return fmt.Errorf("check cut existence: %w", err)
		}
		if exists {
			continue
		}

		var macro any
		if cut.macro != "" {
			macro = cut.macro
		}
		if _, err := tx.Exec(`
			INSERT INTO cuts (id, name, percentage, macro, fixed_cost, zero_exempt, utility, sort_order)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`, cut.id, cut.name, cut.percentage, macro, cut.fixedCost, cut.zeroExempt, cut.utility, cut.sortOrder); err != nil {
			return fmt.Errorf("insert cut %s: %w", cut.id, err)
		}
		stats.Inserts++
	}
	return nil
}

func ensureCostItems(tx *sql.Tx, stats *Stats) error {
	for _, item := range defaultCostItems {
		var exists bool
		if err := tx.QueryRow(`SELECT EXISTS(SELECT 1 FROM cost_items WHERE id = ? LIMIT 1)`, item.id).Scan(&exists); err != nil {
			return fmt.Errorf("check cost item existence: %w", err)
		}
		if exists {
			continue
		}

		if _, err := tx.Exec(`
			INSERT INTO cost_items (id, name, category)
			VALUES (?, ?, ?)
		`, item.id, item.name, item.category); err != nil {
			return fmt.Errorf("insert cost item %s: %w", item.id, err)
		}
		stats.Inserts++
	}
	return nil
}

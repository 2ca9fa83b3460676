package specification

import (
	"testing"
	"time"

	"pharmacy-assistant-be/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func dryRunDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN: "host=localhost user=test dbname=test sslmode=disable",
	}), &gorm.Config{DryRun: true, DisableAutomaticPing: true})
	require.NoError(t, err)
	return db
}

func TestSellableSQL(t *testing.T) {
	db := dryRunDB(t)
	at := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		for _, spec := range Sellable("Biogesic", at, 5) {
			tx = spec.Apply(tx)
		}
		var rows []model.Product
		return tx.Find(&rows)
	})

	assert.Contains(t, sql, "products.name ILIKE '%Biogesic%'")
	assert.Contains(t, sql, "products.stock > 0")
	assert.Contains(t, sql, "products.expiry_date IS NULL OR products.expiry_date >=")
	assert.Contains(t, sql, "CASE WHEN LOWER(products.name) = 'biogesic'")
	assert.Contains(t, sql, "products.stock DESC")
	assert.Contains(t, sql, "LIMIT 5")
	assert.Contains(t, sql, `"products"."deleted_at" IS NULL`)
}

func TestNameOrGenericILikeEscapesWildcards(t *testing.T) {
	db := dryRunDB(t)

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		var rows []model.Product
		return NameOrGenericILike{Term: "50%_off"}.Apply(tx).Find(&rows)
	})

	assert.Contains(t, sql, `%50\%\_off%`)
}

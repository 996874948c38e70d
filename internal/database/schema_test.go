package database

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const migrationsDir = "../../migrations"

func TestMigrationFilesExist(t *testing.T) {
	if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
		t.Fatal("Migrations directory does not exist")
	}

	expectedMigrations := []string{
		"00001_create_users_table.sql",
		"00002_create_user_accesses_table.sql",
		"00003_create_product_groups_table.sql",
		"00004_create_products_table.sql",
		"00005_create_cart_items_table.sql",
		"00006_create_orders_table.sql",
		"00007_create_order_items_table.sql",
		"00008_create_updated_at_trigger.sql",
	}

	for _, migration := range expectedMigrations {
		path := filepath.Join(migrationsDir, migration)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			t.Errorf("Migration file %s does not exist", migration)
		}
	}
}

func TestMigrationFilesHaveUpAndDown(t *testing.T) {
	files, err := os.ReadDir(migrationsDir)
	if err != nil {
		t.Fatalf("Failed to read migrations directory: %v", err)
	}

	sqlFileCount := 0
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".sql") {
			continue
		}

		sqlFileCount++
		content, err := os.ReadFile(filepath.Join(migrationsDir, file.Name()))
		if err != nil {
			t.Errorf("Failed to read migration file %s: %v", file.Name(), err)
			continue
		}

		contentStr := string(content)

		for _, directive := range []string{
			"-- +goose Up",
			"-- +goose Down",
			"-- +goose StatementBegin",
			"-- +goose StatementEnd",
		} {
			if !strings.Contains(contentStr, directive) {
				t.Errorf("Migration file %s missing %q directive", file.Name(), directive)
			}
		}
	}

	if sqlFileCount == 0 {
		t.Error("No SQL migration files found")
	}
}

func TestMigrationFilesCreateExpectedTables(t *testing.T) {
	expectedTables := map[string]string{
		"users":          "00001_create_users_table.sql",
		"user_accesses":  "00002_create_user_accesses_table.sql",
		"product_groups": "00003_create_product_groups_table.sql",
		"products":       "00004_create_products_table.sql",
		"cart_items":     "00005_create_cart_items_table.sql",
		"orders":         "00006_create_orders_table.sql",
		"order_items":    "00007_create_order_items_table.sql",
	}

	for tableName, migrationFile := range expectedTables {
		content, err := os.ReadFile(filepath.Join(migrationsDir, migrationFile))
		if err != nil {
			t.Errorf("Failed to read migration file %s: %v", migrationFile, err)
			continue
		}

		contentStr := string(content)

		if !strings.Contains(contentStr, "CREATE TABLE "+tableName) {
			t.Errorf("Migration file %s does not create table %s", migrationFile, tableName)
		}
		if !strings.Contains(contentStr, "DROP TABLE "+tableName) {
			t.Errorf("Migration file %s does not drop table %s in down section", migrationFile, tableName)
		}
	}
}

func TestSoftDeleteUniquenessIsPartial(t *testing.T) {
	partialIndexes := map[string][]string{
		"00001_create_users_table.sql":          {"users_email_live_key"},
		"00003_create_product_groups_table.sql": {"product_groups_slug_live_key"},
		"00004_create_products_table.sql":       {"products_slug_live_key", "products_group_name_live_key"},
	}

	for migrationFile, indexes := range partialIndexes {
		content, err := os.ReadFile(filepath.Join(migrationsDir, migrationFile))
		if err != nil {
			t.Fatalf("Failed to read migration file %s: %v", migrationFile, err)
		}

		contentStr := string(content)
		for _, index := range indexes {
			if !strings.Contains(contentStr, "CREATE UNIQUE INDEX "+index) {
				t.Errorf("Migration file %s missing unique index %s", migrationFile, index)
			}
		}
		if !strings.Contains(contentStr, "WHERE deleted_at IS NULL") {
			t.Errorf("Migration file %s indexes are not scoped to live rows", migrationFile)
		}
	}
}

func TestCartLinesAreUniquePerUserAndProduct(t *testing.T) {
	content, err := os.ReadFile(filepath.Join(migrationsDir, "00005_create_cart_items_table.sql"))
	if err != nil {
		t.Fatalf("Failed to read cart migration: %v", err)
	}

	contentStr := string(content)
	if !strings.Contains(contentStr, "CONSTRAINT cart_items_user_product_key UNIQUE (user_id, product_id)") {
		t.Error("Cart table missing the (user_id, product_id) uniqueness constraint")
	}
	if !strings.Contains(contentStr, "CHECK (quantity > 0)") {
		t.Error("Cart table missing the positive quantity check")
	}
}

func TestProductsTableGuardsStockAndPrice(t *testing.T) {
	content, err := os.ReadFile(filepath.Join(migrationsDir, "00004_create_products_table.sql"))
	if err != nil {
		t.Fatalf("Failed to read products migration: %v", err)
	}

	contentStr := string(content)
	if !strings.Contains(contentStr, "CHECK (stock >= 0)") {
		t.Error("Products table missing the non-negative stock check")
	}
	if !strings.Contains(contentStr, "CHECK (price >= 0)") {
		t.Error("Products table missing the non-negative price check")
	}
}

func TestOrderItemsHaveNoProductForeignKey(t *testing.T) {
	content, err := os.ReadFile(filepath.Join(migrationsDir, "00007_create_order_items_table.sql"))
	if err != nil {
		t.Fatalf("Failed to read order items migration: %v", err)
	}

	contentStr := string(content)

	// Snapshots must survive product deletion, so product_id is a bare column.
	if strings.Contains(contentStr, "product_id UUID NOT NULL REFERENCES") {
		t.Error("order_items.product_id must not reference products")
	}
	for _, column := range []string{"product_name", "product_price", "product_group_name", "total_price"} {
		if !strings.Contains(contentStr, column) {
			t.Errorf("order_items missing snapshot column %s", column)
		}
	}
}

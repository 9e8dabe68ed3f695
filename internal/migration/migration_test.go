package migration

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrationsArePaired(t *testing.T) {
	entries, err := fs.ReadDir(embeddedMigrations, migrationsDir)
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	ups := map[string]bool{}
	downs := map[string]bool{}
	for _, entry := range entries {
		name := entry.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		}
	}
	assert.Equal(t, ups, downs)
}

func TestServiceTypeProductsKeyedByPair(t *testing.T) {
	body, err := fs.ReadFile(embeddedMigrations, migrationsDir+"/000002_service_types.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(body), "PRIMARY KEY (service_type_id, product_id)")
}

func TestRunMigrationsRequiresHandle(t *testing.T) {
	assert.Error(t, RunMigrations(nil))
}

func TestInventoryKeyedByProductAndStore(t *testing.T) {
	body, err := fs.ReadFile(embeddedMigrations, migrationsDir+"/000005_reviews_coupons_inventory.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(body), "PRIMARY KEY (product_id, store_id)")
	assert.Contains(t, string(body), "user_id BIGINT NOT NULL UNIQUE")
}

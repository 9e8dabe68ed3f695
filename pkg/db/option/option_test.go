package option

import (
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/carhouse/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type widget struct {
	ID        int64
	Name      string
	Stock     int
	CreatedAt int64
}

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&widget{}))
	rows := []widget{
		{ID: 1, Name: "Brake Pad", Stock: 4, CreatedAt: 1},
		{ID: 2, Name: "Oil Filter", Stock: 20, CreatedAt: 2},
		{ID: 3, Name: "brake disc", Stock: 8, CreatedAt: 3},
	}
	require.NoError(t, db.Create(&rows).Error)
	return db
}

func TestApplyOperatorsAndSort(t *testing.T) {
	db := setupDB(t)

	var out []widget
	stmt := Apply(db.Model(&widget{}),
		ApplyOperator(Condition{Field: "name", Operator: LIKE, Value: "BRAKE"}),
		ApplyOperator(Condition{Field: "stock", Operator: LTE, Value: 10}),
		WithSortBy(WithQuerySortBy("name", "asc", map[string]bool{"name": true})),
	)
	require.NoError(t, stmt.Find(&out).Error)
	require.Len(t, out, 2)
	assert.Equal(t, "Brake Pad", out[0].Name)
}

func TestWithSortByRejectsUnknownColumn(t *testing.T) {
	db := setupDB(t)

	var out []widget
	stmt := Apply(db.Model(&widget{}), WithSortBy(WithQuerySortBy("stock; drop table widgets", "", map[string]bool{"name": true})))
	require.NoError(t, stmt.Find(&out).Error)
	require.Len(t, out, 3)
	assert.Equal(t, int64(3), out[0].ID)
}

func TestApplyPaginationFetchesLookAhead(t *testing.T) {
	db := setupDB(t)

	var out []widget
	page := pagination.Pagination{Page: 1, PageSize: 2}
	stmt := Apply(db.Model(&widget{}), ApplyPagination(page), WithSortBy(QuerySortBy{}))
	require.NoError(t, stmt.Find(&out).Error)
	items, info := pagination.BuildPageInfo(out, page)
	assert.Len(t, items, 2)
	assert.True(t, info.HasMore)
}

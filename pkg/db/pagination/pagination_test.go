package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	assert.Equal(t, Pagination{Page: 1, PageSize: DefaultPageSize}, Pagination{}.Normalize())
	assert.Equal(t, Pagination{Page: 3, PageSize: MaxPageSize}, Pagination{Page: 3, PageSize: 500}.Normalize())
	assert.Equal(t, 40, Pagination{Page: 3, PageSize: 20}.Offset())
}

func TestBuildPageInfo(t *testing.T) {
	items, info := BuildPageInfo([]int{1, 2, 3}, Pagination{Page: 1, PageSize: 2})
	assert.Equal(t, []int{1, 2}, items)
	assert.True(t, info.HasMore)

	items, info = BuildPageInfo([]int{1}, Pagination{Page: 2, PageSize: 2})
	assert.Equal(t, []int{1}, items)
	assert.False(t, info.HasMore)
	assert.Equal(t, 2, info.Page)
}

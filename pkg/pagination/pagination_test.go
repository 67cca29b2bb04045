package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	norm := Normalize(Params{Page: 0, PageSize: 0})
	assert.Equal(t, 1, norm.Page)
	assert.Equal(t, DefaultPageSize, norm.PageSize)

	norm = Normalize(Params{Page: 3, PageSize: 500})
	assert.Equal(t, 3, norm.Page)
	assert.Equal(t, MaxPageSize, norm.PageSize)
}

func TestOffset(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, Params{Page: 1, PageSize: 6}.Offset())
	assert.Equal(t, 12, Params{Page: 3, PageSize: 6}.Offset())
	assert.Equal(t, 0, Params{Page: -4, PageSize: 6}.Offset())
}

func TestNewWindow(t *testing.T) {
	t.Parallel()

	window := NewWindow(Params{Page: 2, PageSize: 3}, 7)
	assert.Equal(t, 2, window.Page)
	assert.Equal(t, int64(7), window.TotalItems)
	assert.Equal(t, 3, window.TotalPages)

	empty := NewWindow(Params{Page: 1, PageSize: 6}, 0)
	assert.Equal(t, 1, empty.TotalPages)
}

package analyst

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPaginatedResult(t *testing.T) {
	p := NewPaginatedResult(nil, 0, 0, 41)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, 20, p.PageSize)
	assert.Equal(t, 3, p.TotalPages)
	assert.NotNil(t, p.Data)

	p = NewPaginatedResult([]*Analysis{{ID: "a"}}, 3, 500, 250)
	assert.Equal(t, 3, p.Page)
	assert.Equal(t, 100, p.PageSize)
	assert.Equal(t, 3, p.TotalPages)

	assert.Zero(t, NewPaginatedResult(nil, 1, 10, 0).TotalPages)
}

package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tealeg/xlsx"

	"prodexa/internal/domain/categories"
	"prodexa/internal/domain/products"
)

func TestWriteProductsXLSX(t *testing.T) {
	created := time.Date(2024, 3, 1, 10, 30, 0, 0, time.UTC)
	items := []*products.Product{
		{
			ID:          "p1",
			Name:        "Pavilion 15",
			Category:    &categories.Ref{ID: "c1", Name: "Laptops"},
			SubCategory: &categories.Ref{ID: "s1", Name: "HP"},
			Variants: []products.Variant{
				{ID: "v1", RAM: "8GB", Price: 549.99, Quantity: 4},
				{ID: "v2", RAM: "16GB", Price: 649, Quantity: 0},
			},
			Images:    []string{"a.jpg", "b.jpg"},
			Rating:    4.5,
			CreatedAt: created,
			UpdatedAt: created,
		},
		{
			ID:            "p2",
			Name:          "Bare",
			CategoryID:    "c9",
			SubCategoryID: "s9",
			Variants:      []products.Variant{{ID: "v3", RAM: "4GB", Price: 99, Quantity: 1}},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteProductsXLSX(&buf, items))

	file, err := xlsx.OpenBinary(buf.Bytes())
	require.NoError(t, err)
	require.Len(t, file.Sheets, 1)
	sheet := file.Sheets[0]
	assert.Equal(t, SheetName, sheet.Name)
	require.Len(t, sheet.Rows, 4)

	cell := func(row, col int) string { return sheet.Rows[row].Cells[col].Value }

	for i, h := range Headers {
		assert.Equal(t, h, cell(0, i))
	}

	assert.Equal(t, "p1", cell(1, 0))
	assert.Equal(t, "Laptops", cell(1, 2))
	assert.Equal(t, "HP", cell(1, 3))
	assert.Equal(t, "8GB", cell(1, 5))
	assert.Equal(t, "549.99", cell(1, 6))
	assert.Equal(t, "4", cell(1, 7))
	assert.Equal(t, "a.jpg,b.jpg", cell(1, 11))
	assert.Equal(t, "2024-03-01 10:30:00", cell(1, 12))

	assert.Equal(t, "v2", cell(2, 4))
	assert.Equal(t, "649", cell(2, 6))

	// unpopulated refs fall back to ids
	assert.Equal(t, "c9", cell(3, 2))
	assert.Equal(t, "s9", cell(3, 3))
}

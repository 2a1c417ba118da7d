// Package export renders product listings as spreadsheets.
package export

import (
	"io"
	"strings"

	"github.com/tealeg/xlsx"

	"prodexa/internal/domain/products"
)

const (
	SheetName   = "Products"
	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	timeLayout  = "2006-01-02 15:04:05"
)

var Headers = []string{
	"ID", "Name", "Category", "Subcategory", "VariantID", "RAM", "Price", "Quantity",
	"Rating", "ReviewCount", "Featured", "Images", "CreatedAt", "UpdatedAt",
}

// WriteProductsXLSX writes one row per variant, repeating the product
// columns on each row.
func WriteProductsXLSX(w io.Writer, items []*products.Product) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet(SheetName)
	if err != nil {
		return err
	}

	headerRow := sheet.AddRow()
	for _, h := range Headers {
		headerRow.AddCell().SetValue(h)
	}

	for _, p := range items {
		category, subcategory := p.CategoryID, p.SubCategoryID
		if p.Category != nil {
			category = p.Category.Name
		}
		if p.SubCategory != nil {
			subcategory = p.SubCategory.Name
		}

		for _, v := range p.Variants {
			row := sheet.AddRow()
			row.AddCell().SetValue(p.ID)
			row.AddCell().SetValue(p.Name)
			row.AddCell().SetValue(category)
			row.AddCell().SetValue(subcategory)
			row.AddCell().SetValue(v.ID)
			row.AddCell().SetValue(v.RAM)
			row.AddCell().SetFloat(v.Price)
			row.AddCell().SetInt(v.Quantity)
			row.AddCell().SetFloat(p.Rating)
			row.AddCell().SetInt(p.ReviewCount)
			row.AddCell().SetBool(p.IsFeatured)
			row.AddCell().SetValue(strings.Join(p.Images, ","))
			row.AddCell().SetValue(p.CreatedAt.Format(timeLayout))
			row.AddCell().SetValue(p.UpdatedAt.Format(timeLayout))
		}
	}

	return file.Write(w)
}

package products

import (
	"time"

	"github.com/google/uuid"

	"prodexa/internal/catalog"
	"prodexa/internal/domain/categories"
	"prodexa/internal/params"
)

// Variant is a purchasable configuration of a product.
type Variant struct {
	ID       string  `json:"id" bson:"id"`
	RAM      string  `json:"ram" bson:"ram"`
	Price    float64 `json:"price" bson:"price"`
	Quantity int     `json:"quantity" bson:"quantity"`
}

type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

type Product struct {
	ID            string            `json:"id"`
	Name          string            `json:"name"`
	Description   string            `json:"description"`
	CategoryID    string            `json:"categoryId"`
	SubCategoryID string            `json:"subcategoryId"`
	Category      *categories.Ref   `json:"category,omitempty"`
	SubCategory   *categories.Ref   `json:"subcategory,omitempty"`
	Variants      []Variant         `json:"variants"`
	Images        []string          `json:"images"`
	Rating        float64           `json:"rating"`
	ReviewCount   int               `json:"reviewCount"`
	IsActive      bool              `json:"isActive"`
	IsFeatured    bool              `json:"isFeatured"`
	CreatedAt     time.Time         `json:"createdAt"`
	UpdatedAt     time.Time         `json:"updatedAt"`

	// derived from Variants, never stored
	TotalQuantity int        `json:"totalQuantity"`
	PriceRange    PriceRange `json:"priceRange"`
}

// ProductPage is one page of a product listing with its pagination meta.
type ProductPage struct {
	Items []*Product `json:"items"`
	params.Pagination
}

// withDerived recomputes totalQuantity and priceRange.
func (p *Product) withDerived() *Product {
	p.TotalQuantity = 0
	p.PriceRange = PriceRange{}
	for i, v := range p.Variants {
		p.TotalQuantity += v.Quantity
		if i == 0 || v.Price < p.PriceRange.Min {
			p.PriceRange.Min = v.Price
		}
		if i == 0 || v.Price > p.PriceRange.Max {
			p.PriceRange.Max = v.Price
		}
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	return p
}

// Prices lists every variant price in order.
func (p *Product) Prices() []float64 {
	out := make([]float64, len(p.Variants))
	for i, v := range p.Variants {
		out[i] = v.Price
	}
	return out
}

// VariantIndex returns the position of the variant with the given id, or -1.
func (p *Product) VariantIndex(id string) int {
	for i, v := range p.Variants {
		if v.ID == id {
			return i
		}
	}
	return -1
}

// VariantsFromInput converts validated input, assigning ids to new variants.
func VariantsFromInput(in []catalog.VariantInput) []Variant {
	out := make([]Variant, len(in))
	for i, v := range in {
		id := v.ID
		if id == "" {
			id = uuid.NewString()
		}
		out[i] = Variant{ID: id, RAM: v.RAM, Price: v.Price, Quantity: v.Quantity}
	}
	return out
}

func clone(p *Product) *Product {
	out := *p
	out.Variants = append([]Variant(nil), p.Variants...)
	out.Images = append([]string(nil), p.Images...)
	if p.Category != nil {
		ref := *p.Category
		out.Category = &ref
	}
	if p.SubCategory != nil {
		ref := *p.SubCategory
		out.SubCategory = &ref
	}
	return out.withDerived()
}

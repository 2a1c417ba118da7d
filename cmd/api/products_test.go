package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prodexa/internal/domain/products"
	"prodexa/internal/export"
)

type catalogFixture struct {
	app           *application
	mux           http.Handler
	token         string
	categoryID    string
	subCategoryID string
}

func newCatalogFixture(t *testing.T) *catalogFixture {
	t.Helper()

	app := newTestApplication(t, config{})
	mux := app.mount()
	token := testToken(t, app)
	c := createCategory(t, mux, token, "Laptops")
	s := createSubCategory(t, mux, token, c.ID, "Gaming")

	return &catalogFixture{app: app, mux: mux, token: token, categoryID: c.ID, subCategoryID: s.ID}
}

func (f *catalogFixture) productFields(name string) map[string]string {
	return map[string]string{
		"name":        name,
		"description": "A fast machine",
		"category":    f.categoryID,
		"subcategory": f.subCategoryID,
		"variants":    `[{"ram":"16GB","price":"1299.99","quantity":"4"},{"ram":"32GB","price":1599,"quantity":2}]`,
	}
}

func threeImages() []formFile {
	return []formFile{
		{field: "images", name: "a.png", content: pngBytes},
		{field: "images", name: "b.png", content: pngBytes},
		{field: "images", name: "c.png", content: pngBytes},
	}
}

// seedProduct stores a product directly so the test controls its image URLs.
func (f *catalogFixture) seedProduct(t *testing.T, name string, price float64, images ...string) *products.Product {
	t.Helper()

	p, err := f.app.store.Products.CreateProduct(context.Background(), &products.Product{
		Name:          name,
		CategoryID:    f.categoryID,
		SubCategoryID: f.subCategoryID,
		Variants:      []products.Variant{{ID: "v1", RAM: "8GB", Price: price, Quantity: 1}},
		Images:        images,
		IsActive:      true,
	})
	require.NoError(t, err)
	return p
}

func TestCreateProduct(t *testing.T) {
	f := newCatalogFixture(t)

	rr := executeRequest(multipartRequest(t, http.MethodPost, "/api/products", f.token,
		f.productFields("Gaming Laptop X"), threeImages()), f.mux)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var p products.Product
	decode(t, rr, &p)
	assert.NotEmpty(t, p.ID)
	assert.Len(t, p.Images, 3)
	for _, img := range p.Images {
		assert.True(t, strings.HasPrefix(img, "https://img.test/"), img)
		assert.True(t, strings.HasSuffix(img, ".png"), img)
	}
	require.Len(t, p.Variants, 2)
	assert.NotEmpty(t, p.Variants[0].ID)
	assert.Equal(t, 1299.99, p.Variants[0].Price)
	assert.Equal(t, 6, p.TotalQuantity)
	assert.Equal(t, products.PriceRange{Min: 1299.99, Max: 1599}, p.PriceRange)
	require.NotNil(t, p.Category)
	assert.Equal(t, "Laptops", p.Category.Name)
	require.NotNil(t, p.SubCategory)
	assert.Equal(t, "Gaming", p.SubCategory.Name)
	assert.True(t, p.IsActive)
	assert.False(t, p.IsFeatured)
}

func TestCreateProductValidation(t *testing.T) {
	f := newCatalogFixture(t)

	other := createCategory(t, f.mux, f.token, "Phones")
	foreignSub := createSubCategory(t, f.mux, f.token, other.ID, "Android")

	tests := []struct {
		name    string
		fields  func(map[string]string)
		files   []formFile
		message string
	}{
		{
			name:    "two images",
			files:   threeImages()[:2],
			message: "exactly 3 images",
		},
		{
			name:    "four images",
			files:   append(threeImages(), formFile{field: "images", name: "d.png", content: pngBytes}),
			message: "exactly 3 images",
		},
		{
			name:    "variant price is not a number",
			fields:  func(m map[string]string) { m["variants"] = `[{"ram":"8GB","price":"abc","quantity":1}]` },
			files:   threeImages(),
			message: "variants[0].price",
		},
		{
			name:    "variants are not JSON",
			fields:  func(m map[string]string) { m["variants"] = `not json` },
			files:   threeImages(),
			message: "invalid variants format",
		},
		{
			name:    "no variants",
			fields:  func(m map[string]string) { m["variants"] = `[]` },
			files:   threeImages(),
			message: "variants",
		},
		{
			name:    "name too short",
			fields:  func(m map[string]string) { m["name"] = "X" },
			files:   threeImages(),
			message: "name",
		},
		{
			name:    "rating out of range",
			fields:  func(m map[string]string) { m["rating"] = "7" },
			files:   threeImages(),
			message: "rating",
		},
		{
			name:    "subcategory of another category",
			fields:  func(m map[string]string) { m["subcategory"] = foreignSub.ID },
			files:   threeImages(),
			message: "does not belong",
		},
		{
			name:    "unknown category",
			fields:  func(m map[string]string) { m["category"] = "missing" },
			files:   threeImages(),
			message: "category does not exist",
		},
		{
			name: "text file instead of an image",
			files: []formFile{
				{field: "images", name: "a.png", content: pngBytes},
				{field: "images", name: "notes.txt", content: []byte("just some plain text")},
				{field: "images", name: "c.png", content: pngBytes},
			},
			message: "unsupported type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := f.productFields("Gaming Laptop X")
			if tt.fields != nil {
				tt.fields(fields)
			}
			rr := executeRequest(multipartRequest(t, http.MethodPost, "/api/products", f.token, fields, tt.files), f.mux)
			assert.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
			env := decode(t, rr, nil)
			assert.Contains(t, env.Message, tt.message)
		})
	}

	assert.Zero(t, f.app.testMedia().Uploaded(), "nothing is uploaded for a rejected request")
}

func TestUpdateProductReplacesOneImageSlot(t *testing.T) {
	f := newCatalogFixture(t)
	p := f.seedProduct(t, "Gaming Laptop X", 999, "old0", "old1", "old2")

	rr := executeRequest(multipartRequest(t, http.MethodPut, "/api/products/"+p.ID, f.token, nil,
		[]formFile{{field: "image1", name: "new.png", content: pngBytes}}), f.mux)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var updated products.Product
	decode(t, rr, &updated)
	require.Len(t, updated.Images, 3)
	assert.Equal(t, "old0", updated.Images[0])
	assert.True(t, strings.HasPrefix(updated.Images[1], "https://img.test/"), updated.Images[1])
	assert.Equal(t, "old2", updated.Images[2])
	assert.Equal(t, p.Variants, updated.Variants, "fields not sent are unchanged")

	media := f.app.testMedia()
	assert.Eventually(t, func() bool {
		deleted := media.Deleted()
		return len(deleted) == 1 && deleted[0] == "old1"
	}, time.Second, 10*time.Millisecond)
}

func TestUpdateProductImages(t *testing.T) {
	t.Run("keep-list drops an image", func(t *testing.T) {
		f := newCatalogFixture(t)
		p := f.seedProduct(t, "Gaming Laptop X", 999, "old0", "old1", "old2")

		rr := executeRequest(multipartRequest(t, http.MethodPut, "/api/products/"+p.ID, f.token,
			map[string]string{"existingImages": `["old0","old2"]`}, nil), f.mux)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		var updated products.Product
		decode(t, rr, &updated)
		assert.Equal(t, []string{"old0", "old2"}, updated.Images)
		assert.Eventually(t, func() bool {
			return assert.ObjectsAreEqual([]string{"old1"}, f.app.testMedia().Deleted())
		}, time.Second, 10*time.Millisecond)
	})

	t.Run("foreign URLs are not adopted", func(t *testing.T) {
		f := newCatalogFixture(t)
		p := f.seedProduct(t, "Gaming Laptop X", 999, "old0", "old1", "old2")

		rr := executeRequest(multipartRequest(t, http.MethodPut, "/api/products/"+p.ID, f.token,
			map[string]string{"existingImages": `["https://evil.test/x.png","old1","old2"]`}, nil), f.mux)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		var updated products.Product
		decode(t, rr, &updated)
		assert.Equal(t, []string{"old1", "old2"}, updated.Images)
		assert.NotContains(t, updated.Images, "https://evil.test/x.png")
	})

	t.Run("empty keep-list without uploads keeps the stored images", func(t *testing.T) {
		f := newCatalogFixture(t)
		p := f.seedProduct(t, "Gaming Laptop X", 999, "old0", "old1", "old2")

		rr := executeRequest(multipartRequest(t, http.MethodPut, "/api/products/"+p.ID, f.token,
			map[string]string{"existingImages": `[]`}, nil), f.mux)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		var updated products.Product
		decode(t, rr, &updated)
		assert.Equal(t, []string{"old0", "old1", "old2"}, updated.Images)
	})

	t.Run("malformed keep-list", func(t *testing.T) {
		f := newCatalogFixture(t)
		p := f.seedProduct(t, "Gaming Laptop X", 999, "old0", "old1", "old2")

		rr := executeRequest(multipartRequest(t, http.MethodPut, "/api/products/"+p.ID, f.token,
			map[string]string{"existingImages": `old0`}, nil), f.mux)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("unknown product", func(t *testing.T) {
		f := newCatalogFixture(t)

		rr := executeRequest(multipartRequest(t, http.MethodPut, "/api/products/missing", f.token,
			map[string]string{"name": "Renamed"}, nil), f.mux)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestUpdateProductFields(t *testing.T) {
	f := newCatalogFixture(t)
	p := f.seedProduct(t, "Gaming Laptop X", 999, "old0", "old1", "old2")

	rr := executeRequest(multipartRequest(t, http.MethodPut, "/api/products/"+p.ID, f.token, map[string]string{
		"name":       "  Gaming Laptop Y ",
		"rating":     "4.5",
		"isFeatured": "true",
	}, nil), f.mux)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var updated products.Product
	decode(t, rr, &updated)
	assert.Equal(t, "Gaming Laptop Y", updated.Name)
	assert.Equal(t, 4.5, updated.Rating)
	assert.True(t, updated.IsFeatured)
	assert.Equal(t, []string{"old0", "old1", "old2"}, updated.Images)
	assert.Empty(t, f.app.testMedia().Deleted())

	rr = executeRequest(multipartRequest(t, http.MethodPut, "/api/products/"+p.ID, f.token,
		map[string]string{"reviewCount": "many"}, nil), f.mux)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestListProducts(t *testing.T) {
	f := newCatalogFixture(t)
	f.seedProduct(t, "Budget Laptop", 450)
	f.seedProduct(t, "Office Laptop", 800)
	f.seedProduct(t, "Gaming Laptop", 1500)

	t.Run("pagination meta", func(t *testing.T) {
		rr := executeRequest(jsonRequest(t, http.MethodGet, "/api/products?limit=2&page=1&sortBy=price&sortOrder=asc", "", nil), f.mux)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		var page products.ProductPage
		decode(t, rr, &page)
		require.Len(t, page.Items, 2)
		assert.Equal(t, "Budget Laptop", page.Items[0].Name)
		assert.Equal(t, "Office Laptop", page.Items[1].Name)
		assert.Equal(t, 3, page.Total)
		assert.Equal(t, 2, page.TotalPages)
		assert.True(t, page.HasNext)
		assert.False(t, page.HasPrev)
	})

	t.Run("price range", func(t *testing.T) {
		rr := executeRequest(jsonRequest(t, http.MethodGet, "/api/products?minPrice=500&maxPrice=1000", "", nil), f.mux)
		require.Equal(t, http.StatusOK, rr.Code)

		var page products.ProductPage
		decode(t, rr, &page)
		require.Len(t, page.Items, 1)
		assert.Equal(t, "Office Laptop", page.Items[0].Name)
	})

	t.Run("search", func(t *testing.T) {
		rr := executeRequest(jsonRequest(t, http.MethodGet, "/api/products?search=gaming", "", nil), f.mux)
		require.Equal(t, http.StatusOK, rr.Code)

		var page products.ProductPage
		decode(t, rr, &page)
		require.Len(t, page.Items, 1)
		assert.Equal(t, "Gaming Laptop", page.Items[0].Name)
	})

	t.Run("empty page is an empty list", func(t *testing.T) {
		rr := executeRequest(jsonRequest(t, http.MethodGet, "/api/products?page=9", "", nil), f.mux)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"items":[]`)
	})

	for _, q := range []string{"sortBy=popularity", "page=abc", "minPrice=cheap", "minPrice=10&maxPrice=5", "searchMode=fuzzy"} {
		t.Run("rejects "+q, func(t *testing.T) {
			rr := executeRequest(jsonRequest(t, http.MethodGet, "/api/products?"+q, "", nil), f.mux)
			assert.Equal(t, http.StatusBadRequest, rr.Code, rr.Body.String())
		})
	}
}

func TestToggleFeatured(t *testing.T) {
	f := newCatalogFixture(t)
	p := f.seedProduct(t, "Gaming Laptop", 1500)
	path := "/api/products/" + p.ID + "/featured"

	rr := executeRequest(jsonRequest(t, http.MethodPut, path, f.token, nil), f.mux)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var got products.Product
	decode(t, rr, &got)
	assert.True(t, got.IsFeatured)

	featured := executeRequest(jsonRequest(t, http.MethodGet, "/api/products/featured", "", nil), f.mux)
	var list []products.Product
	decode(t, featured, &list)
	require.Len(t, list, 1)
	assert.Equal(t, p.ID, list[0].ID)

	rr = executeRequest(jsonRequest(t, http.MethodPut, path, f.token, nil), f.mux)
	decode(t, rr, &got)
	assert.False(t, got.IsFeatured)

	off := false
	rr = executeRequest(jsonRequest(t, http.MethodPut, path, f.token, FeaturedPayload{IsFeatured: &off}), f.mux)
	decode(t, rr, &got)
	assert.False(t, got.IsFeatured, "an explicit value is set, not flipped")

	rr = executeRequest(jsonRequest(t, http.MethodPut, "/api/products/missing/featured", f.token, nil), f.mux)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestDeleteProduct(t *testing.T) {
	f := newCatalogFixture(t)
	p := f.seedProduct(t, "Gaming Laptop", 1500, "img0")

	rr := executeRequest(jsonRequest(t, http.MethodDelete, "/api/products/"+p.ID, f.token, nil), f.mux)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = executeRequest(jsonRequest(t, http.MethodGet, "/api/products/"+p.ID, "", nil), f.mux)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = executeRequest(jsonRequest(t, http.MethodDelete, "/api/products/"+p.ID, f.token, nil), f.mux)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Empty(t, f.app.testMedia().Deleted(), "soft delete keeps the images")
}

func TestProductVariants(t *testing.T) {
	f := newCatalogFixture(t)
	p := f.seedProduct(t, "Gaming Laptop", 1500)
	base := "/api/products/" + p.ID + "/variants"
	onlyVariant := p.Variants[0].ID

	t.Run("the last variant cannot be deleted", func(t *testing.T) {
		rr := executeRequest(jsonRequest(t, http.MethodDelete, base+"/"+onlyVariant, f.token, nil), f.mux)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		env := decode(t, rr, nil)
		assert.Contains(t, env.Message, "at least one variant")
	})

	var added products.Product
	t.Run("add", func(t *testing.T) {
		rr := executeRequest(jsonRequest(t, http.MethodPost, base, f.token,
			map[string]any{"ram": "32GB", "price": "1999", "quantity": 3}), f.mux)
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
		decode(t, rr, &added)
		require.Len(t, added.Variants, 2)
		assert.Equal(t, 1999.0, added.Variants[1].Price)
		assert.NotEmpty(t, added.Variants[1].ID)
	})

	t.Run("add rejects a bad price", func(t *testing.T) {
		rr := executeRequest(jsonRequest(t, http.MethodPost, base, f.token,
			map[string]any{"ram": "32GB", "price": 0, "quantity": 3}), f.mux)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		env := decode(t, rr, nil)
		assert.Contains(t, env.Message, "price")
	})

	t.Run("update keeps the variant id", func(t *testing.T) {
		id := added.Variants[1].ID
		rr := executeRequest(jsonRequest(t, http.MethodPut, base+"/"+id, f.token,
			map[string]any{"ram": "64GB", "price": 2499, "quantity": 1}), f.mux)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		var got products.Product
		decode(t, rr, &got)
		assert.Equal(t, products.Variant{ID: id, RAM: "64GB", Price: 2499, Quantity: 1}, got.Variants[1])
		assert.Equal(t, products.PriceRange{Min: 1500, Max: 2499}, got.PriceRange)
	})

	t.Run("unknown variant", func(t *testing.T) {
		rr := executeRequest(jsonRequest(t, http.MethodPut, base+"/nope", f.token,
			map[string]any{"ram": "64GB", "price": 2499, "quantity": 1}), f.mux)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("delete one of two", func(t *testing.T) {
		rr := executeRequest(jsonRequest(t, http.MethodDelete, base+"/"+onlyVariant, f.token, nil), f.mux)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		list := executeRequest(jsonRequest(t, http.MethodGet, base, "", nil), f.mux)
		var variants []products.Variant
		decode(t, list, &variants)
		require.Len(t, variants, 1)
		assert.Equal(t, "64GB", variants[0].RAM)
	})
}

func TestExportProducts(t *testing.T) {
	f := newCatalogFixture(t)
	for i := 0; i < 3; i++ {
		f.seedProduct(t, fmt.Sprintf("Laptop %d", i), float64(100*(i+1)))
	}

	rr := executeRequest(jsonRequest(t, http.MethodGet, "/api/products/export?sortBy=price", f.token, nil), f.mux)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, export.ContentType, rr.Header().Get("Content-Type"))
	assert.Contains(t, rr.Header().Get("Content-Disposition"), ".xlsx")
	assert.NotZero(t, rr.Body.Len())
	// xlsx files are zip archives
	assert.True(t, strings.HasPrefix(rr.Body.String(), "PK"))

	rr = executeRequest(jsonRequest(t, http.MethodGet, "/api/products/export?sortBy=bogus", f.token, nil), f.mux)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = executeRequest(jsonRequest(t, http.MethodGet, "/api/products/export", "", nil), f.mux)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestProductResponseShape(t *testing.T) {
	f := newCatalogFixture(t)
	p := f.seedProduct(t, "Gaming Laptop", 1500)

	rr := executeRequest(jsonRequest(t, http.MethodGet, "/api/products/"+p.ID, "", nil), f.mux)
	require.Equal(t, http.StatusOK, rr.Code)

	env := decode(t, rr, nil)
	assert.True(t, env.Success)
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(env.Data, &raw))
	for _, key := range []string{"id", "name", "variants", "images", "priceRange", "totalQuantity", "category", "subcategory"} {
		assert.Contains(t, raw, key)
	}
	assert.JSONEq(t, `[]`, string(raw["images"]))
}

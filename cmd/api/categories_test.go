package main

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prodexa/internal/domain/categories"
)

func createCategory(t *testing.T, mux http.Handler, token, name string) *categories.Category {
	t.Helper()

	rr := executeRequest(jsonRequest(t, http.MethodPost, "/api/categories", token, CreateCategoryPayload{Name: name}), mux)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var c categories.Category
	decode(t, rr, &c)
	return &c
}

func createSubCategory(t *testing.T, mux http.Handler, token, categoryID, name string) *categories.SubCategory {
	t.Helper()

	rr := executeRequest(jsonRequest(t, http.MethodPost, "/api/categories/subcategories", token,
		CreateSubCategoryPayload{Name: name, CategoryID: categoryID}), mux)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var s categories.SubCategory
	decode(t, rr, &s)
	return &s
}

func TestCreateCategoryDuplicateName(t *testing.T) {
	app := newTestApplication(t, config{})
	mux := app.mount()
	token := testToken(t, app)

	created := createCategory(t, mux, token, "  Laptops  ")
	assert.Equal(t, "Laptops", created.Name)
	assert.True(t, created.IsActive)

	for _, name := range []string{"laptops", "LAPTOPS", " laptops "} {
		rr := executeRequest(jsonRequest(t, http.MethodPost, "/api/categories", token, CreateCategoryPayload{Name: name}), mux)
		assert.Equal(t, http.StatusConflict, rr.Code, name)
		env := decode(t, rr, nil)
		assert.Contains(t, env.Message, "already exists")
	}

	t.Run("invalid names are rejected before the duplicate check", func(t *testing.T) {
		for _, name := range []string{"L", "Laptops!", ""} {
			rr := executeRequest(jsonRequest(t, http.MethodPost, "/api/categories", token, CreateCategoryPayload{Name: name}), mux)
			assert.Equal(t, http.StatusBadRequest, rr.Code, name)
		}
	})

	t.Run("unknown fields are rejected", func(t *testing.T) {
		rr := executeRequest(jsonRequest(t, http.MethodPost, "/api/categories", token, map[string]string{"title": "Phones"}), mux)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestSubCategoryNamesAreScopedPerCategory(t *testing.T) {
	app := newTestApplication(t, config{})
	mux := app.mount()
	token := testToken(t, app)

	a := createCategory(t, mux, token, "Laptops")
	b := createCategory(t, mux, token, "Desktops")

	hpA := createSubCategory(t, mux, token, a.ID, "HP")
	hpB := createSubCategory(t, mux, token, b.ID, "HP")
	assert.NotEqual(t, hpA.ID, hpB.ID)
	require.NotNil(t, hpA.Category)
	assert.Equal(t, "Laptops", hpA.Category.Name)

	rr := executeRequest(jsonRequest(t, http.MethodPost, "/api/categories/subcategories", token,
		CreateSubCategoryPayload{Name: "hp", CategoryID: a.ID}), mux)
	assert.Equal(t, http.StatusConflict, rr.Code)

	t.Run("unknown parent", func(t *testing.T) {
		rr := executeRequest(jsonRequest(t, http.MethodPost, "/api/categories/subcategories", token,
			CreateSubCategoryPayload{Name: "Dell", CategoryID: "missing"}), mux)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("missing parent", func(t *testing.T) {
		rr := executeRequest(jsonRequest(t, http.MethodPost, "/api/categories/subcategories", token,
			CreateSubCategoryPayload{Name: "Dell"}), mux)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("listing per category", func(t *testing.T) {
		rr := executeRequest(jsonRequest(t, http.MethodGet, "/api/categories/"+a.ID+"/subcategories", "", nil), mux)
		require.Equal(t, http.StatusOK, rr.Code)
		var subs []categories.SubCategory
		decode(t, rr, &subs)
		require.Len(t, subs, 1)
		assert.Equal(t, hpA.ID, subs[0].ID)
	})

	t.Run("subcategory must match the category in the path", func(t *testing.T) {
		rr := executeRequest(jsonRequest(t, http.MethodGet, "/api/categories/"+b.ID+"/subcategories/"+hpA.ID, "", nil), mux)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("rename collides inside the category only", func(t *testing.T) {
		createSubCategory(t, mux, token, a.ID, "Dell")

		name := "dell"
		rr := executeRequest(jsonRequest(t, http.MethodPut, "/api/categories/"+a.ID+"/subcategories/"+hpA.ID, token,
			UpdateSubCategoryPayload{Name: &name}), mux)
		assert.Equal(t, http.StatusConflict, rr.Code)

		rr = executeRequest(jsonRequest(t, http.MethodPut, "/api/categories/"+b.ID+"/subcategories/"+hpB.ID, token,
			UpdateSubCategoryPayload{Name: &name}), mux)
		assert.Equal(t, http.StatusOK, rr.Code)
	})
}

func TestDeleteCategoryBlockedByActiveSubCategories(t *testing.T) {
	app := newTestApplication(t, config{})
	mux := app.mount()
	token := testToken(t, app)

	c := createCategory(t, mux, token, "Laptops")
	hp := createSubCategory(t, mux, token, c.ID, "HP")
	dell := createSubCategory(t, mux, token, c.ID, "Dell")

	rr := executeRequest(jsonRequest(t, http.MethodDelete, "/api/categories/"+c.ID, token, nil), mux)
	require.Equal(t, http.StatusConflict, rr.Code)
	env := decode(t, rr, nil)
	assert.Contains(t, env.Message, "2 active subcategories")

	t.Run("deactivating through update is blocked too", func(t *testing.T) {
		inactive := false
		rr := executeRequest(jsonRequest(t, http.MethodPut, "/api/categories/"+c.ID, token,
			UpdateCategoryPayload{IsActive: &inactive}), mux)
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	for _, s := range []*categories.SubCategory{hp, dell} {
		rr := executeRequest(jsonRequest(t, http.MethodDelete, "/api/categories/"+c.ID+"/subcategories/"+s.ID, token, nil), mux)
		require.Equal(t, http.StatusOK, rr.Code)
	}

	rr = executeRequest(jsonRequest(t, http.MethodDelete, "/api/categories/"+c.ID, token, nil), mux)
	require.Equal(t, http.StatusOK, rr.Code)

	list := executeRequest(jsonRequest(t, http.MethodGet, "/api/categories", "", nil), mux)
	var cats []categories.Category
	decode(t, list, &cats)
	assert.Empty(t, cats)

	t.Run("a deleted name stays reserved", func(t *testing.T) {
		rr := executeRequest(jsonRequest(t, http.MethodPost, "/api/categories", token, CreateCategoryPayload{Name: "laptops"}), mux)
		assert.Equal(t, http.StatusConflict, rr.Code)
	})
}

func TestUpdateCategory(t *testing.T) {
	app := newTestApplication(t, config{})
	mux := app.mount()
	token := testToken(t, app)

	laptops := createCategory(t, mux, token, "Laptops")
	createCategory(t, mux, token, "Phones")

	t.Run("keeping its own name in another case", func(t *testing.T) {
		name := "LAPTOPS"
		rr := executeRequest(jsonRequest(t, http.MethodPut, "/api/categories/"+laptops.ID, token,
			UpdateCategoryPayload{Name: &name}), mux)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		var c categories.Category
		decode(t, rr, &c)
		assert.Equal(t, "LAPTOPS", c.Name)
	})

	t.Run("taking another category's name", func(t *testing.T) {
		name := "phones"
		rr := executeRequest(jsonRequest(t, http.MethodPut, "/api/categories/"+laptops.ID, token,
			UpdateCategoryPayload{Name: &name}), mux)
		assert.Equal(t, http.StatusConflict, rr.Code)
	})

	t.Run("description too long", func(t *testing.T) {
		desc := strings.Repeat("a", 501)
		rr := executeRequest(jsonRequest(t, http.MethodPut, "/api/categories/"+laptops.ID, token,
			UpdateCategoryPayload{Description: &desc}), mux)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("unknown category", func(t *testing.T) {
		name := "Tablets"
		rr := executeRequest(jsonRequest(t, http.MethodPut, "/api/categories/missing", token,
			UpdateCategoryPayload{Name: &name}), mux)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestListCategoriesWithSubCategories(t *testing.T) {
	app := newTestApplication(t, config{})
	mux := app.mount()
	token := testToken(t, app)

	phones := createCategory(t, mux, token, "Phones")
	laptops := createCategory(t, mux, token, "Laptops")
	createSubCategory(t, mux, token, laptops.ID, "Gaming")
	createSubCategory(t, mux, token, laptops.ID, "Business")
	retired := createSubCategory(t, mux, token, phones.ID, "Feature")
	require.NoError(t, app.store.Categories.DeactivateSubCategory(context.Background(), retired.ID))

	rr := executeRequest(jsonRequest(t, http.MethodGet, "/api/categories/with-subcategories", "", nil), mux)
	require.Equal(t, http.StatusOK, rr.Code)

	var out []struct {
		ID            string                   `json:"id"`
		Name          string                   `json:"name"`
		SubCategories []categories.SubCategory `json:"subcategories"`
	}
	decode(t, rr, &out)
	require.Len(t, out, 2)
	assert.Equal(t, "Laptops", out[0].Name)
	require.Len(t, out[0].SubCategories, 2)
	assert.Equal(t, "Business", out[0].SubCategories[0].Name)
	assert.Equal(t, "Phones", out[1].Name)
	assert.NotNil(t, out[1].SubCategories)
	assert.Empty(t, out[1].SubCategories)

	all := executeRequest(jsonRequest(t, http.MethodGet, "/api/categories/subcategories/all", "", nil), mux)
	require.Equal(t, http.StatusOK, all.Code)
	var subs []categories.SubCategory
	decode(t, all, &subs)
	assert.Len(t, subs, 2)
}

package main

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"prodexa/internal/catalog"
	"prodexa/internal/domain/categories"
)

type CreateCategoryPayload struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// UpdateCategoryPayload only touches the fields that are present.
type UpdateCategoryPayload struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"isActive"`
}

// listCategoriesHandler godoc
//
//	@Summary		List categories
//	@Description	Active categories sorted by name
//	@Tags			categories
//	@Produce		json
//	@Success		200	{array}		categories.Category
//	@Failure		500	{object}	ErrorResponse
//	@Router			/categories [get]
func (app *application) listCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	list, err := app.store.Categories.ListCategories(ctx, true)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	if list == nil {
		list = []*categories.Category{}
	}

	app.jsonResponse(w, http.StatusOK, list)
}

// listCategoriesWithSubCategoriesHandler godoc
//
//	@Summary		List categories with their subcategories
//	@Description	Active categories, each with its active subcategories nested
//	@Tags			categories
//	@Produce		json
//	@Success		200	{array}		categories.CategoryWithSubcategories
//	@Failure		500	{object}	ErrorResponse
//	@Router			/categories/with-subcategories [get]
func (app *application) listCategoriesWithSubCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	cats, err := app.store.Categories.ListCategories(ctx, true)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	subs, err := app.store.Categories.ListSubCategories(ctx, "", true)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	byCategory := make(map[string][]*categories.SubCategory, len(cats))
	for _, s := range subs {
		byCategory[s.CategoryID] = append(byCategory[s.CategoryID], s)
	}

	out := make([]categories.CategoryWithSubcategories, 0, len(cats))
	for _, c := range cats {
		nested := byCategory[c.ID]
		if nested == nil {
			nested = []*categories.SubCategory{}
		}
		out = append(out, categories.CategoryWithSubcategories{Category: c, SubCategories: nested})
	}

	app.jsonResponse(w, http.StatusOK, out)
}

// createCategoryHandler godoc
//
//	@Summary		Create a category
//	@Description	Names are 2-50 letters, digits, spaces, hyphens or ampersands and unique ignoring case and spacing
//	@Tags			categories
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		CreateCategoryPayload	true	"Category"
//	@Success		201		{object}	categories.Category
//	@Failure		400		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse	"Duplicate name"
//	@Security		ApiKeyAuth
//	@Router			/categories [post]
func (app *application) createCategoryHandler(w http.ResponseWriter, r *http.Request) {
	var payload CreateCategoryPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	name, err := app.store.CategoryGuard.Check(ctx, catalog.NameCheck{Name: payload.Name})
	if err != nil {
		app.catalogError(w, r, err)
		return
	}
	desc, err := catalog.ValidateDescription(payload.Description)
	if err != nil {
		app.catalogError(w, r, err)
		return
	}

	created, err := app.store.Categories.CreateCategory(ctx, &categories.Category{
		Name:        name,
		Description: desc,
		IsActive:    true,
	})
	if err != nil {
		app.catalogError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusCreated, created)
}

// getCategoryHandler godoc
//
//	@Summary		Get a category
//	@Tags			categories
//	@Produce		json
//	@Param			categoryID	path		string	true	"Category ID"
//	@Success		200			{object}	categories.Category
//	@Failure		404			{object}	ErrorResponse
//	@Router			/categories/{categoryID} [get]
func (app *application) getCategoryHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	category, err := app.store.Categories.GetCategoryByID(ctx, chi.URLParam(r, "categoryID"))
	if err != nil {
		app.catalogError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, category)
}

// updateCategoryHandler godoc
//
//	@Summary		Update a category
//	@Description	Renames, re-describes or toggles a category. Deactivating is refused while active subcategories exist.
//	@Tags			categories
//	@Accept			json
//	@Produce		json
//	@Param			categoryID	path		string					true	"Category ID"
//	@Param			payload		body		UpdateCategoryPayload	true	"Fields to change"
//	@Success		200			{object}	categories.Category
//	@Failure		400			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Failure		409			{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/categories/{categoryID} [put]
func (app *application) updateCategoryHandler(w http.ResponseWriter, r *http.Request) {
	var payload UpdateCategoryPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	category, err := app.store.Categories.GetCategoryByID(ctx, chi.URLParam(r, "categoryID"))
	if err != nil {
		app.catalogError(w, r, err)
		return
	}

	if payload.Name != nil {
		name, err := app.store.CategoryGuard.Check(ctx, catalog.NameCheck{Name: *payload.Name, ExcludeID: category.ID})
		if err != nil {
			app.catalogError(w, r, err)
			return
		}
		category.Name = name
	}
	if payload.Description != nil {
		desc, err := catalog.ValidateDescription(*payload.Description)
		if err != nil {
			app.catalogError(w, r, err)
			return
		}
		category.Description = desc
	}
	if payload.IsActive != nil {
		if category.IsActive && !*payload.IsActive {
			if err := app.ensureNoActiveSubCategories(ctx, category.ID); err != nil {
				app.catalogError(w, r, err)
				return
			}
		}
		category.IsActive = *payload.IsActive
	}

	updated, err := app.store.Categories.UpdateCategory(ctx, category)
	if err != nil {
		app.catalogError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, updated)
}

// deleteCategoryHandler godoc
//
//	@Summary		Delete a category
//	@Description	Soft delete. Refused with 409 while the category has active subcategories.
//	@Tags			categories
//	@Produce		json
//	@Param			categoryID	path		string	true	"Category ID"
//	@Success		200			{object}	MessageResponse
//	@Failure		404			{object}	ErrorResponse
//	@Failure		409			{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/categories/{categoryID} [delete]
func (app *application) deleteCategoryHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	category, err := app.store.Categories.GetCategoryByID(ctx, chi.URLParam(r, "categoryID"))
	if err != nil {
		app.catalogError(w, r, err)
		return
	}

	if err := app.ensureNoActiveSubCategories(ctx, category.ID); err != nil {
		app.catalogError(w, r, err)
		return
	}

	if err := app.store.Categories.DeactivateCategory(ctx, category.ID); err != nil {
		app.catalogError(w, r, err)
		return
	}

	app.logger.Infow("category deactivated", "category_id", category.ID)
	app.jsonResponse(w, http.StatusOK, MessageResponse{Message: "Category deleted successfully"})
}

// ensureNoActiveSubCategories blocks removing a category that still has
// active subcategories.
func (app *application) ensureNoActiveSubCategories(ctx context.Context, categoryID string) error {
	n, err := app.store.Categories.CountActiveSubCategories(ctx, categoryID)
	if err != nil {
		return err
	}
	if n > 0 {
		return &catalog.DependencyBlockedError{
			Resource:  catalog.KindCategory,
			ID:        categoryID,
			Dependent: "subcategories",
			Count:     n,
		}
	}
	return nil
}

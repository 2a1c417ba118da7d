package main

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"prodexa/internal/catalog"
	"prodexa/internal/domain/categories"
)

type CreateSubCategoryPayload struct {
	Name        string `json:"name"`
	CategoryID  string `json:"category"`
	Description string `json:"description"`
}

type UpdateSubCategoryPayload struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	IsActive    *bool   `json:"isActive"`
}

// listAllSubCategoriesHandler godoc
//
//	@Summary		List all subcategories
//	@Description	Active subcategories of every category, with the parent category populated
//	@Tags			subcategories
//	@Produce		json
//	@Success		200	{array}		categories.SubCategory
//	@Failure		500	{object}	ErrorResponse
//	@Router			/categories/subcategories/all [get]
func (app *application) listAllSubCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	list, err := app.store.Categories.ListSubCategories(ctx, "", true)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	if list == nil {
		list = []*categories.SubCategory{}
	}

	app.jsonResponse(w, http.StatusOK, list)
}

// listSubCategoriesHandler godoc
//
//	@Summary		List the subcategories of a category
//	@Tags			subcategories
//	@Produce		json
//	@Param			categoryID	path		string	true	"Category ID"
//	@Success		200			{array}		categories.SubCategory
//	@Failure		404			{object}	ErrorResponse
//	@Router			/categories/{categoryID}/subcategories [get]
func (app *application) listSubCategoriesHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	category, err := app.store.Categories.GetCategoryByID(ctx, chi.URLParam(r, "categoryID"))
	if err != nil {
		app.catalogError(w, r, err)
		return
	}

	list, err := app.store.Categories.ListSubCategories(ctx, category.ID, true)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	if list == nil {
		list = []*categories.SubCategory{}
	}

	app.jsonResponse(w, http.StatusOK, list)
}

// createSubCategoryHandler godoc
//
//	@Summary		Create a subcategory
//	@Description	Names are unique inside their parent category, so the same name may exist under different categories
//	@Tags			subcategories
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		CreateSubCategoryPayload	true	"Subcategory"
//	@Success		201		{object}	categories.SubCategory
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse	"Parent category not found"
//	@Failure		409		{object}	ErrorResponse	"Duplicate name"
//	@Security		ApiKeyAuth
//	@Router			/categories/subcategories [post]
func (app *application) createSubCategoryHandler(w http.ResponseWriter, r *http.Request) {
	var payload CreateSubCategoryPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	categoryID := strings.TrimSpace(payload.CategoryID)
	name, err := app.store.SubCategoryGuard.Check(ctx, catalog.NameCheck{Name: payload.Name, ScopeID: categoryID})
	if err != nil {
		app.catalogError(w, r, err)
		return
	}
	desc, err := catalog.ValidateDescription(payload.Description)
	if err != nil {
		app.catalogError(w, r, err)
		return
	}

	if _, err := app.store.Categories.GetCategoryByID(ctx, categoryID); err != nil {
		app.catalogError(w, r, err)
		return
	}

	created, err := app.store.Categories.CreateSubCategory(ctx, &categories.SubCategory{
		Name:        name,
		Description: desc,
		CategoryID:  categoryID,
		IsActive:    true,
	})
	if err != nil {
		app.catalogError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusCreated, created)
}

// getSubCategoryHandler godoc
//
//	@Summary		Get a subcategory
//	@Tags			subcategories
//	@Produce		json
//	@Param			categoryID		path		string	true	"Category ID"
//	@Param			subCategoryID	path		string	true	"Subcategory ID"
//	@Success		200				{object}	categories.SubCategory
//	@Failure		404				{object}	ErrorResponse
//	@Router			/categories/{categoryID}/subcategories/{subCategoryID} [get]
func (app *application) getSubCategoryHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	sub, err := app.subCategoryFromPath(ctx, r)
	if err != nil {
		app.catalogError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, sub)
}

// updateSubCategoryHandler godoc
//
//	@Summary		Update a subcategory
//	@Tags			subcategories
//	@Accept			json
//	@Produce		json
//	@Param			categoryID		path		string						true	"Category ID"
//	@Param			subCategoryID	path		string						true	"Subcategory ID"
//	@Param			payload			body		UpdateSubCategoryPayload	true	"Fields to change"
//	@Success		200				{object}	categories.SubCategory
//	@Failure		400				{object}	ErrorResponse
//	@Failure		404				{object}	ErrorResponse
//	@Failure		409				{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/categories/{categoryID}/subcategories/{subCategoryID} [put]
func (app *application) updateSubCategoryHandler(w http.ResponseWriter, r *http.Request) {
	var payload UpdateSubCategoryPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	sub, err := app.subCategoryFromPath(ctx, r)
	if err != nil {
		app.catalogError(w, r, err)
		return
	}

	if payload.Name != nil {
		name, err := app.store.SubCategoryGuard.Check(ctx, catalog.NameCheck{
			Name:      *payload.Name,
			ScopeID:   sub.CategoryID,
			ExcludeID: sub.ID,
		})
		if err != nil {
			app.catalogError(w, r, err)
			return
		}
		sub.Name = name
	}
	if payload.Description != nil {
		desc, err := catalog.ValidateDescription(*payload.Description)
		if err != nil {
			app.catalogError(w, r, err)
			return
		}
		sub.Description = desc
	}
	if payload.IsActive != nil {
		sub.IsActive = *payload.IsActive
	}

	updated, err := app.store.Categories.UpdateSubCategory(ctx, sub)
	if err != nil {
		app.catalogError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, updated)
}

// deleteSubCategoryHandler godoc
//
//	@Summary		Delete a subcategory
//	@Description	Soft delete; products keep their reference
//	@Tags			subcategories
//	@Produce		json
//	@Param			categoryID		path		string	true	"Category ID"
//	@Param			subCategoryID	path		string	true	"Subcategory ID"
//	@Success		200				{object}	MessageResponse
//	@Failure		404				{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/categories/{categoryID}/subcategories/{subCategoryID} [delete]
func (app *application) deleteSubCategoryHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	sub, err := app.subCategoryFromPath(ctx, r)
	if err != nil {
		app.catalogError(w, r, err)
		return
	}

	if err := app.store.Categories.DeactivateSubCategory(ctx, sub.ID); err != nil {
		app.catalogError(w, r, err)
		return
	}

	app.logger.Infow("subcategory deactivated", "subcategory_id", sub.ID, "category_id", sub.CategoryID)
	app.jsonResponse(w, http.StatusOK, MessageResponse{Message: "Sub category deleted successfully"})
}

// subCategoryFromPath loads the subcategory named in the URL and checks it
// belongs to the category in the URL.
func (app *application) subCategoryFromPath(ctx context.Context, r *http.Request) (*categories.SubCategory, error) {
	id := chi.URLParam(r, "subCategoryID")
	sub, err := app.store.Categories.GetSubCategoryByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub.CategoryID != chi.URLParam(r, "categoryID") {
		return nil, catalog.NotFound(catalog.KindSubCategory, id)
	}
	return sub, nil
}

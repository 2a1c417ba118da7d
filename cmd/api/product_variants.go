package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"prodexa/internal/catalog"
	"prodexa/internal/domain/products"
)

// listVariantsHandler godoc
//
//	@Summary		List the variants of a product
//	@Tags			variants
//	@Produce		json
//	@Param			productID	path		string	true	"Product ID"
//	@Success		200			{array}		products.Variant
//	@Failure		404			{object}	ErrorResponse
//	@Router			/products/{productID}/variants [get]
func (app *application) listVariantsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	p, err := app.store.Products.GetProductByID(ctx, chi.URLParam(r, "productID"))
	if err != nil {
		app.catalogError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, p.Variants)
}

// addVariantHandler godoc
//
//	@Summary		Add a variant
//	@Tags			variants
//	@Accept			json
//	@Produce		json
//	@Param			productID	path		string					true	"Product ID"
//	@Param			payload		body		catalog.VariantInput	true	"Variant"
//	@Success		201			{object}	products.Product
//	@Failure		400			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/products/{productID}/variants [post]
func (app *application) addVariantHandler(w http.ResponseWriter, r *http.Request) {
	var payload catalog.VariantInput
	if err := readJSON(w, r, &payload); err != nil {
		app.catalogError(w, r, asValidationError(err))
		return
	}
	payload.ID = ""
	if err := catalog.ValidateVariant(&payload); err != nil {
		app.catalogError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	p, err := app.store.Products.GetProductByID(ctx, chi.URLParam(r, "productID"))
	if err != nil {
		app.catalogError(w, r, err)
		return
	}

	p.Variants = append(p.Variants, products.VariantsFromInput([]catalog.VariantInput{payload})...)
	updated, err := app.store.Products.UpdateProduct(ctx, p)
	if err != nil {
		app.catalogError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusCreated, updated)
}

// updateVariantHandler godoc
//
//	@Summary		Update a variant
//	@Tags			variants
//	@Accept			json
//	@Produce		json
//	@Param			productID	path		string					true	"Product ID"
//	@Param			variantID	path		string					true	"Variant ID"
//	@Param			payload		body		catalog.VariantInput	true	"Variant"
//	@Success		200			{object}	products.Product
//	@Failure		400			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/products/{productID}/variants/{variantID} [put]
func (app *application) updateVariantHandler(w http.ResponseWriter, r *http.Request) {
	var payload catalog.VariantInput
	if err := readJSON(w, r, &payload); err != nil {
		app.catalogError(w, r, asValidationError(err))
		return
	}
	if err := catalog.ValidateVariant(&payload); err != nil {
		app.catalogError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	p, idx, err := app.productVariant(ctx, r)
	if err != nil {
		app.catalogError(w, r, err)
		return
	}

	p.Variants[idx] = products.Variant{
		ID:       p.Variants[idx].ID,
		RAM:      payload.RAM,
		Price:    payload.Price,
		Quantity: payload.Quantity,
	}
	updated, err := app.store.Products.UpdateProduct(ctx, p)
	if err != nil {
		app.catalogError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, updated)
}

// deleteVariantHandler godoc
//
//	@Summary		Delete a variant
//	@Description	A product always keeps at least one variant
//	@Tags			variants
//	@Produce		json
//	@Param			productID	path		string	true	"Product ID"
//	@Param			variantID	path		string	true	"Variant ID"
//	@Success		200			{object}	products.Product
//	@Failure		400			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/products/{productID}/variants/{variantID} [delete]
func (app *application) deleteVariantHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	p, idx, err := app.productVariant(ctx, r)
	if err != nil {
		app.catalogError(w, r, err)
		return
	}
	if len(p.Variants) == 1 {
		app.catalogError(w, r, catalog.Invalid("variants", "a product must keep at least one variant"))
		return
	}

	p.Variants = append(p.Variants[:idx], p.Variants[idx+1:]...)
	updated, err := app.store.Products.UpdateProduct(ctx, p)
	if err != nil {
		app.catalogError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, updated)
}

// productVariant loads the product in the URL and locates the variant in it.
func (app *application) productVariant(ctx context.Context, r *http.Request) (*products.Product, int, error) {
	p, err := app.store.Products.GetProductByID(ctx, chi.URLParam(r, "productID"))
	if err != nil {
		return nil, 0, err
	}
	variantID := chi.URLParam(r, "variantID")
	idx := p.VariantIndex(variantID)
	if idx < 0 {
		return nil, 0, catalog.NotFound("variant", variantID)
	}
	return p, idx, nil
}

// asValidationError keeps the field errors raised while decoding a variant
// and reports anything else as a malformed body.
func asValidationError(err error) error {
	var ve *catalog.ValidationError
	if errors.As(err, &ve) {
		return ve
	}
	return catalog.Invalid("", "malformed request body: %v", err)
}

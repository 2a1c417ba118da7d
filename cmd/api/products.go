package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"prodexa/internal/catalog"
	"prodexa/internal/domain/products"
	"prodexa/internal/params"
)

const defaultFeaturedLimit = 8

type FeaturedPayload struct {
	IsFeatured *bool `json:"isFeatured"`
}

// listProductsHandler godoc
//
//	@Summary		List products
//	@Description	Filters, sorts and paginates active products. A product matches a price range when any of its variants does.
//	@Tags			products
//	@Produce		json
//	@Param			search			query		string	false	"Search in name and description"
//	@Param			searchMode		query		string	false	"substring (default) or text"
//	@Param			category		query		string	false	"Category ID"
//	@Param			subcategory		query		string	false	"Subcategory IDs, comma separated"
//	@Param			subcategories	query		string	false	"Subcategory IDs, comma separated"
//	@Param			minPrice		query		number	false	"Minimum variant price"
//	@Param			maxPrice		query		number	false	"Maximum variant price"
//	@Param			featured		query		bool	false	"Only featured products"
//	@Param			sortBy			query		string	false	"createdAt, rating, reviewCount, name or price"
//	@Param			sortOrder		query		string	false	"asc or desc (default)"
//	@Param			page			query		int		false	"Page number, from 1"
//	@Param			limit			query		int		false	"Page size, at most 100"
//	@Success		200				{object}	products.ProductPage
//	@Failure		400				{object}	ErrorResponse
//	@Failure		500				{object}	ErrorResponse
//	@Router			/products [get]
func (app *application) listProductsHandler(w http.ResponseWriter, r *http.Request) {
	q, err := catalog.ParseProductQuery(r.URL.Query())
	if err != nil {
		app.catalogError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	items, total, err := app.store.Products.ListProducts(ctx, q)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	if items == nil {
		items = []*products.Product{}
	}

	q.Pagination.ComputeMeta(total)

	app.jsonResponse(w, http.StatusOK, products.ProductPage{Items: items, Pagination: q.Pagination})
}

// listFeaturedProductsHandler godoc
//
//	@Summary		List featured products
//	@Tags			products
//	@Produce		json
//	@Param			limit	query		int	false	"How many, default 8"
//	@Success		200		{array}		products.Product
//	@Failure		400		{object}	ErrorResponse
//	@Router			/products/featured [get]
func (app *application) listFeaturedProductsHandler(w http.ResponseWriter, r *http.Request) {
	limit := defaultFeaturedLimit
	if v := strings.TrimSpace(r.URL.Query().Get("limit")); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			app.badRequestResponse(w, r, &params.Error{Param: "limit", Value: v})
			return
		}
		limit = params.ClampLimit(n)
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	list, err := app.store.Products.ListFeatured(ctx, limit)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	if list == nil {
		list = []*products.Product{}
	}

	app.jsonResponse(w, http.StatusOK, list)
}

// getProductHandler godoc
//
//	@Summary		Get a product
//	@Description	Returns an active product with its category and subcategory names
//	@Tags			products
//	@Produce		json
//	@Param			productID	path		string	true	"Product ID"
//	@Success		200			{object}	products.Product
//	@Failure		404			{object}	ErrorResponse
//	@Router			/products/{productID} [get]
func (app *application) getProductHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	p, err := app.store.Products.GetProductByID(ctx, chi.URLParam(r, "productID"))
	if err != nil {
		app.catalogError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, p)
}

// createProductHandler godoc
//
//	@Summary		Create a product
//	@Description	Multipart form. Exactly 3 images are required on creation (jpeg, png or webp, 5MB each).
//	@Description	variants is a JSON array of {ram, price, quantity}.
//	@Tags			products
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			name		formData	string	true	"Product name"
//	@Param			description	formData	string	false	"Description"
//	@Param			category	formData	string	true	"Category ID"
//	@Param			subcategory	formData	string	true	"Subcategory ID"
//	@Param			variants	formData	string	true	"JSON array of variants"
//	@Param			rating		formData	number	false	"Rating 0-5"
//	@Param			reviewCount	formData	int		false	"Review count"
//	@Param			isFeatured	formData	bool	false	"Featured flag"
//	@Param			images		formData	file	true	"Three product images"
//	@Success		201			{object}	products.Product
//	@Failure		400			{object}	ErrorResponse
//	@Failure		500			{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/products [post]
func (app *application) createProductHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	r.Body = http.MaxBytesReader(w, r.Body, maxProductFormSize)
	if err := r.ParseMultipartForm(maxProductFormSize); err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("failed to parse form: %w", err))
		return
	}
	defer r.MultipartForm.RemoveAll()
	form := r.MultipartForm

	var in catalog.ProductInput
	if err := applyProductForm(form, &in); err != nil {
		app.catalogError(w, r, err)
		return
	}
	if err := catalog.ValidateProduct(&in); err != nil {
		app.catalogError(w, r, err)
		return
	}
	if err := app.checkProductRefs(ctx, in, nil); err != nil {
		app.catalogError(w, r, err)
		return
	}

	files := form.File["images"]
	if err := catalog.ValidateCreateImages(len(files)); err != nil {
		app.catalogError(w, r, err)
		return
	}

	urls, err := app.uploadImages(ctx, files)
	if err != nil {
		app.catalogError(w, r, err)
		return
	}

	created, err := app.store.Products.CreateProduct(ctx, &products.Product{
		Name:          in.Name,
		Description:   in.Description,
		CategoryID:    in.CategoryID,
		SubCategoryID: in.SubCategoryID,
		Variants:      products.VariantsFromInput(in.Variants),
		Images:        urls,
		Rating:        in.Rating,
		ReviewCount:   in.ReviewCount,
		IsActive:      true,
		IsFeatured:    in.IsFeatured,
	})
	if err != nil {
		app.deleteImagesAsync(urls)
		app.catalogError(w, r, err)
		return
	}

	app.logger.Infow("product created", "product_id", created.ID, "images", len(urls))
	app.jsonResponse(w, http.StatusCreated, created)
}

// updateProductHandler godoc
//
//	@Summary		Update a product
//	@Description	Multipart form; only the fields sent are changed. Uploads go to slots image0, image1 and image2
//	@Description	(files sent as images fill the free slots in order). existingImages is a JSON array of the
//	@Description	product's current URLs to keep, by position. Unlike creation, 0 to 3 uploads are accepted.
//	@Tags			products
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			productID		path		string	true	"Product ID"
//	@Param			name			formData	string	false	"Product name"
//	@Param			description		formData	string	false	"Description"
//	@Param			category		formData	string	false	"Category ID"
//	@Param			subcategory		formData	string	false	"Subcategory ID"
//	@Param			variants		formData	string	false	"JSON array of variants"
//	@Param			existingImages	formData	string	false	"JSON array of image URLs to keep"
//	@Param			image0			formData	file	false	"Image for slot 0"
//	@Param			image1			formData	file	false	"Image for slot 1"
//	@Param			image2			formData	file	false	"Image for slot 2"
//	@Success		200				{object}	products.Product
//	@Failure		400				{object}	ErrorResponse
//	@Failure		404				{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/products/{productID} [put]
func (app *application) updateProductHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	r.Body = http.MaxBytesReader(w, r.Body, maxProductFormSize)
	if err := r.ParseMultipartForm(maxProductFormSize); err != nil {
		app.badRequestResponse(w, r, fmt.Errorf("failed to parse form: %w", err))
		return
	}
	defer r.MultipartForm.RemoveAll()
	form := r.MultipartForm

	existing, err := app.store.Products.GetProductByID(ctx, chi.URLParam(r, "productID"))
	if err != nil {
		app.catalogError(w, r, err)
		return
	}

	in := inputFromProduct(existing)
	if err := applyProductForm(form, &in); err != nil {
		app.catalogError(w, r, err)
		return
	}
	if err := catalog.ValidateProduct(&in); err != nil {
		app.catalogError(w, r, err)
		return
	}
	if err := app.checkProductRefs(ctx, in, existing); err != nil {
		app.catalogError(w, r, err)
		return
	}

	kept, err := keptImages(form, existing.Images)
	if err != nil {
		app.catalogError(w, r, err)
		return
	}
	slots, err := slotUploads(form)
	if err != nil {
		app.catalogError(w, r, err)
		return
	}

	var files []*multipart.FileHeader
	var positions []int
	for i, fh := range slots {
		if fh != nil {
			files = append(files, fh)
			positions = append(positions, i)
		}
	}
	urls, err := app.uploadImages(ctx, files)
	if err != nil {
		app.catalogError(w, r, err)
		return
	}

	update := catalog.ImageUpdate{Previous: existing.Images, Existing: kept}
	for i, url := range urls {
		update.Uploads[positions[i]] = url
	}
	images, err := catalog.ReconcileImages(update)
	if err != nil {
		app.deleteImagesAsync(urls)
		app.catalogError(w, r, err)
		return
	}

	changed := *existing
	changed.Name = in.Name
	changed.Description = in.Description
	changed.CategoryID = in.CategoryID
	changed.SubCategoryID = in.SubCategoryID
	changed.Variants = products.VariantsFromInput(in.Variants)
	changed.Images = images
	changed.Rating = in.Rating
	changed.ReviewCount = in.ReviewCount
	changed.IsFeatured = in.IsFeatured

	updated, err := app.store.Products.UpdateProduct(ctx, &changed)
	if err != nil {
		app.deleteImagesAsync(urls)
		app.catalogError(w, r, err)
		return
	}

	app.deleteImagesAsync(catalog.RemovedImages(existing.Images, images))

	app.jsonResponse(w, http.StatusOK, updated)
}

// deleteProductHandler godoc
//
//	@Summary		Delete a product
//	@Description	Soft delete; the product disappears from listings but its images are kept
//	@Tags			products
//	@Produce		json
//	@Param			productID	path		string	true	"Product ID"
//	@Success		200			{object}	MessageResponse
//	@Failure		404			{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/products/{productID} [delete]
func (app *application) deleteProductHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	id := chi.URLParam(r, "productID")
	if err := app.store.Products.DeactivateProduct(ctx, id); err != nil {
		app.catalogError(w, r, err)
		return
	}

	app.logger.Infow("product deactivated", "product_id", id)
	app.jsonResponse(w, http.StatusOK, MessageResponse{Message: "Product deleted successfully"})
}

// toggleFeaturedHandler godoc
//
//	@Summary		Feature or unfeature a product
//	@Description	Sets isFeatured from the body, or flips it when the body is empty
//	@Tags			products
//	@Accept			json
//	@Produce		json
//	@Param			productID	path		string			true	"Product ID"
//	@Param			payload		body		FeaturedPayload	false	"Featured flag"
//	@Success		200			{object}	products.Product
//	@Failure		404			{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/products/{productID}/featured [put]
func (app *application) toggleFeaturedHandler(w http.ResponseWriter, r *http.Request) {
	var payload FeaturedPayload
	if err := readJSON(w, r, &payload); err != nil && !errors.Is(err, io.EOF) {
		app.badRequestResponse(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	id := chi.URLParam(r, "productID")
	featured := false
	if payload.IsFeatured != nil {
		featured = *payload.IsFeatured
	} else {
		p, err := app.store.Products.GetProductByID(ctx, id)
		if err != nil {
			app.catalogError(w, r, err)
			return
		}
		featured = !p.IsFeatured
	}

	p, err := app.store.Products.SetFeatured(ctx, id, featured)
	if err != nil {
		app.catalogError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, p)
}

// checkProductRefs verifies the category and subcategory exist and belong
// together. A reference the product already had may point at a record that
// has since been deactivated; new references must be active.
func (app *application) checkProductRefs(ctx context.Context, in catalog.ProductInput, prev *products.Product) error {
	var notFound *catalog.NotFoundError

	category, err := app.store.Categories.GetCategoryByID(ctx, in.CategoryID)
	if err != nil {
		if errors.As(err, &notFound) {
			return catalog.Invalid("category", "category does not exist")
		}
		return err
	}
	if !category.IsActive && (prev == nil || prev.CategoryID != category.ID) {
		return catalog.Invalid("category", "category is inactive")
	}

	sub, err := app.store.Categories.GetSubCategoryByID(ctx, in.SubCategoryID)
	if err != nil {
		if errors.As(err, &notFound) {
			return catalog.Invalid("subcategory", "subcategory does not exist")
		}
		return err
	}
	if sub.CategoryID != category.ID {
		return catalog.Invalid("subcategory", "subcategory does not belong to the selected category")
	}
	if !sub.IsActive && (prev == nil || prev.SubCategoryID != sub.ID) {
		return catalog.Invalid("subcategory", "subcategory is inactive")
	}
	return nil
}

func formValue(form *multipart.Form, key string) (string, bool) {
	vals, ok := form.Value[key]
	if !ok || len(vals) == 0 {
		return "", false
	}
	return vals[0], true
}

// applyProductForm overlays the text fields present in the form onto in.
func applyProductForm(form *multipart.Form, in *catalog.ProductInput) error {
	if v, ok := formValue(form, "name"); ok {
		in.Name = v
	}
	if v, ok := formValue(form, "description"); ok {
		in.Description = v
	}
	if v, ok := formValue(form, "category"); ok {
		in.CategoryID = v
	}
	if v, ok := formValue(form, "subcategory"); ok {
		in.SubCategoryID = v
	}
	if v, ok := formValue(form, "variants"); ok {
		variants, err := catalog.ParseVariants([]byte(v))
		if err != nil {
			return err
		}
		in.Variants = variants
	}
	if v, ok := formValue(form, "rating"); ok && strings.TrimSpace(v) != "" {
		rating, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || math.IsNaN(rating) || math.IsInf(rating, 0) {
			return catalog.Invalid("rating", "must be a number")
		}
		in.Rating = rating
	}
	if v, ok := formValue(form, "reviewCount"); ok && strings.TrimSpace(v) != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return catalog.Invalid("reviewCount", "must be a whole number")
		}
		in.ReviewCount = n
	}
	if v, ok := formValue(form, "isFeatured"); ok && strings.TrimSpace(v) != "" {
		featured, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return catalog.Invalid("isFeatured", "must be true or false")
		}
		in.IsFeatured = featured
	}
	return nil
}

func inputFromProduct(p *products.Product) catalog.ProductInput {
	in := catalog.ProductInput{
		Name:          p.Name,
		Description:   p.Description,
		CategoryID:    p.CategoryID,
		SubCategoryID: p.SubCategoryID,
		Variants:      make([]catalog.VariantInput, len(p.Variants)),
		Rating:        p.Rating,
		ReviewCount:   p.ReviewCount,
		IsFeatured:    p.IsFeatured,
	}
	for i, v := range p.Variants {
		in.Variants[i] = catalog.VariantInput{ID: v.ID, RAM: v.RAM, Price: v.Price, Quantity: v.Quantity}
	}
	return in
}

// keptImages decodes existingImages. nil means the field was not sent. URLs
// the product does not own are blanked so they cannot be injected.
func keptImages(form *multipart.Form, owned []string) ([]string, error) {
	raw, ok := formValue(form, "existingImages")
	if !ok || strings.TrimSpace(raw) == "" {
		return nil, nil
	}

	var list []string
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return nil, catalog.Invalid("existingImages", "must be a JSON array of image URLs")
	}

	own := make(map[string]bool, len(owned))
	for _, img := range owned {
		own[img] = true
	}
	kept := make([]string, len(list))
	for i, img := range list {
		if own[img] {
			kept[i] = img
		}
	}
	return kept, nil
}

// slotUploads assigns uploaded files to image slots. Files named image0..2
// take their slot; files sent as images fill the remaining slots in order.
func slotUploads(form *multipart.Form) ([catalog.MaxImageSlots]*multipart.FileHeader, error) {
	var slots [catalog.MaxImageSlots]*multipart.FileHeader
	for i := range slots {
		field := fmt.Sprintf("image%d", i)
		files := form.File[field]
		if len(files) > 1 {
			return slots, catalog.Invalid(field, "only one file per slot")
		}
		if len(files) == 1 {
			slots[i] = files[0]
		}
	}

next:
	for _, fh := range form.File["images"] {
		for i := range slots {
			if slots[i] == nil {
				slots[i] = fh
				continue next
			}
		}
		return slots, catalog.Invalid("images", "at most %d images can be uploaded", catalog.MaxImageSlots)
	}
	return slots, nil
}

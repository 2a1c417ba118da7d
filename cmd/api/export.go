package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"prodexa/internal/catalog"
	"prodexa/internal/export"
	"prodexa/internal/params"
)

const maxExportRows = 5000

// exportProductsHandler godoc
//
//	@Summary		Export products as a spreadsheet
//	@Description	Accepts the same filters and sort as the product listing and ignores pagination. One row per variant.
//	@Tags			products
//	@Produce		application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
//	@Success		200	{file}		file
//	@Failure		400	{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/products/export [get]
func (app *application) exportProductsHandler(w http.ResponseWriter, r *http.Request) {
	q, err := catalog.ParseProductQuery(r.URL.Query())
	if err != nil {
		app.catalogError(w, r, err)
		return
	}
	q.Pagination = params.Pagination{Page: 1, Limit: maxExportRows}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	items, total, err := app.store.Products.ListProducts(ctx, q)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}
	if total > len(items) {
		app.logger.Warnw("product export truncated", "total", total, "exported", len(items))
	}

	var buf bytes.Buffer
	if err := export.WriteProductsXLSX(&buf, items); err != nil {
		app.internalServerError(w, r, err)
		return
	}

	filename := fmt.Sprintf("products-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		app.logger.Warnw("failed to write export", "error", err)
	}
}

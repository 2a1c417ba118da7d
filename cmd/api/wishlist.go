package main

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"prodexa/internal/catalog"
	"prodexa/internal/domain/products"
	"prodexa/internal/domain/wishlist"
)

type WishlistPayload struct {
	ProductID string `json:"productId"`
}

type WishlistResponse struct {
	Items []*products.Product `json:"items"`
	Count int                 `json:"count"`
}

type WishlistCheckResponse struct {
	IsInWishlist bool `json:"isInWishlist"`
}

// getWishlistHandler godoc
//
//	@Summary		Get the wishlist
//	@Description	Saved products of the current user, oldest first. Products that were deleted are skipped.
//	@Tags			wishlist
//	@Produce		json
//	@Success		200	{object}	WishlistResponse
//	@Failure		401	{object}	ErrorResponse
//	@Security		ApiKeyAuth
//	@Router			/wishlist [get]
func (app *application) getWishlistHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	resp, err := app.wishlistOf(ctx, getUserFromContext(r).ID)
	if err != nil {
		app.wishlistError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, resp)
}

// addToWishlistHandler godoc
//
//	@Summary		Add a product to the wishlist
//	@Tags			wishlist
//	@Accept			json
//	@Produce		json
//	@Param			payload	body		WishlistPayload	true	"Product"
//	@Success		200		{object}	WishlistResponse
//	@Failure		400		{object}	ErrorResponse	"Invalid id or already in wishlist"
//	@Failure		404		{object}	ErrorResponse	"Product not found"
//	@Security		ApiKeyAuth
//	@Router			/wishlist/add [post]
func (app *application) addToWishlistHandler(w http.ResponseWriter, r *http.Request) {
	var payload WishlistPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}
	productID := strings.TrimSpace(payload.ProductID)
	if productID == "" {
		app.catalogError(w, r, catalog.Invalid("productId", "valid product ID is required"))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	if _, err := app.store.Products.GetProductByID(ctx, productID); err != nil {
		app.catalogError(w, r, err)
		return
	}

	user := getUserFromContext(r)
	if err := app.store.Wishlist.Add(ctx, user.ID, productID); err != nil {
		app.wishlistError(w, r, err)
		return
	}

	resp, err := app.wishlistOf(ctx, user.ID)
	if err != nil {
		app.wishlistError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, resp)
}

// removeFromWishlistHandler godoc
//
//	@Summary		Remove a product from the wishlist
//	@Description	Removing a product that is not saved is not an error
//	@Tags			wishlist
//	@Produce		json
//	@Param			productID	path		string	true	"Product ID"
//	@Success		200			{object}	WishlistResponse
//	@Security		ApiKeyAuth
//	@Router			/wishlist/remove/{productID} [delete]
func (app *application) removeFromWishlistHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	user := getUserFromContext(r)
	err := app.store.Wishlist.Remove(ctx, user.ID, chi.URLParam(r, "productID"))
	if err != nil && !errors.Is(err, wishlist.ErrNotListed) {
		app.wishlistError(w, r, err)
		return
	}

	resp, err := app.wishlistOf(ctx, user.ID)
	if err != nil {
		app.wishlistError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, resp)
}

// checkWishlistHandler godoc
//
//	@Summary		Check whether a product is in the wishlist
//	@Tags			wishlist
//	@Produce		json
//	@Param			productID	path		string	true	"Product ID"
//	@Success		200			{object}	WishlistCheckResponse
//	@Security		ApiKeyAuth
//	@Router			/wishlist/check/{productID} [get]
func (app *application) checkWishlistHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	ok, err := app.store.Wishlist.Contains(ctx, getUserFromContext(r).ID, chi.URLParam(r, "productID"))
	if err != nil {
		app.wishlistError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, WishlistCheckResponse{IsInWishlist: ok})
}

func (app *application) wishlistOf(ctx context.Context, userID string) (WishlistResponse, error) {
	ids, err := app.store.Wishlist.List(ctx, userID)
	if err != nil {
		return WishlistResponse{}, err
	}
	items, err := app.store.Products.GetProductsByIDs(ctx, ids)
	if err != nil {
		return WishlistResponse{}, err
	}
	if items == nil {
		items = []*products.Product{}
	}
	return WishlistResponse{Items: items, Count: len(items)}, nil
}

func (app *application) wishlistError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, wishlist.ErrAlreadyListed):
		app.badRequestResponse(w, r, err)
	case errors.Is(err, wishlist.ErrUserNotFound):
		app.notFoundResponse(w, r, err)
	default:
		app.catalogError(w, r, err)
	}
}

package main

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWishlist(t *testing.T) {
	f := newCatalogFixture(t)
	laptop := f.seedProduct(t, "Gaming Laptop", 1500)
	office := f.seedProduct(t, "Office Laptop", 800)

	add := func(t *testing.T, productID string) *http.Response {
		t.Helper()
		rr := executeRequest(jsonRequest(t, http.MethodPost, "/api/wishlist/add", f.token, WishlistPayload{ProductID: productID}), f.mux)
		return rr.Result()
	}
	check := func(t *testing.T, productID string) bool {
		t.Helper()
		rr := executeRequest(jsonRequest(t, http.MethodGet, "/api/wishlist/check/"+productID, f.token, nil), f.mux)
		require.Equal(t, http.StatusOK, rr.Code)
		var resp WishlistCheckResponse
		decode(t, rr, &resp)
		return resp.IsInWishlist
	}

	assert.False(t, check(t, laptop.ID))

	rr := executeRequest(jsonRequest(t, http.MethodPost, "/api/wishlist/add", f.token, WishlistPayload{ProductID: laptop.ID}), f.mux)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	var list WishlistResponse
	decode(t, rr, &list)
	assert.Equal(t, 1, list.Count)
	require.Len(t, list.Items, 1)
	assert.Equal(t, laptop.ID, list.Items[0].ID)
	assert.True(t, check(t, laptop.ID))

	t.Run("adding twice", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, add(t, laptop.ID).StatusCode)
	})

	t.Run("unknown product", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, add(t, "missing").StatusCode)
	})

	t.Run("blank product id", func(t *testing.T) {
		assert.Equal(t, http.StatusBadRequest, add(t, "  ").StatusCode)
	})

	t.Run("items keep insertion order", func(t *testing.T) {
		require.Equal(t, http.StatusOK, add(t, office.ID).StatusCode)

		rr := executeRequest(jsonRequest(t, http.MethodGet, "/api/wishlist", f.token, nil), f.mux)
		require.Equal(t, http.StatusOK, rr.Code)
		var list WishlistResponse
		decode(t, rr, &list)
		require.Equal(t, 2, list.Count)
		assert.Equal(t, laptop.ID, list.Items[0].ID)
		assert.Equal(t, office.ID, list.Items[1].ID)
	})

	t.Run("deleted products are skipped", func(t *testing.T) {
		rr := executeRequest(jsonRequest(t, http.MethodDelete, "/api/products/"+office.ID, f.token, nil), f.mux)
		require.Equal(t, http.StatusOK, rr.Code)

		rr = executeRequest(jsonRequest(t, http.MethodGet, "/api/wishlist", f.token, nil), f.mux)
		var list WishlistResponse
		decode(t, rr, &list)
		assert.Equal(t, 1, list.Count)
	})

	t.Run("remove", func(t *testing.T) {
		rr := executeRequest(jsonRequest(t, http.MethodDelete, "/api/wishlist/remove/"+laptop.ID, f.token, nil), f.mux)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.False(t, check(t, laptop.ID))

		rr = executeRequest(jsonRequest(t, http.MethodDelete, "/api/wishlist/remove/"+laptop.ID, f.token, nil), f.mux)
		assert.Equal(t, http.StatusOK, rr.Code, "removing twice is not an error")
	})

	t.Run("lists are per user", func(t *testing.T) {
		other := testToken(t, f.app)
		rr := executeRequest(jsonRequest(t, http.MethodGet, "/api/wishlist", other, nil), f.mux)
		require.Equal(t, http.StatusOK, rr.Code)
		var list WishlistResponse
		decode(t, rr, &list)
		assert.Zero(t, list.Count)
		assert.NotNil(t, list.Items)
	})

	t.Run("requires a token", func(t *testing.T) {
		rr := executeRequest(jsonRequest(t, http.MethodGet, "/api/wishlist", "", nil), f.mux)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
	})
}

package main

import (
	"errors"
	"net/http"

	"prodexa/internal/catalog"
	"prodexa/internal/params"
)

func (app *application) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Errorw("internal error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusInternalServerError, "the server encountered a problem")
}

func (app *application) badRequestResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("bad request", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusBadRequest, err.Error())
}

func (app *application) notFoundResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("not found error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusNotFound, err.Error())
}

func (app *application) conflictResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Errorw("conflict response", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusConflict, err.Error())
}

func (app *application) unauthorizedErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("unauthorized error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	writeJSONError(w, http.StatusUnauthorized, "unauthorized")
}

func (app *application) unauthorizedBasicErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logger.Warnw("unauthorized basic error", "method", r.Method, "path", r.URL.Path, "error", err.Error())

	w.Header().Set("WWW-Authenticate", `Basic realm="restricted", charset="UTF-8"`)

	writeJSONError(w, http.StatusUnauthorized, "unauthorized")
}

func (app *application) rateLimitExceededResponse(w http.ResponseWriter, r *http.Request, retryAfter string) {
	app.logger.Warnw("rate limit exceeded", "method", r.Method, "path", r.URL.Path)

	w.Header().Set("Retry-After", retryAfter)

	writeJSONError(w, http.StatusTooManyRequests, "rate limit exceeded, retry after: "+retryAfter)
}

// catalogError maps the catalog error taxonomy onto HTTP statuses. Anything
// unclassified is a 500.
func (app *application) catalogError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validationErr *catalog.ValidationError
		notFoundErr   *catalog.NotFoundError
		duplicateErr  *catalog.DuplicateNameError
		blockedErr    *catalog.DependencyBlockedError
		paramErr      *params.Error
	)

	switch {
	case errors.As(err, &validationErr), errors.As(err, &paramErr):
		app.badRequestResponse(w, r, err)
	case errors.As(err, &notFoundErr):
		app.notFoundResponse(w, r, err)
	case errors.As(err, &duplicateErr), errors.As(err, &blockedErr):
		app.conflictResponse(w, r, err)
	default:
		app.internalServerError(w, r, err)
	}
}

package apperr

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// Status returns the HTTP status for an error kind, 500 when unclassified.
func Status(err error) int {
	switch {
	case errors.Is(err, ErrInvalidInput),
		errors.Is(err, ErrInvalidAssociationCardinality),
		errors.Is(err, ErrReferenceNotFound):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflictingIdentity),
		errors.Is(err, ErrReferenceInUse):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// HTTPError converts err into an *echo.HTTPError. Errors that already are
// one pass through. Unclassified errors are logged with the request logger
// and hidden from the client.
func HTTPError(c echo.Context, err error) error {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}
	status := Status(err)
	if status == http.StatusInternalServerError {
		zerolog.Ctx(c.Request().Context()).Error().Err(err).
			Str("method", c.Request().Method).
			Str("path", c.Path()).
			Msg("unhandled error")
		return echo.NewHTTPError(status, "internal server error")
	}
	return echo.NewHTTPError(status, message(err))
}

// BindError classifies a request body binding failure as ErrInvalidInput
// with detail as the message. Transport errors raised while the body is read,
// such as 413 from the body limit, are returned unchanged.
func BindError(err error, detail string) error {
	var he *echo.HTTPError
	if errors.As(err, &he) && he.Code != http.StatusBadRequest {
		return he
	}
	return Invalid("%s", detail)
}

// message strips wrapping added by the store layer so ReferenceError and
// InUseError texts reach the client unchanged.
func message(err error) string {
	var ref *ReferenceError
	if errors.As(err, &ref) {
		return ref.Error()
	}
	var use *InUseError
	if errors.As(err, &use) {
		return use.Error()
	}
	var in *inputError
	if errors.As(err, &in) {
		return in.Error()
	}
	for _, kind := range []error{ErrInvalidAssociationCardinality, ErrReferenceNotFound, ErrNotFound, ErrConflictingIdentity} {
		if errors.Is(err, kind) {
			return kind.Error()
		}
	}
	return err.Error()
}

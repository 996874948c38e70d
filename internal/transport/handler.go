package transport

import (
	"errors"
	"net/http"

	"storefront/internal/middleware"
	"storefront/internal/repository"
	"storefront/internal/service"
	"storefront/internal/storage"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// urlParamUUID parses the named chi URL parameter as a uuid.
func urlParamUUID(r *http.Request, name string) (uuid.UUID, error) {
	return uuid.Parse(chi.URLParam(r, name))
}

// handleServiceError maps service and repository errors onto HTTP status
// codes and the error envelope. Expected business errors carry their own
// message; anything unrecognized is logged and reported generically.
func handleServiceError(w http.ResponseWriter, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrEmptyCart):
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())

	case errors.Is(err, service.ErrInsufficientStock),
		errors.Is(err, repository.ErrInsufficientStock),
		errors.Is(err, service.ErrProductUnavailable):
		middleware.RespondWithError(w, http.StatusConflict, err.Error())

	case errors.Is(err, service.ErrOrderNotFound),
		errors.Is(err, repository.ErrOrderNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "order not found")

	case errors.Is(err, repository.ErrProductNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "product not found")

	case errors.Is(err, repository.ErrGroupNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "product group not found")

	case errors.Is(err, repository.ErrUserNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "user not found")

	case errors.Is(err, repository.ErrProductSlugConflict),
		errors.Is(err, repository.ErrProductNameConflict),
		errors.Is(err, repository.ErrGroupSlugConflict),
		errors.Is(err, repository.ErrLoginConflict),
		errors.Is(err, repository.ErrEmailConflict):
		middleware.RespondWithError(w, http.StatusConflict, err.Error())

	case errors.Is(err, service.ErrInvalidCredentials):
		middleware.RespondWithError(w, http.StatusUnauthorized, err.Error())

	case errors.Is(err, storage.ErrFileNotFound):
		middleware.RespondWithError(w, http.StatusNotFound, "file not found")

	case errors.Is(err, storage.ErrFileEmpty),
		errors.Is(err, storage.ErrFileTooLarge),
		errors.Is(err, storage.ErrExtensionBlocked):
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())

	default:
		logger.Error("Unhandled service error", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "internal server error")
	}
}

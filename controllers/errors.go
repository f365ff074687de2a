package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/Gantuuu/Elbeg-sub001/delivery"
	"github.com/Gantuuu/Elbeg-sub001/media"
	"github.com/Gantuuu/Elbeg-sub001/models"
	"github.com/Gantuuu/Elbeg-sub001/store"
	"github.com/Gantuuu/Elbeg-sub001/utils"
)

// statusFor maps domain errors onto HTTP status codes and public messages.
func statusFor(err error) (int, string) {
	var verr models.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, verr.Error()
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "Not found"
	case errors.Is(err, store.ErrInsufficientStock),
		errors.Is(err, store.ErrProductMissing),
		errors.Is(err, store.ErrInvalidTransition),
		errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict, err.Error()
	case errors.Is(err, media.ErrBadImage):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, media.ErrFileType):
		return http.StatusUnsupportedMediaType, err.Error()
	case errors.Is(err, media.ErrTooLarge):
		return http.StatusRequestEntityTooLarge, err.Error()
	case errors.Is(err, delivery.ErrNoDeliveryDate):
		return http.StatusServiceUnavailable, err.Error()
	}
	return http.StatusInternalServerError, "Internal server error"
}

// writeError answers with the mapped status. Outside production the full
// error chain is added as detail.
func writeError(w http.ResponseWriter, err error, debug bool) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		slog.Error("Request failed", "error", err)
	}
	body := utils.ErrorBody{Error: msg}
	if debug && body.Error != err.Error() {
		body.Detail = err.Error()
	}
	utils.WriteJSON(w, status, body)
}

// pathID parses the {id} route variable.
func pathID(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil || id == 0 {
		return 0, models.ValidationError("invalid id")
	}
	return uint(id), nil
}

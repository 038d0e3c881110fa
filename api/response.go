package api

import (
	"net/http"

	"github.com/go-errors/errors"
	jsoniter "github.com/json-iterator/go"
	"github.com/the-lightning-land/pourd/dispenser"
	"github.com/the-lightning-land/pourd/pour"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type errorResponse struct {
	Error string `json:"error"`
}

func (a *Api) jsonResponse(w http.ResponseWriter, v interface{}, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		a.log.Errorf("Could not respond with JSON: %v", err)
	}
}

func (a *Api) jsonError(w http.ResponseWriter, msg string, code int) {
	a.jsonResponse(w, &errorResponse{Error: msg}, code)
}

// errorStatus maps dispenser errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, dispenser.ErrMachineBusy):
		return http.StatusConflict
	case errors.Is(err, pour.ErrUnknownRecipe):
		return http.StatusNotFound
	case errors.Is(err, pour.ErrInvalidChannel), errors.Is(err, pour.ErrUnknownPortion):
		return http.StatusBadRequest
	case errors.Is(err, pour.ErrOverlappingChannelUse):
		return http.StatusUnprocessableEntity
	case errors.Is(err, dispenser.ErrStopped):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (a *Api) dispenserError(w http.ResponseWriter, err error) {
	code := errorStatus(err)
	if code == http.StatusInternalServerError {
		a.log.Errorf("Request failed: %v", err)
	}

	a.jsonError(w, err.Error(), code)
}

package service

import (
	"errors"
	"net/http"

	domainerrors "github.com/archipelago/notes-api/internal/errors"
	"github.com/archipelago/notes-api/internal/store"
)

// fromStore translates a store failure into a domain error. The store's
// message is kept because it already names the entity involved. Errors
// that are not store errors pass through and surface as 500.
func fromStore(err error) error {
	if err == nil {
		return nil
	}

	var se *store.Error
	if !errors.As(err, &se) {
		return err
	}

	switch se.Code {
	case http.StatusNotFound:
		return domainerrors.NotFound(se.Message).WithCause(err)
	case http.StatusConflict:
		return domainerrors.Conflict(se.Message).WithCause(err)
	case http.StatusBadRequest:
		return domainerrors.Validation(se.Message).WithCause(err)
	default:
		return err
	}
}

func requireCaller(callerID string) error {
	if callerID == "" {
		return domainerrors.Unauthorized("authentication required")
	}
	return nil
}

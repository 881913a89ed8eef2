package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"

	"github.com/userbase/userbase/internal/metrics"
	"github.com/userbase/userbase/internal/model"
	"github.com/userbase/userbase/internal/service"
)

// Messages for bodies that never reach validation.
const (
	msgMalformedJSON = "Malformed JSON in request body"
	msgNotAnObject   = "Request body must be a JSON object"
	msgBodyTooLarge  = "Request body too large"
	msgEmailExists   = "Email already exists"
)

// UserService is the subset of *service.UserService used by UserHandler.
type UserService interface {
	ListUsers(ctx context.Context) ([]model.User, error)
	CreateUser(ctx context.Context, input service.CreateUserInput) (*model.User, error)
}

// UserHandler serves the /users collection.
type UserHandler struct {
	svc     UserService
	metrics metrics.Recorder
}

// NewUserHandler creates a new UserHandler.
// recorder counts bodies rejected before they reach the service; nil disables it.
func NewUserHandler(svc UserService, recorder metrics.Recorder) *UserHandler {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &UserHandler{svc: svc, metrics: recorder}
}

// List handles GET /users.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) error {
	users, err := h.svc.ListUsers(r.Context())
	if err != nil {
		return fmt.Errorf("list users: %w", err)
	}
	writeJSON(w, http.StatusOK, users)
	return nil
}

// Create handles POST /users.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) error {
	var input service.CreateUserInput
	if err := decodeJSONObject(r.Body, &input); err != nil {
		var httpErr *HTTPError
		if errors.As(err, &httpErr) && httpErr.Status == http.StatusBadRequest {
			h.metrics.IncValidationFailed()
		}
		return err
	}

	user, err := h.svc.CreateUser(r.Context(), input)
	if err != nil {
		var verr *service.ValidationError
		switch {
		case errors.As(err, &verr):
			return NewHTTPError(http.StatusBadRequest, verr.Message)
		case errors.Is(err, service.ErrEmailExists):
			return NewHTTPError(http.StatusConflict, msgEmailExists)
		default:
			return fmt.Errorf("create user: %w", err)
		}
	}

	writeJSON(w, http.StatusCreated, user)
	return nil
}

// decodeJSONObject decodes a single JSON object from body into dst.
// Decoding problems come back as 400 (or 413) HTTPErrors.
func decodeJSONObject(body io.Reader, dst any) error {
	dec := json.NewDecoder(body)

	err := dec.Decode(dst)
	if err == nil {
		// Exactly one value: anything after it, even a stray "}" or "]", is malformed.
		if extra := dec.Decode(&struct{}{}); !errors.Is(extra, io.EOF) {
			return &HTTPError{Status: http.StatusBadRequest, Message: msgMalformedJSON, Err: extra}
		}
		return nil
	}

	var (
		syntaxErr   *json.SyntaxError
		typeErr     *json.UnmarshalTypeError
		maxBytesErr *http.MaxBytesError
	)
	switch {
	case errors.As(err, &maxBytesErr):
		return &HTTPError{Status: http.StatusRequestEntityTooLarge, Message: msgBodyTooLarge, Err: err}
	case errors.As(err, &typeErr):
		if typeErr.Field == "" {
			return &HTTPError{Status: http.StatusBadRequest, Message: msgNotAnObject, Err: err}
		}
		return &HTTPError{
			Status:  http.StatusBadRequest,
			Message: fmt.Sprintf("%s must be a %s", typeErr.Field, jsonKind(typeErr.Type.Kind())),
			Err:     err,
		}
	case errors.Is(err, io.EOF):
		return NewHTTPError(http.StatusBadRequest, msgNotAnObject)
	case errors.As(err, &syntaxErr), errors.Is(err, io.ErrUnexpectedEOF):
		return &HTTPError{Status: http.StatusBadRequest, Message: msgMalformedJSON, Err: err}
	default:
		return fmt.Errorf("decode request body: %w", err)
	}
}

// jsonKind names a Go kind the way a JSON client would.
func jsonKind(kind reflect.Kind) string {
	switch kind {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Slice, reflect.Array:
		return "array"
	case reflect.Map, reflect.Struct, reflect.Pointer, reflect.Interface:
		return "object"
	default:
		return "number"
	}
}

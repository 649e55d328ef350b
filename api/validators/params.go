package validators

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/genericsdirect/dealtracker/internal/allocation"
	pkgerrors "github.com/genericsdirect/dealtracker/pkg/errors"
)

// ParseUUIDParam reads a uuid URL parameter.
func ParseUUIDParam(r *http.Request, key string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, key))
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid "+key).WithDetails(map[string]any{"field": key})
	}
	return id, nil
}

// ParseBucketParam reads a bucket id URL parameter.
func ParseBucketParam(r *http.Request, key string) (allocation.BucketID, error) {
	raw := NormalizeBucketID(chi.URLParam(r, key))
	if !IsBucketID(raw) {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "invalid "+key).WithDetails(map[string]any{"field": key})
	}
	return allocation.BucketID(raw), nil
}

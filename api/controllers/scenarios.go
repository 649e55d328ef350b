package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/genericsdirect/dealtracker/api/responses"
	"github.com/genericsdirect/dealtracker/api/validators"
	"github.com/genericsdirect/dealtracker/internal/allocation"
	"github.com/genericsdirect/dealtracker/internal/scenarios"
	pkgerrors "github.com/genericsdirect/dealtracker/pkg/errors"
	"github.com/genericsdirect/dealtracker/pkg/logger"
	"github.com/genericsdirect/dealtracker/pkg/pagination"
)

const (
	scenarioIDParam = "scenarioId"
	bucketParam     = "bucket"
	maxScenarioName = 200
	maxCursorLength = 512
)

type createScenarioRequest struct {
	Name string `json:"name" validate:"max=200"`
}

type moveRequest struct {
	LineItemID string `json:"line_item_id" validate:"required,uuid"`
	Source     string `json:"source" validate:"required,bucket"`
	Target     string `json:"target" validate:"required,bucket"`
}

func (m moveRequest) toInput() (scenarios.MoveInput, error) {
	input := scenarios.MoveInput{
		Source: allocation.BucketID(validators.NormalizeBucketID(m.Source)),
		Target: allocation.BucketID(validators.NormalizeBucketID(m.Target)),
	}
	id, err := parseUUID(m.LineItemID, "line_item_id")
	if err != nil {
		return input, err
	}
	input.LineItemID = id
	return input, nil
}

func parseUUID(raw, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+field)
	}
	return id, nil
}

func unavailable(logg *logger.Logger, w http.ResponseWriter, r *http.Request) {
	responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "scenario service unavailable"))
}

// ScenarioList returns persisted scenarios, newest first.
func ScenarioList(svc scenarios.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(logg, w, r)
			return
		}
		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := svc.List(r.Context(), pagination.Params{
			Limit:  limit,
			Cursor: validators.ParseQueryString(r, "cursor", maxCursorLength),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// ScenarioCreate builds a scenario from the active catalog and opens it.
func ScenarioCreate(svc scenarios.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(logg, w, r)
			return
		}
		var payload createScenarioRequest
		if err := validators.DecodeOptionalJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		board, err := svc.CreateScenario(r.Context(), validators.SanitizeString(payload.Name, maxScenarioName))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, board)
	}
}

func ScenarioGet(svc scenarios.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(logg, w, r)
			return
		}
		id, err := validators.ParseUUIDParam(r, scenarioIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		scenario, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, scenario)
	}
}

// ScenarioOpen resumes a persisted scenario into a workspace.
func ScenarioOpen(svc scenarios.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(logg, w, r)
			return
		}
		id, err := validators.ParseUUIDParam(r, scenarioIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		board, err := svc.OpenScenario(logg.WithScenarioID(r.Context(), id.String()), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, board)
	}
}

func ScenarioBoard(svc scenarios.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(logg, w, r)
			return
		}
		id, err := validators.ParseUUIDParam(r, scenarioIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		board, err := svc.Board(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, board)
	}
}

// ScenarioMove transfers one line item between buckets and returns the new board.
func ScenarioMove(svc scenarios.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(logg, w, r)
			return
		}
		id, err := validators.ParseUUIDParam(r, scenarioIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload moveRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ctx := logg.WithScenarioID(r.Context(), id.String())
		board, err := svc.Move(ctx, id, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, board)
	}
}

func ScenarioReset(svc scenarios.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(logg, w, r)
			return
		}
		id, err := validators.ParseUUIDParam(r, scenarioIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		board, err := svc.Reset(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, board)
	}
}

// ScenarioSave persists the current allocation snapshot.
func ScenarioSave(svc scenarios.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(logg, w, r)
			return
		}
		id, err := validators.ParseUUIDParam(r, scenarioIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		ctx := logg.WithScenarioID(r.Context(), id.String())
		result, err := svc.Save(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ScenarioClose discards the workspace without saving.
func ScenarioClose(svc scenarios.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(logg, w, r)
			return
		}
		id, err := validators.ParseUUIDParam(r, scenarioIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Close(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ScenarioBucket lists the persisted details allocated to one bucket.
func ScenarioBucket(svc scenarios.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			unavailable(logg, w, r)
			return
		}
		id, err := validators.ParseUUIDParam(r, scenarioIDParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		bucket, err := validators.ParseBucketParam(r, bucketParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		details, err := svc.BucketDetails(r.Context(), id, bucket)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, details)
	}
}

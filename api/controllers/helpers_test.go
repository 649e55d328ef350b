package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/genericsdirect/dealtracker/api/responses"
	"github.com/genericsdirect/dealtracker/internal/allocation"
	"github.com/genericsdirect/dealtracker/internal/scenarios"
	pkgerrors "github.com/genericsdirect/dealtracker/pkg/errors"
	"github.com/genericsdirect/dealtracker/pkg/pagination"
)

type stubScenarioService struct {
	board      *scenarios.BoardDTO
	err        error
	lastName   string
	lastMove   scenarios.MoveInput
	lastParams pagination.Params
	lastBucket allocation.BucketID
	closed     []uuid.UUID
	openIDs    map[uuid.UUID]bool
	saveResult *scenarios.SaveResult
	page       *scenarios.ScenarioPage
	scenario   *scenarios.ScenarioDTO
	details    []scenarios.DetailDTO
}

func (s *stubScenarioService) CreateScenario(_ context.Context, name string) (*scenarios.BoardDTO, error) {
	s.lastName = name
	return s.board, s.err
}

func (s *stubScenarioService) OpenScenario(_ context.Context, id uuid.UUID) (*scenarios.BoardDTO, error) {
	return s.board, s.err
}

func (s *stubScenarioService) Board(_ context.Context, id uuid.UUID) (*scenarios.BoardDTO, error) {
	if s.openIDs != nil && !s.openIDs[id] {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "scenario is not open")
	}
	return s.board, s.err
}

func (s *stubScenarioService) Move(_ context.Context, id uuid.UUID, input scenarios.MoveInput) (*scenarios.BoardDTO, error) {
	s.lastMove = input
	return s.board, s.err
}

func (s *stubScenarioService) Reset(_ context.Context, id uuid.UUID) (*scenarios.BoardDTO, error) {
	return s.board, s.err
}

func (s *stubScenarioService) Save(_ context.Context, id uuid.UUID) (*scenarios.SaveResult, error) {
	return s.saveResult, s.err
}

func (s *stubScenarioService) Close(_ context.Context, id uuid.UUID) error {
	s.closed = append(s.closed, id)
	return s.err
}

func (s *stubScenarioService) List(_ context.Context, params pagination.Params) (*scenarios.ScenarioPage, error) {
	s.lastParams = params
	return s.page, s.err
}

func (s *stubScenarioService) Get(_ context.Context, id uuid.UUID) (*scenarios.ScenarioDTO, error) {
	return s.scenario, s.err
}

func (s *stubScenarioService) BucketDetails(_ context.Context, id uuid.UUID, bucket allocation.BucketID) ([]scenarios.DetailDTO, error) {
	s.lastBucket = bucket
	return s.details, s.err
}

func withParams(req *http.Request, params map[string]string) *http.Request {
	routeCtx := chi.NewRouteContext()
	for k, v := range params {
		routeCtx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dest any) {
	t.Helper()
	body, err := io.ReadAll(rec.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	envelope := struct {
		Data json.RawMessage `json:"data"`
	}{}
	if err := json.Unmarshal(body, &envelope); err != nil {
		t.Fatalf("decode envelope: %v (%s)", err, body)
	}
	if err := json.Unmarshal(envelope.Data, dest); err != nil {
		t.Fatalf("decode data: %v (%s)", err, envelope.Data)
	}
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) responses.ErrorBody {
	t.Helper()
	var envelope responses.ErrorEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode error envelope: %v", err)
	}
	return envelope.Error
}

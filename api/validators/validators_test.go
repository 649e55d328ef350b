package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genericsdirect/dealtracker/internal/allocation"
	pkgerrors "github.com/genericsdirect/dealtracker/pkg/errors"
)

type movePayload struct {
	LineItemID string `json:"line_item_id" validate:"required,uuid"`
	Source     string `json:"source" validate:"required,bucket"`
	Target     string `json:"target" validate:"required,bucket"`
}

type namePayload struct {
	Name string `json:"name" validate:"max=10"`
}

func TestDecodeJSONBodyValidates(t *testing.T) {
	body := `{"line_item_id":"` + uuid.NewString() + `","source":"UNASSIGNED","target":"3"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	var dest movePayload
	require.NoError(t, DecodeJSONBody(req, &dest))
	assert.Equal(t, "3", dest.Target)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"line_item_id":"nope","source":"pfizer","target":"03"}`))
	err := DecodeJSONBody(req, &movePayload{})
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	details := typed.Details().(map[string]string)
	assert.Equal(t, "must be a valid uuid", details["line_item_id"])
	assert.Contains(t, details["source"], "UNASSIGNED")
	assert.Contains(t, details, "target")
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"a","extra":1}`))
	err := DecodeJSONBody(req, &namePayload{})
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestDecodeOptionalJSONBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", http.NoBody)
	var dest namePayload
	require.NoError(t, DecodeOptionalJSONBody(req, &dest))
	assert.Empty(t, dest.Name)

	req = httptest.NewRequest(http.MethodPost, "/", http.NoBody)
	assert.Error(t, DecodeJSONBody(req, &dest))

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"far too long a name"}`))
	err := DecodeOptionalJSONBody(req, &dest)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, "must be at most 10", typed.Details().(map[string]string)["name"])
}

func TestIsBucketID(t *testing.T) {
	for value, want := range map[string]bool{
		"UNASSIGNED": true,
		"1":          true,
		"42":         true,
		"0":          false,
		"-1":         false,
		"007":        false,
		"unassigned": false,
		"":           false,
	} {
		assert.Equalf(t, want, IsBucketID(value), "IsBucketID(%q)", value)
	}
}

func TestBucketNormalizationMatchesBodyAndPath(t *testing.T) {
	assert.Equal(t, "UNASSIGNED", NormalizeBucketID("  unassigned "))
	assert.Equal(t, "7", NormalizeBucketID("7"))

	body := `{"line_item_id":"` + uuid.NewString() + `","source":"unassigned","target":" 4 "}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	require.NoError(t, DecodeJSONBody(req, &movePayload{}))

	for _, value := range []string{"unassigned", "Unassigned", "UNASSIGNED"} {
		pathReq := withURLParams(httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{"bucket": value})
		bucket, err := ParseBucketParam(pathReq, "bucket")
		require.NoError(t, err)
		assert.Equal(t, allocation.Unassigned, bucket)
	}
}

func withURLParams(r *http.Request, params map[string]string) *http.Request {
	rc := chi.NewRouteContext()
	for k, v := range params {
		rc.URLParams.Add(k, v)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rc))
}

func TestParseParams(t *testing.T) {
	id := uuid.New()
	req := withURLParams(httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{"id": id.String(), "bucket": "unassigned"})

	got, err := ParseUUIDParam(req, "id")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	bucket, err := ParseBucketParam(req, "bucket")
	require.NoError(t, err)
	assert.Equal(t, allocation.Unassigned, bucket)

	bad := withURLParams(httptest.NewRequest(http.MethodGet, "/", nil), map[string]string{"id": "x", "bucket": "pfizer"})
	_, err = ParseUUIDParam(bad, "id")
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
	_, err = ParseBucketParam(bad, "bucket")
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeValidation))
}

func TestParseQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=10&bad=x&big=500", nil)

	v, err := ParseQueryInt(req, "limit", 25, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 10, v)

	v, err = ParseQueryInt(req, "missing", 25, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 25, v)

	_, err = ParseQueryInt(req, "bad", 25, 1, 100)
	assert.Error(t, err)
	_, err = ParseQueryInt(req, "big", 25, 1, 100)
	assert.Error(t, err)
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "Q3 plan", SanitizeString("  Q3 plan \n", 50))
	assert.Equal(t, "abc", SanitizeString("abcdef", 3))
	assert.Equal(t, "ab", SanitizeString("abé", 3))
	assert.Equal(t, "x", SanitizeString(" x ", 0))
}

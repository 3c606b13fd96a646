package validators

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	pkgerrors "github.com/angelmondragon/foodgram-backend/pkg/errors"
)

type amountInput struct {
	ID     uuid.UUID `json:"id" validate:"required"`
	Amount int       `json:"amount" validate:"required,min=1,max=32000"`
}

type sampleBody struct {
	Name        string        `json:"name" validate:"required,max=5"`
	Ingredients []amountInput `json:"ingredients" validate:"required,dive"`
}

func TestDecodeJSONBodyReportsTopLevelFields(t *testing.T) {
	body := `{"name":"toolong","ingredients":[{"id":"` + uuid.NewString() + `","amount":0}]}`
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))

	var dest sampleBody
	err := DecodeJSONBody(r, &dest)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	details := typed.Details().(map[string]string)
	if details["name"] != "must be at most 5" {
		t.Fatalf("unexpected name detail %q", details["name"])
	}
	if _, ok := details["ingredients"]; !ok {
		t.Fatalf("expected ingredients detail, got %v", details)
	}
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"ok","ingredients":[],"extra":1}`))
	var dest sampleBody
	if err := DecodeJSONBody(r, &dest); !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParsePagination(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?page=3&limit=10", nil)
	params, err := ParsePagination(r, 6)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if params.Page != 3 || params.Limit != 10 {
		t.Fatalf("unexpected params %+v", params)
	}

	r = httptest.NewRequest(http.MethodGet, "/", nil)
	params, _ = ParsePagination(r, 6)
	if params.Page != 1 || params.Limit != 6 {
		t.Fatalf("unexpected defaults %+v", params)
	}

	r = httptest.NewRequest(http.MethodGet, "/?limit=1000", nil)
	if _, err := ParsePagination(r, 6); err == nil {
		t.Fatal("expected out of range limit to fail")
	}
}

func TestParseQueryFlagAndUUID(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?is_favorited=1&author=nope", nil)
	flag, err := ParseQueryFlag(r, "is_favorited")
	if err != nil || !flag {
		t.Fatalf("expected true flag, got %v %v", flag, err)
	}
	if _, err := ParseQueryUUID(r, "author"); err == nil {
		t.Fatal("expected invalid uuid to fail")
	}
	missing, err := ParseQueryUUID(r, "other")
	if err != nil || missing != nil {
		t.Fatalf("expected nil for missing param, got %v %v", missing, err)
	}
}

func TestSanitizeString(t *testing.T) {
	if got := SanitizeString("  flour  ", 3); got != "flo" {
		t.Fatalf("unexpected sanitized value %q", got)
	}
}

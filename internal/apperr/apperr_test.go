package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{Validation, http.StatusBadRequest},
		{Unauthenticated, http.StatusUnauthorized},
		{Forbidden, http.StatusForbidden},
		{NotFound, http.StatusNotFound},
		{Conflict, http.StatusConflict},
		{Internal, http.StatusInternalServerError},
	}
	for _, tc := range tests {
		if got := HTTPStatus(tc.kind); got != tc.want {
			t.Errorf("HTTPStatus(%d): got %d, want %d", tc.kind, got, tc.want)
		}
	}
}

func TestFromPGMapsSQLStates(t *testing.T) {
	tests := []struct {
		code string
		want Kind
	}{
		{"23505", Conflict},
		{"23503", Validation},
		{"23502", Validation},
		{"22P02", Validation},
		{"42P01", Internal},
		{"53300", Internal}, // anything else collapses to internal
	}
	for _, tc := range tests {
		t.Run(tc.code, func(t *testing.T) {
			src := fmt.Errorf("exec: %w", &pgconn.PgError{Code: tc.code})
			got := FromPG(src)
			if got.Kind != tc.want {
				t.Errorf("FromPG(%s): got kind %d, want %d", tc.code, got.Kind, tc.want)
			}
			if !errors.Is(got, src) && got.Unwrap() == nil {
				t.Errorf("FromPG(%s): cause not preserved", tc.code)
			}
		})
	}
}

func TestKindOfDefaultsToInternal(t *testing.T) {
	if got := KindOf(errors.New("boom")); got != Internal {
		t.Errorf("KindOf(plain error): got %d, want Internal", got)
	}
	wrapped := fmt.Errorf("outer: %w", New(NotFound, "no existe"))
	if got := KindOf(wrapped); got != NotFound {
		t.Errorf("KindOf(wrapped): got %d, want NotFound", got)
	}
}

func TestValidationfCarriesField(t *testing.T) {
	err := Validationf("working_speed_kmh", "debe ser menor a %d", 40)
	if err.Fields["working_speed_kmh"] != "debe ser menor a 40" {
		t.Errorf("field detail: got %q", err.Fields["working_speed_kmh"])
	}
}

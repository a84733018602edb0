package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  *Error
		want int
	}{
		{NotFound("x"), http.StatusNotFound},
		{Validation("x"), http.StatusBadRequest},
		{BadRequest("x"), http.StatusBadRequest},
		{Conflict("x"), http.StatusConflict},
		{Forbidden("x"), http.StatusForbidden},
		{Unauthorized("x"), http.StatusUnauthorized},
		{Unavailable("x"), http.StatusServiceUnavailable},
		{Internal("x"), http.StatusInternalServerError},
		{New(KindUnknown, "x"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := tc.err.HTTPStatus(); got != tc.want {
			t.Errorf("kind %d: status = %d, want %d", tc.err.Kind, got, tc.want)
		}
	}
}

func TestGetKindFollowsWrappedChain(t *testing.T) {
	base := NotFound("lead not found")
	wrapped := fmt.Errorf("load lead: %w", base)

	if !Is(wrapped, KindNotFound) {
		t.Fatalf("expected wrapped error to carry KindNotFound")
	}
	if GetKind(errors.New("plain")) != KindUnknown {
		t.Fatalf("plain errors must be KindUnknown")
	}
}

func TestErrorMessageIncludesOp(t *testing.T) {
	err := Validation("status is invalid").WithOp("leads.Update")
	if err.Error() != "leads.Update: status is invalid" {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

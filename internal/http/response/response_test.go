package response

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	types "github.com/yungbote/esteira-backend/internal/domain/cases"
	"github.com/yungbote/esteira-backend/internal/platform/apierr"
)

func TestFromError(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{types.Validation("bad cpf"), http.StatusBadRequest, "validation_error"},
		{fmt.Errorf("case x: %w", types.ErrNotFound), http.StatusNotFound, "not_found"},
		{types.ErrAlreadyAssigned, http.StatusConflict, "already_assigned"},
		{types.ErrConflict, http.StatusConflict, "conflict"},
		{types.InvalidTransition(types.StatusNovo, types.StatusEncerrado), http.StatusUnprocessableEntity, "invalid_transition"},
		{types.ErrInvalidState, http.StatusUnprocessableEntity, "invalid_state"},
		{apierr.BadRequest("invalid_case_id", errors.New("x")), http.StatusBadRequest, "invalid_case_id"},
		{errors.New("db exploded"), http.StatusInternalServerError, "internal_error"},
	}
	for _, tc := range cases {
		got := FromError(tc.err)
		if got.Status != tc.status || got.Code != tc.code {
			t.Fatalf("FromError(%v): want=%d/%s got=%d/%s", tc.err, tc.status, tc.code, got.Status, got.Code)
		}
	}
}

package utils

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chatterbox/chatterbox-backend/responses"
)

func TestHandleErrorWritesStatusAndMessage(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		body   string
	}{
		{"bad request", responses.BadRequestError{Msg: "Invalid request."}, http.StatusBadRequest, "Invalid request."},
		{"forbidden", responses.ForbiddenError{Msg: "Forbidden"}, http.StatusForbidden, "Forbidden"},
		{"not found", responses.NotFoundError{Msg: "User not found"}, http.StatusNotFound, "User not found"},
		{"internal", responses.InternalServerError{Msg: "Failed to create user."}, http.StatusInternalServerError, "Failed to create user."},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			HandleError(rec, tc.err)
			require.Equal(t, tc.status, rec.Code)
			require.Equal(t, tc.body+"\n", rec.Body.String())
		})
	}
}

func TestHandleErrorFallsBackToInternalServerError(t *testing.T) {
	rec := httptest.NewRecorder()
	HandleError(rec, errors.New("boom"))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "Internal Server Error\n", rec.Body.String())
}

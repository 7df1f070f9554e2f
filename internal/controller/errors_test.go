package controller

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"dashgen-backend/internal/dataset"
	"dashgen-backend/internal/render"
	"dashgen-backend/internal/repository"
	"dashgen-backend/internal/service"
	"dashgen-backend/internal/session"
	"dashgen-backend/internal/store"
)

func TestErrorStatus(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"stale", fmt.Errorf("filter: %w", session.ErrStaleResponse), http.StatusConflict},
		{"invalid transition", session.ErrInvalidTransition, http.StatusConflict},
		{"session", store.ErrSessionNotFound, http.StatusNotFound},
		{"load of missing dashboard", &service.Failure{Kind: service.LoadFailure, Err: repository.ErrDashboardNotFound}, http.StatusNotFound},
		{"unknown component", render.ErrUnknownComponent, http.StatusNotFound},
		{"not clickable", render.ErrNotClickable, http.StatusBadRequest},
		{"not exportable", render.ErrNotExportable, http.StatusUnprocessableEntity},
		{"traversal", dataset.ErrOutsideRoot, http.StatusBadRequest},
		{"too large", &service.Failure{Kind: service.UploadFailure, Err: service.ErrFileTooLarge}, http.StatusRequestEntityTooLarge},
		{"upload", &service.Failure{Kind: service.UploadFailure, Err: errors.New("bad csv")}, http.StatusBadRequest},
		{"generation", &service.Failure{Kind: service.GenerationFailure, Err: errors.New("timeout")}, http.StatusBadGateway},
		{"filter", &service.Failure{Kind: service.FilterFailure, Err: errors.New("boom")}, http.StatusInternalServerError},
		{"validation", &service.ValidationError{Message: "bad range"}, http.StatusBadRequest},
		{"disabled", service.ErrActivityDisabled, http.StatusServiceUnavailable},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			status, message := errorStatus(tc.err, "fallback")
			assert.Equal(t, tc.status, status)
			assert.NotEmpty(t, message)
		})
	}

	_, message := errorStatus(errors.New("internal detail"), "Failed to do it")
	assert.Equal(t, "Failed to do it", message)
	_, message = errorStatus(&service.Failure{Kind: service.GenerationFailure, Message: "the planner could not design a dashboard"}, "x")
	assert.Equal(t, "the planner could not design a dashboard", message)
}

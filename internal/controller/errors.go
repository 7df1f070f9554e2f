package controller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"dashgen-backend/internal/dataset"
	"dashgen-backend/internal/model"
	"dashgen-backend/internal/render"
	"dashgen-backend/internal/repository"
	"dashgen-backend/internal/service"
	"dashgen-backend/internal/session"
	"dashgen-backend/internal/store"
)

type staleData struct {
	Stale bool `json:"stale"`
}

// errorStatus maps an error from the services to a status code and the
// message shown to the user.
func errorStatus(err error, fallback string) (int, string) {
	switch {
	case errors.Is(err, session.ErrStaleResponse):
		return http.StatusConflict, err.Error()
	case errors.Is(err, session.ErrInvalidTransition), errors.Is(err, session.ErrNoDashboard):
		return http.StatusConflict, err.Error()
	case errors.Is(err, store.ErrSessionNotFound),
		errors.Is(err, repository.ErrDashboardNotFound),
		errors.Is(err, render.ErrUnknownComponent):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, render.ErrNotClickable), errors.Is(err, dataset.ErrOutsideRoot):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, render.ErrNotExportable):
		return http.StatusUnprocessableEntity, err.Error()
	case errors.Is(err, service.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge, err.Error()
	case errors.Is(err, service.ErrActivityDisabled):
		return http.StatusServiceUnavailable, err.Error()
	}

	var verr *service.ValidationError
	if errors.As(err, &verr) {
		return http.StatusBadRequest, verr.Message
	}
	if f, ok := service.AsFailure(err); ok {
		switch f.Kind {
		case service.UploadFailure:
			return http.StatusBadRequest, f.Message
		case service.GenerationFailure:
			return http.StatusBadGateway, f.Message
		default:
			return http.StatusInternalServerError, f.Message
		}
	}
	return http.StatusInternalServerError, fallback
}

func writeError(ctx *gin.Context, err error, fallback string) {
	status, message := errorStatus(err, fallback)
	if status >= http.StatusInternalServerError {
		log.Error().Err(err).Str("path", ctx.FullPath()).Int("status", status).Msg(fallback)
	} else {
		log.Warn().Err(err).Str("path", ctx.FullPath()).Int("status", status).Msg(fallback)
	}

	var data interface{}
	if errors.Is(err, session.ErrStaleResponse) {
		data = staleData{Stale: true}
	}
	if f, ok := service.AsFailure(err); ok {
		ctx.JSON(status, model.NewResponse(message, failureData{Kind: f.Kind, Stale: data != nil}))
		return
	}
	ctx.JSON(status, model.NewResponse(message, data))
}

type failureData struct {
	Kind  service.FailureKind `json:"kind"`
	Stale bool                `json:"stale,omitempty"`
}

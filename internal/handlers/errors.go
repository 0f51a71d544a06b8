package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/lisho/deontolog-ia-feedback/internal/feedback"
	"github.com/lisho/deontolog-ia-feedback/internal/services"
	"github.com/lisho/deontolog-ia-feedback/internal/store"
	"github.com/lisho/deontolog-ia-feedback/pkg/logger"
	"github.com/lisho/deontolog-ia-feedback/pkg/response"
)

// fail maps service errors onto the API envelope.
func fail(c *gin.Context, err error) {
	var ve feedback.ValidationErrors
	switch {
	case errors.As(err, &ve):
		response.Error(c, response.NewBadRequest(ve.Error()).WithData(gin.H{
			"fields":      ve.Fields(),
			"first_field": ve.FirstField(),
			"errors":      []feedback.FieldError(ve),
		}))
	case errors.Is(err, store.ErrNotFound):
		response.Error(c, response.NewNotFound("registro no encontrado"))
	case errors.Is(err, services.ErrEmptySelection):
		response.Error(c, response.NewBadRequest("no hay registros seleccionados"))
	case errors.Is(err, services.ErrSelectionStale):
		response.Error(c, response.NewConflict("la lista ha cambiado, vuelve a seleccionar los registros"))
	case errors.Is(err, services.ErrAssistBusy):
		response.Error(c, response.NewConflict("ya hay una síntesis en curso para este registro"))
	case errors.Is(err, services.ErrCredentialMissing):
		response.Error(c, &response.AppError{HTTPStatus: 503, Code: 503, Message: "no hay ninguna clave de API configurada para la IA"})
	case errors.Is(err, services.ErrSummarizerUnavailable):
		response.Error(c, &response.AppError{HTTPStatus: 502, Code: 502, Message: "el servicio de IA no está disponible, inténtalo de nuevo más tarde"})
	case errors.Is(err, services.ErrLLMConfigNotFound):
		response.Error(c, response.NewNotFound("configuración de IA no encontrada"))
	default:
		var appErr *response.AppError
		if !errors.As(err, &appErr) {
			logger.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		}
		response.Error(c, err)
	}
}

// badInput answers a binding failure, naming each failing field.
func badInput(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		response.BadRequest(c, "petición mal formada: "+err.Error())
		return
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	response.Error(c, response.NewBadRequest("parámetros no válidos").WithData(gin.H{
		"fields":      fields,
		"first_field": verrs[0].Field(),
	}))
}

func uintParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		response.BadRequest(c, "identificador no válido")
		return 0, false
	}
	return uint(id), true
}

// attachment sends data as a download.
func attachment(c *gin.Context, filename, contentType string, data []byte) {
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(200, contentType, data)
}

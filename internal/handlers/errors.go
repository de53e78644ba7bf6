package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anonto42/pulse/backend/internal/services"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Kind   services.Kind `json:"kind"`
	Detail string        `json:"detail"`
}

// Kinds that only the transport layer produces.
const (
	kindThrottled        services.Kind = "throttled"
	kindMethodNotAllowed services.Kind = "method_not_allowed"
	kindBadRequest       services.Kind = "bad_request"
)

var kindStatus = map[services.Kind]int{
	services.KindValidation:     http.StatusBadRequest,
	services.KindAuthentication: http.StatusUnauthorized,
	services.KindAuthorization:  http.StatusForbidden,
	services.KindNotFound:       http.StatusNotFound,
	services.KindConflict:       http.StatusConflict,
	services.KindInternal:       http.StatusInternalServerError,
}

// NewHTTPErrorHandler renders service, validation and echo errors as
// ErrorResponse.
func NewHTTPErrorHandler(log logrus.FieldLogger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := renderError(err)
		if status >= http.StatusInternalServerError {
			log.WithError(err).WithField("uri", c.Request().RequestURI).Error("request failed")
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, body)
		}
		if err != nil {
			log.WithError(err).Warn("could not write error response")
		}
	}
}

func renderError(err error) (int, ErrorResponse) {
	var (
		se  *services.Error
		he  *echo.HTTPError
		ves validator.ValidationErrors
	)
	switch {
	case errors.As(err, &se):
		return kindStatus[se.Kind], ErrorResponse{Kind: se.Kind, Detail: se.Detail}
	case errors.As(err, &ves):
		return http.StatusBadRequest, ErrorResponse{Kind: services.KindValidation, Detail: describeValidation(ves)}
	case errors.As(err, &he):
		return he.Code, ErrorResponse{Kind: kindForStatus(he.Code), Detail: fmt.Sprint(he.Message)}
	}
	return http.StatusInternalServerError, ErrorResponse{Kind: services.KindInternal, Detail: "Internal server error."}
}

func kindForStatus(code int) services.Kind {
	switch code {
	case http.StatusTooManyRequests:
		return kindThrottled
	case http.StatusMethodNotAllowed:
		return kindMethodNotAllowed
	case http.StatusRequestEntityTooLarge, http.StatusUnsupportedMediaType, http.StatusUnprocessableEntity:
		return services.KindValidation
	}
	if code >= http.StatusInternalServerError {
		return services.KindInternal
	}
	for kind, status := range kindStatus {
		if status == code {
			return kind
		}
	}
	return kindBadRequest
}

func describeValidation(ves validator.ValidationErrors) string {
	msgs := make([]string, 0, len(ves))
	for _, fe := range ves {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required.")
		case "email":
			msgs = append(msgs, field+" must be a valid email address.")
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s characters long.", field, fe.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters long.", field, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid (%s).", field, fe.Tag()))
		}
	}
	return strings.Join(msgs, " ")
}

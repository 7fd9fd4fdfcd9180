package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

type CustomValidator struct {
	validator *validator.Validate
}

func NewValidator() *CustomValidator {
	return &CustomValidator{validator: validator.New()}
}

func (cv *CustomValidator) Validate(i interface{}) error {
	if err := cv.validator.Struct(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// HTTPErrorHandler unwraps handler errors down to the echo.HTTPError that
// carries the status code.
func HTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var httpError *echo.HTTPError
	if !errors.As(err, &httpError) {
		httpError = echo.NewHTTPError(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)).SetInternal(err)
	}

	var sendError error
	if c.Request().Method == http.MethodHead {
		sendError = c.NoContent(httpError.Code)
	} else {
		sendError = c.String(httpError.Code, fmt.Sprint(httpError.Message))
	}

	if sendError != nil {
		slog.Error("HTTPErrorHandler send error", slog.Any("sendError", sendError), slog.Any("httpError", httpError))
	}
}

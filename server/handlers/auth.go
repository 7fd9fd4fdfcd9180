package handlers

import (
	"bytes"
	"io"
	"net/http"

	"github.com/JRI98/widgetbridge/internal/ed25519"
	"github.com/labstack/echo/v4"
)

// Authenticate checks the body signature carried in the Authorization
// header against the trusted keys. With no trusted keys every request passes.
func Authenticate(trusted map[string]ed25519.PublicKey) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if len(trusted) == 0 {
				return next(c)
			}

			body, err := io.ReadAll(c.Request().Body)
			if err != nil {
				return echo.NewHTTPError(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
			}
			c.Request().Body.Close()

			c.Request().Body = io.NopCloser(bytes.NewReader(body))

			authorizationHeader := c.Request().Header.Get(echo.HeaderAuthorization)
			publicKey, err := ed25519.VerifyAuthorization(authorizationHeader, body)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized)).SetInternal(err)
			}

			if _, ok := trusted[string(publicKey)]; !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
			}

			c.Set("publicKey", publicKey)

			return next(c)
		}
	}
}

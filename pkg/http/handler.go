package http

import "github.com/labstack/echo/v4"

// Handler mounts its routes on the server's echo instance. Routes that need
// the journal key wrap themselves with middleware.APIKey.
type Handler interface {
	RegisterRoutes(e *echo.Echo)
}

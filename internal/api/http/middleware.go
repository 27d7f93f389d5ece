package http

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"go.uber.org/zap"

	"github.com/spec-kit/attendance-service/internal/api/dto"
	"github.com/spec-kit/attendance-service/internal/observability"
	apperrors "github.com/spec-kit/attendance-service/pkg/util/errorutil"
)

// MiddlewareOptions tunes the global middleware chain.
type MiddlewareOptions struct {
	Timeout time.Duration
	// ExposeErrorDetail puts the underlying error text of 5xx responses in
	// the message. Never set in production.
	ExposeErrorDetail bool
}

// RegisterMiddlewares attaches global middlewares such as error handling and logging.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, opts MiddlewareOptions) {
	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowMethods:  "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:  "Content-Type, Authorization",
		ExposeHeaders: "Content-Length, " + observability.RequestIDHeader,
		MaxAge:        600,
	}))
	app.Use(observability.RequestLogger(logger, metrics))
	app.Use(errorHandlingMiddleware(logger, metrics, opts.ExposeErrorDetail))
	if opts.Timeout > 0 {
		app.Use(requestTimeoutMiddleware(opts.Timeout))
	}
}

// ErrorHandler renders errors that escape the middleware chain; install it as
// fiber.Config.ErrorHandler.
func ErrorHandler(logger *zap.Logger, metrics *observability.Metrics, exposeDetail bool) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		return writeError(c, err, logger, metrics, exposeDetail)
	}
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics, exposeDetail bool) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", zap.Any("panic", r), zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(fmt.Errorf("panic: %v", r))
			}
			if err != nil {
				err = writeError(c, err, logger, metrics, exposeDetail)
			}
		}()
		return c.Next()
	}
}

func writeError(c *fiber.Ctx, err error, logger *zap.Logger, metrics *observability.Metrics, exposeDetail bool) error {
	domainErr := apperrors.ToDomainError(err)
	metrics.RecordError(c.Route().Path, c.Method(), domainErr.Code)

	body := dto.Envelope{
		Status:  dto.StatusError,
		Message: domainErr.Message,
		Errors:  domainErr.Fields,
	}
	if domainErr.HTTPStatus >= fiber.StatusInternalServerError {
		logger.Error("request failed",
			zap.String("request_id", observability.RequestID(c)),
			zap.String("path", c.Path()),
			zap.Error(domainErr))
		if exposeDetail && domainErr.Err != nil {
			body.Message = domainErr.Err.Error()
		}
	}
	return c.Status(domainErr.HTTPStatus).JSON(body)
}

func notFound(c *fiber.Ctx) error {
	return apperrors.NewDomainError("NOT_FOUND", "not found", fiber.StatusNotFound, nil)
}

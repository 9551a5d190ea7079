package http

import (
	"context"
	"errors"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"go.uber.org/zap"

	"github.com/deskops/sla-service/internal/observability"
	apperrors "github.com/deskops/sla-service/pkg/util/errorutil"
)

// RegisterMiddlewares attaches global middlewares such as error handling and logging.
func RegisterMiddlewares(app *fiber.App, logger *zap.Logger, metrics *observability.Metrics, timeout time.Duration) {
	if timeout > 0 {
		app.Use(requestTimeoutMiddleware(timeout))
	}
	app.Use(errorHandlingMiddleware(logger, metrics))
	app.Use(observability.RequestLogger(logger, metrics))
}

func requestTimeoutMiddleware(timeout time.Duration) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), timeout)
		defer cancel()
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// errorHandlingMiddleware renders every error as {"error":{code,message,details}}.
// Errors raised by fiber itself, such as unmatched routes, keep their status.
func errorHandlingMiddleware(logger *zap.Logger, metrics *observability.Metrics) fiber.Handler {
	return func(c *fiber.Ctx) (err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered",
					zap.String("request_id", observability.RequestID(c)),
					zap.Any("panic", r),
					zap.ByteString("stack", debug.Stack()))
				err = apperrors.NewInternalError(nil)
			}
			if err == nil {
				return
			}

			domainErr := toDomainError(err)
			if metrics != nil {
				metrics.RecordError(observability.RouteLabel(c), c.Method(), domainErr.Code)
			}
			response := fiber.Map{"error": fiber.Map{
				"code":    domainErr.Code,
				"message": domainErr.Message,
			}}
			if len(domainErr.Details) > 0 {
				response["error"].(fiber.Map)["details"] = domainErr.Details
			}
			if domainErr.HTTPStatus >= 500 {
				logger.Error("request failed",
					zap.String("request_id", observability.RequestID(c)),
					zap.String("path", c.Path()),
					zap.Error(domainErr))
			}
			c.Status(domainErr.HTTPStatus)
			_ = c.JSON(response)
			err = nil
		}()
		return c.Next()
	}
}

func toDomainError(err error) *apperrors.DomainError {
	var fiberErr *fiber.Error
	if !errors.As(err, &fiberErr) {
		return apperrors.ToDomainError(err)
	}
	switch fiberErr.Code {
	case fiber.StatusNotFound:
		return apperrors.NewDomainError("NOT_FOUND", "route not found", fiberErr.Code, nil)
	case fiber.StatusMethodNotAllowed:
		return apperrors.NewDomainError("METHOD_NOT_ALLOWED", "method not allowed", fiberErr.Code, nil)
	case fiber.StatusRequestEntityTooLarge:
		return apperrors.NewDomainError("PAYLOAD_TOO_LARGE", "request body too large", fiberErr.Code, nil)
	}
	if fiberErr.Code >= fiber.StatusInternalServerError {
		return apperrors.ToDomainError(apperrors.NewInternalError(err))
	}
	code := strings.ToUpper(strings.ReplaceAll(utils.StatusMessage(fiberErr.Code), " ", "_"))
	if code == "" {
		code = "BAD_REQUEST"
	}
	return apperrors.NewDomainError(code, fiberErr.Message, fiberErr.Code, nil)
}

package http

import (
	"errors"

	"github.com/bidstation/engine/internal/auction/domain"
	"github.com/bidstation/engine/internal/shared/logger"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

var log = logger.GetLogger()

// respondError maps the domain error taxonomy onto HTTP statuses:
// 400 validation, 403 authorization, 404 not found, 409 wrong state or
// stale bid (with the authoritative current price), 500 anything else.
func respondError(c *fiber.Ctx, err error) error {
	var validationErr *domain.ValidationError
	var stateErr *domain.InvalidStateError
	var staleErr *domain.StaleBidError

	switch {
	case errors.As(err, &validationErr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": validationErr.Error()})

	case errors.Is(err, domain.ErrNotAuthorized):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": err.Error()})

	case errors.Is(err, domain.ErrAuctionNotFound),
		errors.Is(err, domain.ErrLotNotFound),
		errors.Is(err, domain.ErrBidderNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})

	case errors.As(err, &stateErr):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": stateErr.Error(),
			"state": stateErr.State,
		})

	case errors.As(err, &staleErr):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":         staleErr.Error(),
			"current_price": staleErr.CurrentPrice.StringFixed(2),
			"min_increment": staleErr.MinIncrement.StringFixed(2),
		})

	default:
		log.Error("request failed", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
}

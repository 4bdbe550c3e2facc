package api

import (
	"errors"
	"log"
	"strings"

	"github.com/example/pos-billing/modules/auth"
	"github.com/example/pos-billing/modules/billing"
	"github.com/example/pos-billing/modules/inventory"
	"github.com/example/pos-billing/modules/sales"
	"github.com/gofiber/fiber/v2"
)

type errorMapping struct {
	target error
	status int
	code   string
}

// errorMappings is checked in order; the first errors.Is match wins.
var errorMappings = []errorMapping{
	{billing.ErrEmptyCart, fiber.StatusBadRequest, "empty_cart"},
	{billing.ErrInvalidCart, fiber.StatusBadRequest, "invalid_cart"},
	{billing.ErrProductNotFound, fiber.StatusNotFound, "product_not_found"},
	{billing.ErrInvoiceNotFound, fiber.StatusNotFound, "invoice_not_found"},
	{billing.ErrAlreadyProcessed, fiber.StatusConflict, "already_processed"},
	{billing.ErrStoreFailure, fiber.StatusInternalServerError, "store_failure"},

	{inventory.ErrInvalidProduct, fiber.StatusBadRequest, "invalid_product"},
	{inventory.ErrProductNotFound, fiber.StatusNotFound, "product_not_found"},
	{inventory.ErrVersionConflict, fiber.StatusConflict, "version_conflict"},
	{inventory.ErrProductReferenced, fiber.StatusConflict, "product_referenced"},

	{sales.ErrInvalidFilter, fiber.StatusBadRequest, "invalid_filter"},
	{sales.ErrInvoiceNotFound, fiber.StatusNotFound, "invoice_not_found"},

	{auth.ErrInvalidCredentials, fiber.StatusUnauthorized, "unauthorized"},
	{auth.ErrExpiredToken, fiber.StatusUnauthorized, "unauthorized"},
	{auth.ErrInvalidToken, fiber.StatusUnauthorized, "unauthorized"},
	{auth.ErrUserExists, fiber.StatusConflict, "conflict"},
	{auth.ErrUserNotFound, fiber.StatusNotFound, "user_not_found"},
	{auth.ErrInvalidName, fiber.StatusBadRequest, "bad_request"},
	{auth.ErrInvalidEmail, fiber.StatusBadRequest, "bad_request"},
	{auth.ErrWeakPassword, fiber.StatusBadRequest, "bad_request"},
	{auth.ErrPasswordTooLong, fiber.StatusBadRequest, "bad_request"},
}

// writeError maps a module error to its HTTP response without exposing internals.
func writeError(c *fiber.Ctx, err error) error {
	var stockErr *billing.InsufficientStockError
	if errors.As(err, &stockErr) {
		return c.Status(fiber.StatusConflict).JSON(ErrorResponse{
			Error:   "insufficient_stock",
			Message: stockErr.Error(),
			Details: StockShortage{
				ProductID: stockErr.ProductID,
				Product:   stockErr.Product,
				Requested: stockErr.Requested,
				Available: stockErr.Available,
			},
		})
	}

	for _, m := range errorMappings {
		if !errors.Is(err, m.target) {
			continue
		}
		message := m.target.Error()
		if m.status < fiber.StatusInternalServerError {
			message = clientMessage(err)
		} else {
			log.Printf("[api] Store error: %v", err)
		}
		return c.Status(m.status).JSON(ErrorResponse{
			Error:   m.code,
			Message: message,
		})
	}

	log.Printf("[api] Internal error: %v", err)
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred",
	})
}

// clientMessage drops the adapter call prefix from err.
func clientMessage(err error) string {
	msg := err.Error()
	if i := strings.LastIndex(msg, "failed: "); i >= 0 {
		msg = msg[i+len("failed: "):]
	}
	return msg
}

// badRequest writes a 400 with message.
func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Error:   "bad_request",
		Message: message,
	})
}

// customErrorHandler handles Fiber errors.
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
		message = e.Message
	} else {
		log.Printf("[api] Unhandled error: %v", err)
	}

	return c.Status(code).JSON(ErrorResponse{
		Error:   statusCode(code),
		Message: message,
	})
}

func statusCode(status int) string {
	switch status {
	case fiber.StatusBadRequest:
		return "bad_request"
	case fiber.StatusUnauthorized:
		return "unauthorized"
	case fiber.StatusForbidden:
		return "forbidden"
	case fiber.StatusNotFound:
		return "not_found"
	case fiber.StatusMethodNotAllowed:
		return "method_not_allowed"
	default:
		return "server_error"
	}
}

package apperr

import (
	"errors"
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"
)

// Hata kodları: UI tarafının kategori ayırt edebilmesi için kısa ve sabit.
const (
	CodeNotAuthenticated    = "not_authenticated"
	CodeForbidden           = "forbidden"
	CodeValidation          = "validation_error"
	CodeNotFound            = "not_found"
	CodeInsufficientBalance = "insufficient_balance"
	CodeInvalidState        = "invalid_state"
	CodeExpired             = "expired"
	CodeNoEligibleOrder     = "no_eligible_order"
	CodeStorageUnavailable  = "storage_unavailable"
	CodeInternal            = "internal_error"
)

type Error struct {
	Code    string
	Status  int
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NotAuthenticated(msg string) *Error {
	return &Error{Code: CodeNotAuthenticated, Status: fiber.StatusUnauthorized, Message: msg}
}

func Forbidden(msg string) *Error {
	return &Error{Code: CodeForbidden, Status: fiber.StatusForbidden, Message: msg}
}

func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Status: fiber.StatusBadRequest, Message: msg}
}

func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Status: fiber.StatusNotFound, Message: msg}
}

func InsufficientBalance() *Error {
	return &Error{Code: CodeInsufficientBalance, Status: fiber.StatusPaymentRequired, Message: "Yetersiz bakiye"}
}

func InvalidState(msg string) *Error {
	return &Error{Code: CodeInvalidState, Status: fiber.StatusConflict, Message: msg}
}

func Expired(msg string) *Error {
	return &Error{Code: CodeExpired, Status: fiber.StatusGone, Message: msg}
}

func NoEligibleOrder() *Error {
	return &Error{Code: CodeNoEligibleOrder, Status: fiber.StatusNotFound, Message: "Hazırlanacak uygun sipariş yok"}
}

func Storage(msg string) *Error {
	return &Error{Code: CodeStorageUnavailable, Status: fiber.StatusServiceUnavailable, Message: msg}
}

// FiberErrorHandler: tüm hataları {ok:false, error, message} zarfına çevirir.
func FiberErrorHandler(c *fiber.Ctx, err error) error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return c.Status(appErr.Status).JSON(fiber.Map{
			"ok":      false,
			"error":   appErr.Code,
			"message": appErr.Message,
		})
	}
	if e, ok := err.(*fiber.Error); ok {
		return c.Status(e.Code).JSON(fiber.Map{
			"ok":      false,
			"error":   CodeForStatus(e.Code),
			"message": e.Message,
		})
	}
	log.Println("Beklenmeyen hata:", err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"ok":      false,
		"error":   CodeInternal,
		"message": "Beklenmeyen sunucu hatası",
	})
}

// CodeForStatus: fiber.NewError ile üretilen hatalara envelope kodu eşler.
func CodeForStatus(status int) string {
	switch status {
	case fiber.StatusUnauthorized:
		return CodeNotAuthenticated
	case fiber.StatusForbidden:
		return CodeForbidden
	case fiber.StatusBadRequest:
		return CodeValidation
	case fiber.StatusNotFound:
		return CodeNotFound
	case fiber.StatusPaymentRequired:
		return CodeInsufficientBalance
	case fiber.StatusConflict:
		return CodeInvalidState
	case fiber.StatusGone:
		return CodeExpired
	case fiber.StatusServiceUnavailable:
		return CodeStorageUnavailable
	default:
		return CodeInternal
	}
}

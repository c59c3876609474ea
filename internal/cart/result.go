package cart

import (
	"fmt"

	"github.com/safar/agrocart/internal/notify"
)

type Code string

const (
	CodeOK                Code = "OK"
	CodeInvalidProduct    Code = "INVALID_PRODUCT"
	CodeInvalidQuantity   Code = "INVALID_QUANTITY"
	CodeInsufficientStock Code = "INSUFFICIENT_STOCK"
	CodeMaxQuantity       Code = "MAX_QUANTITY"
	CodeNotInCart         Code = "NOT_IN_CART"
	CodeInternal          Code = "INTERNAL"
)

const (
	MsgInvalidProduct        = "Invalid product data"
	MsgInvalidProductID      = "Invalid product ID"
	MsgInvalidQuantity       = "Invalid quantity"
	MsgInvalidQuantityOrID   = "Invalid quantity or product ID"
	MsgInsufficientStock     = "Sorry, not enough stock available"
	MsgNotInCart             = "Product not found in cart"
	MsgSaveFailed            = "Failed to save cart. Please try again."
	MsgCartCleared           = "Cart cleared"
	MsgAddFailed             = "Failed to add to cart. Please try again."
	MsgRemoveFailed          = "Failed to remove item. Please try again."
	MsgUpdateFailed          = "Failed to update quantity. Please try again."
	MsgClearFailed           = "Failed to clear cart. Please try again."
	msgMaxQuantityFormat     = "Maximum quantity per item is %d"
	msgAddedFormat           = "Added to cart: %s"
	msgUpdatedInCartFormat   = "Updated quantity in cart: %s"
	msgUpdatedQuantityFormat = "Updated quantity for %s"
	msgRemovedFromCartFormat = "Removed from cart: %s"
)

// Result is the outcome of a cart operation. Expected refusals are results,
// not errors.
type Result struct {
	OK      bool   `json:"ok"`
	Code    Code   `json:"code"`
	Message string `json:"message,omitempty"`

	level notify.Level
	// unchanged results leave the cart as it was and skip persistence.
	unchanged bool
}

func succeeded(format string, args ...any) Result {
	return Result{OK: true, Code: CodeOK, Message: fmt.Sprintf(format, args...), level: notify.LevelSuccess}
}

func informed(format string, args ...any) Result {
	return Result{OK: true, Code: CodeOK, Message: fmt.Sprintf(format, args...), level: notify.LevelInfo}
}

func failed(code Code, msg string) Result {
	return Result{OK: false, Code: code, Message: msg, level: notify.LevelError}
}

func maxQuantityExceeded(max int) Result {
	return failed(CodeMaxQuantity, fmt.Sprintf(msgMaxQuantityFormat, max))
}

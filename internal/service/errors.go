package service

import "errors"

// 业务哨兵错误，供 handler 层通过 errors.Is 映射响应码与提示语
var (
	ErrCartNotFound     = errors.New("cart not found")
	ErrCartItemNotFound = errors.New("cart item not found")
	ErrInvalidCartItem  = errors.New("cart item invalid")

	ErrInvalidCustomer  = errors.New("customer info invalid")
	ErrInvalidOrderItem = errors.New("order item invalid")

	ErrOrderNotFound     = errors.New("order not found")
	ErrOrderFetchFailed  = errors.New("order fetch failed")
	ErrOrderCreateFailed = errors.New("order create failed")
	ErrOrderUpdateFailed = errors.New("order update failed")

	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrSignatureInvalid   = errors.New("payment signature invalid")
	ErrPaymentInvalid     = errors.New("payment params invalid")
	ErrPaymentFailed      = errors.New("payment failed")
	ErrPaymentNotCaptured = errors.New("payment not captured")

	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrInvalidEmail              = errors.New("email invalid")
	ErrEmailServiceDisabled      = errors.New("email service disabled")
	ErrEmailServiceNotConfigured = errors.New("email service not configured")

	ErrCaptchaRequired      = errors.New("captcha required")
	ErrCaptchaInvalid       = errors.New("captcha invalid")
	ErrCaptchaConfigInvalid = errors.New("captcha config invalid")
)

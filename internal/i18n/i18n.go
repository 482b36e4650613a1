package i18n

import (
	"fmt"
	"strings"

	"github.com/bakehouse-api/internal/constants"
)

// 支持的语言环境
const (
	LocaleEN = constants.LocaleEnUS
)

var messages = map[string]map[string]string{
	LocaleEN: {
		"email.order_paid.subject":       "Your Bakehouse order %s is confirmed",
		"email.order_paid.admin_subject": "New paid order %s",
		"email.order_paid.intro":         "Hi %s, thank you for your order! Your payment has been received.",
		"email.order_paid.admin_intro":   "A new order has been paid.\nCustomer: %s\nEmail: %s\nPhone: %s",
		"email.order_paid.summary":       "Order %s\nTotal: %s %s\nItems:",
		"email.order_paid.address":       "Delivery address: %s",
		"email.order_paid.outro":         "We will start preparing your order right away. See you soon at The Bakehouse!",

		"error.invalid_params":         "invalid request parameters",
		"error.unauthorized":           "unauthorized",
		"error.invalid_credentials":    "invalid username or password",
		"error.rate_limited":           "too many requests, please try again later",
		"error.internal":               "internal server error",
		"error.cart_not_found":         "cart not found",
		"error.cart_item_not_found":    "cart item not found",
		"error.cart_item_invalid":      "cart item invalid",
		"error.customer_invalid":       "customer information invalid",
		"error.order_item_invalid":     "order item invalid",
		"error.order_not_found":        "order not found",
		"error.order_fetch_failed":     "failed to load order",
		"error.order_create_failed":    "failed to create order",
		"error.order_update_failed":    "failed to update order",
		"error.gateway_unavailable":    "payment gateway unavailable",
		"error.signature_invalid":      "payment signature verification failed",
		"error.payment_invalid":        "payment parameters invalid",
		"error.payment_failed":         "payment failed",
		"error.payment_not_captured":   "payment not captured yet",
		"error.email_invalid":          "email address invalid",
		"error.captcha_required":       "captcha required",
		"error.captcha_invalid":        "captcha verification failed",
		"error.captcha_config_invalid": "captcha is not available",
		"error.admin_id_invalid":       "admin identity invalid",
		"error.admin_id_type_invalid":  "admin identity malformed",
	},
}

// ResolveLocale 归一化语言环境，未知时回退到英文
func ResolveLocale(locale string) string {
	l := strings.ToLower(strings.TrimSpace(locale))
	for _, supported := range constants.SupportedLocales {
		if l == strings.ToLower(supported) {
			return supported
		}
	}
	if strings.HasPrefix(l, "en") {
		return LocaleEN
	}
	return LocaleEN
}

// T 查找文案，缺失时原样返回 key
func T(locale, key string) string {
	table, ok := messages[ResolveLocale(locale)]
	if !ok {
		table = messages[LocaleEN]
	}
	if msg, ok := table[key]; ok {
		return msg
	}
	if msg, ok := messages[LocaleEN][key]; ok {
		return msg
	}
	return key
}

// Sprintf 查找文案并格式化
func Sprintf(locale, key string, args ...interface{}) string {
	format := T(locale, key)
	if format == key {
		return key
	}
	return fmt.Sprintf(format, args...)
}

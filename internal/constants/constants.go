package constants

// 订单支付状态常量
const (
	PaymentStatusPending = "pending"
	PaymentStatusPaid    = "paid"
	PaymentStatusFailed  = "failed"
)

// 网关支付状态常量（Razorpay 语义）
const (
	GatewayPaymentCaptured = "captured"
	GatewayPaymentFailed   = "failed"
)

// 网关默认参数常量
const (
	GatewayCurrencyDefault = "INR"
	GatewayReceiptPrefix   = "rcpt_"
	CustomerCountryDefault = "India"
	MinorUnitsPerMajorUnit = 100
)

// 访客身份常量
const (
	VisitorCookieNameDefault = "bh_uuid"
	VisitorTokenHeader       = "X-Visitor-Token"
	VisitorCookieMaxAgeDays  = 30
)

// 队列常量
const (
	QueueDefault       = "default"
	TaskOrderPaidEmail = "order:paid_email"
)

// 缓存默认配置常量
const (
	RedisPrefixDefault = "bh"
)

// 验证码提供方常量
const (
	CaptchaProviderNone  = "none"
	CaptchaProviderImage = "image"
)

// 验证码校验场景常量
const (
	CaptchaSceneCheckout = "checkout"
)

// 站点语言常量
const (
	LocaleEnUS = "en-US"
)

// 支持的站点语言顺序（含回退顺序）
var SupportedLocales = []string{LocaleEnUS}

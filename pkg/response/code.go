package response

// Business status codes, grouped per module.
const (
	CodeSuccess = 0
	CodeError   = 1

	// User module 100xx
	ErrUserExists   = 10001
	ErrUserNotFound = 10002
	ErrAuthFailed   = 10003
	ErrTokenInvalid = 10004
	ErrNoPermission = 10005

	// Coupon module 200xx
	ErrCouponNotFound    = 20001
	ErrCouponSoldOut     = 20002
	ErrCouponClaimed     = 20003
	ErrCouponInvalid     = 20004
	ErrCouponAlreadyUsed = 20005

	// Order module 300xx
	ErrOrderNotFound     = 30001
	ErrOrderState        = 30002
	ErrOrderNotOwned     = 30003
	ErrOrderHasPayment   = 30004
	ErrOrderNotCompleted = 30005

	// Candidate / results module 400xx
	ErrCandidateNotFound  = 40001
	ErrServiceNotAssigned = 40002
	ErrResultNotFound     = 40003

	// Payment module 450xx
	ErrPaymentNotFound = 45001
	ErrPaymentState    = 45002

	// Review module 460xx
	ErrReviewNotFound = 46001
	ErrReviewExists   = 46002

	// System 500xx
	ErrServerInternal  = 50001
	ErrInvalidParam    = 50002
	ErrTooManyRequests = 50003
)

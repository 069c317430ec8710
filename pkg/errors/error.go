package errors

// ErrorCode represents a specific error code in the system.
type ErrorCode string

const (
	// GeneralInternalServerError represents a generic internal server error.
	GeneralInternalServerError ErrorCode = "general_internal_server_error"
	// GeneralBadRequestError represents a generic bad request error.
	GeneralBadRequestError ErrorCode = "general_bad_request_error"
	// GeneralNotFoundError represents a generic not found error.
	GeneralNotFoundError ErrorCode = "general_not_found_error"

	// DuplicateOrderError represents an attempt to add an order id that already rests in a book.
	DuplicateOrderError ErrorCode = "duplicate_order"
	// SymbolMismatchError represents an order routed to a book of a different symbol.
	SymbolMismatchError ErrorCode = "symbol_mismatch"
	// InactiveOrderError represents an attempt to add a terminal (filled/cancelled) order to a book.
	InactiveOrderError ErrorCode = "inactive_order"
	// CurrencyMismatchError represents a price whose currency differs from the book's quote currency.
	CurrencyMismatchError ErrorCode = "currency_mismatch"
	// InvalidDepthError represents a market depth query with a non-positive level count.
	InvalidDepthError ErrorCode = "invalid_depth"

	// RedisConfigError represents an error when the Redis configuration is invalid or nil.
	RedisConfigError ErrorCode = "redis_config_error"
	// RedisConnectionError represents an error when connecting to Redis.
	RedisConnectionError ErrorCode = "redis_connection_error"
	// RedisDisconnectionError represents an error when disconnecting from Redis.
	RedisDisconnectionError ErrorCode = "redis_disconnection_error"
	// RedisPingError represents an error when pinging Redis.
	RedisPingError ErrorCode = "redis_pinging_error"
	// RedisGetError represents an error when getting a value from Redis.
	RedisGetError ErrorCode = "redis_get_error"
	// RedisSetError represents an error when setting a value in Redis.
	RedisSetError ErrorCode = "redis_set_error"
	// RedisSetNXError represents an error when setting a value in Redis with SetNX.
	RedisSetNXError ErrorCode = "redis_setnx_error"
	// RedisDelError represents an error when deleting a value from Redis.
	RedisDelError ErrorCode = "redis_del_error"
)

package constants

type ContextKey string

const (
	PoolKey      ContextKey = "pool"
	TxKey        ContextKey = "tx"
	LoggerKey    ContextKey = "logger"
	SessionKey   ContextKey = "session"
	RequestStart ContextKey = "request-start"
)

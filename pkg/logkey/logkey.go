package logkey

// Keys shared by every structured log line so traces can be joined across handlers.
const (
	TraceID  = "TRACE ID"
	ERROR    = "ERROR"
	CartID   = "CartID"
	OrderID  = "OrderID"
	UserID   = "UserID"
	Listener = "Listener"
)

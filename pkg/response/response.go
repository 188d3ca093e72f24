package response

type APIResponseCode int

const (
	APIResponseCodeOK         APIResponseCode = 0
	APIResponseCodeBadRequest APIResponseCode = 40000
	APIResponseCodeError      APIResponseCode = 50000
)

var codeToMsg = map[APIResponseCode]string{
	APIResponseCodeOK:         "ok",
	APIResponseCodeBadRequest: "unexpected error",
}

// APIResponse is the generic response envelope used by internal HTTP APIs.
// Use OKT / ErrorT helpers to construct instances.
type APIResponse[T any] struct {
	Code    APIResponseCode `json:"code"`
	Message string          `json:"message"`
	Data    T               `json:"data"`
}

// OKT returns a successful response with data.
func OKT[T any](data T) *APIResponse[T] {
	return &APIResponse[T]{Code: APIResponseCodeOK, Message: codeToMsg[APIResponseCodeOK], Data: data}
}

// ErrorT returns an error response with message and optional data.
func ErrorT[T any](code APIResponseCode, data T) *APIResponse[T] {
	return &APIResponse[T]{Code: code, Message: codeToMsg[code], Data: data}
}

// WebhookAck is the body billing providers receive for accepted deliveries.
// Unknown event types are still acked with received=true so the provider
// stops redelivering them.
type WebhookAck struct {
	Received         bool   `json:"received"`
	EventType        string `json:"event_type"`
	ProcessingTimeMs int64  `json:"processing_time_ms"`
}

// WebhookError is the body returned when handling failed and the provider
// should retry (HTTP 500), or when signature verification failed (HTTP 400).
type WebhookError struct {
	Error            string `json:"error"`
	EventType        string `json:"event_type,omitempty"`
	ProcessingTimeMs int64  `json:"processing_time_ms"`
}

func Ack(eventType string, elapsedMs int64) *WebhookAck {
	return &WebhookAck{Received: true, EventType: eventType, ProcessingTimeMs: elapsedMs}
}

func AckError(err error, eventType string, elapsedMs int64) *WebhookError {
	return &WebhookError{Error: err.Error(), EventType: eventType, ProcessingTimeMs: elapsedMs}
}

package constants

const (
	ContextRequestIdKey = "request_id" // generated per request in the logging middleware

	HeaderXRequestID = "X-Request-ID"
)

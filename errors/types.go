package errors

// HTTP flavoured constructors. The numeric code doubles as the HTTP status
// the transport layer answers with.

func BadRequest(format string, args ...any) *Error {
	return New(400, format, args...)
}

func Unauthorized(format string, args ...any) *Error {
	return New(401, format, args...)
}

func NotFound(format string, args ...any) *Error {
	return New(404, format, args...)
}

func Conflict(format string, args ...any) *Error {
	return New(409, format, args...)
}

func UnprocessableEntity(format string, args ...any) *Error {
	return New(422, format, args...)
}

func Internal(format string, args ...any) *Error {
	return New(500, format, args...)
}

func ServiceUnavailable(format string, args ...any) *Error {
	return New(503, format, args...)
}

// IsNotFound reports whether any error in the chain carries code 404.
func IsNotFound(err error) bool {
	return err != nil && Code(err) == 404
}

// IsClientError reports whether the first structured error in the chain
// carries a 4xx code.
func IsClientError(err error) bool {
	if err == nil {
		return false
	}
	code := Code(err)
	return code >= 400 && code < 500
}

// Package errors carries an HTTP status code alongside an error message
// so storage and service layers can decide the response code without
// importing net/http handler logic.
package errors

// default error is internal service error at handler level
// if error has different status code use ErrorWithStatusCode
type ErrorWithStatusCode struct {
	Message    string
	StatusCode int
}

func (e *ErrorWithStatusCode) Error() string {
	return e.Message
}

package request

import (
	"errors"
	"net/http"
)

// ErrInternalServer is the message returned to clients on unexpected
// failures.
var ErrInternalServer = errors.New("internal server error")

// ClientWriter wraps a ResponseWriter and records the status code written to
// it, as the standard writer does not expose it afterwards.
type ClientWriter struct {
	http.ResponseWriter

	statusCode int
}

// NewClientWriter wraps the given writer.
func NewClientWriter(w http.ResponseWriter) *ClientWriter {
	return &ClientWriter{
		ResponseWriter: w,
	}
}

func (w *ClientWriter) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *ClientWriter) Write(b []byte) (int, error) {
	if w.statusCode == 0 {
		// An implicit write before WriteHeader is a 200.
		w.statusCode = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

// StatusCode returns the status code written to the response, or 200 when
// none has been written yet.
func (w *ClientWriter) StatusCode() int {
	if w.statusCode == 0 {
		return http.StatusOK
	}
	return w.statusCode
}

package middleware

import (
	"io"
	"net/http"
)

// BodyLimit caps how much of the request body downstream handlers can read at
// maxBytes+1, so oversize payloads are still detectable without buffering them.
func BodyLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if maxBytes <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = limitedBody{Reader: io.LimitReader(r.Body, maxBytes+1), Closer: r.Body}
			}
			next.ServeHTTP(w, r)
		})
	}
}

type limitedBody struct {
	io.Reader
	io.Closer
}

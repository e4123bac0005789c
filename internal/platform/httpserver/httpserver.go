package httpserver

import (
	"net/http"
	"time"
)

// New builds an HTTP server with the timeouts used by the API.
// WriteTimeout leaves room for a full Horizon scan under the external timeout.
func New(addr string, handler http.Handler, externalTimeout time.Duration) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      externalTimeout + 15*time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

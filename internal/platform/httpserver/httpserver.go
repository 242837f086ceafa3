package httpserver

import (
	"context"
	"net/http"
	"time"
)

// ShutdownTimeout bounds graceful shutdown. Open bind streams are cut
// off when it elapses.
const ShutdownTimeout = 10 * time.Second

// New builds the API server. WriteTimeout stays unset: the account
// bind stream holds its response open for the whole polling budget, up
// to fifteen minutes.
func New(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
}

// Shutdown drains in-flight requests, waiting at most ShutdownTimeout.
func Shutdown(srv *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(ctx)
}

package main

import (
	"context"
	"net"
	"net/http"
)

// newHTTPServer derives every request context from base. Cancelling base on
// shutdown tells a running scan to stop scheduling vehicles and answer with
// its partial summary, which Shutdown then waits for.
func newHTTPServer(addr string, handler http.Handler, base context.Context) *http.Server {
	return &http.Server{
		Addr:        addr,
		Handler:     handler,
		BaseContext: func(net.Listener) context.Context { return base },
	}
}

// Package health serves the container liveness endpoint.
package health

import (
	"fmt"
	"net/http"

	"github.com/gdrive-assistant/gdrive-assistant/internal/logging"
)

// Handler answers 200 on /health and /healthz and 404 elsewhere.
func Handler() http.Handler {
	mux := http.NewServeMux()
	ok := func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	}
	mux.HandleFunc("/health", ok)
	mux.HandleFunc("/healthz", ok)
	return mux
}

// Start serves the health endpoint in the background. A port <= 0 disables
// the server. Serve errors only terminate the endpoint, never the daemon.
func Start(host string, port int, component string) {
	if port <= 0 {
		return
	}

	addr := fmt.Sprintf("%s:%d", host, port)
	srv := &http.Server{Addr: addr, Handler: Handler()}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Error("health_server_failed", component, "health", err, logging.Meta{"addr": addr})
		}
	}()

	logging.Info("health_server_started", component, "health", logging.Meta{"addr": addr})
}

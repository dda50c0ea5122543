package server

import (
	_ "embed"
	"log/slog"
	"net/http"
)

//go:embed ui/index.html
var indexHTML []byte

// Index serves the embedded web control panel.
func (h *Handlers) Index(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(indexHTML); err != nil {
		h.logger.Warn("failed to write index page",
			slog.String("error", err.Error()),
		)
	}
}

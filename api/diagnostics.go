package api

import (
	"net/http"

	"github.com/firebase/genkit/go/genkit"

	"github.com/steelhand/steelhand/internal/diagnostics"
	"github.com/steelhand/steelhand/internal/log"
)

// DiagnosticsHandler serves the equipment diagnostics endpoint.
type DiagnosticsHandler struct {
	flow   *diagnostics.Flow
	logger log.Logger
}

func NewDiagnosticsHandler(flow *diagnostics.Flow, logger log.Logger) *DiagnosticsHandler {
	return &DiagnosticsHandler{flow: flow, logger: logger}
}

func (h *DiagnosticsHandler) RegisterRoutes(mux *http.ServeMux) {
	if h.flow == nil {
		if h.logger != nil {
			h.logger.Warn("diagnostics flow is nil, diagnostics endpoint not registered")
		}
		return
	}
	mux.Handle("POST /api/diagnostics", genkit.Handler(h.flow))
}

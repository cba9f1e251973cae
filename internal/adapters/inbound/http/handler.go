// handler.go provides the JSON API over the contract prober.
package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/archon-research/contract-probe/internal/domain/entity"
	"github.com/archon-research/contract-probe/internal/ports/inbound"
)

// maxBodyBytes bounds POST bodies.
const maxBodyBytes = 1 << 20

// Handler implements the API routes.
type Handler struct {
	prober         inbound.ContractProber
	defaultAddress string
	logger         *slog.Logger
}

// NewHandler creates a new API handler. defaultAddress is used when a
// request omits the address.
func NewHandler(prober inbound.ContractProber, defaultAddress string, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		prober:         prober,
		defaultAddress: defaultAddress,
		logger:         logger.With("component", "api"),
	}
}

// RegisterRoutes registers the API routes with the given mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/health", h.Health)
	mux.HandleFunc("GET /api/contract/info", h.Info)
	mux.HandleFunc("GET /api/contract/methods", h.Methods)
	mux.HandleFunc("GET /api/contract/report", h.Report)
	mux.HandleFunc("POST /api/contract/call", h.Call)
}

type methodsResponse struct {
	Address string               `json:"address"`
	Methods []entity.ProbeResult `json:"methods"`
}

type reportResponse struct {
	Endpoint string               `json:"endpoint"`
	Info     entity.ContractInfo  `json:"info"`
	Methods  []entity.ProbeResult `json:"methods"`
	Working  int                  `json:"working"`
}

type callRequest struct {
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	Address string            `json:"address"`
}

// Health reports that the process is serving.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(h.logger, w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Info returns the account-level facts for ?address=.
func (h *Handler) Info(w http.ResponseWriter, r *http.Request) {
	info, err := h.prober.Info(r.Context(), h.address(r.URL.Query().Get("address")))
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(h.logger, w, http.StatusOK, info)
}

// Methods probes every catalog entry on ?address=.
func (h *Handler) Methods(w http.ResponseWriter, r *http.Request) {
	address := h.address(r.URL.Query().Get("address"))
	results, err := h.prober.Methods(r.Context(), address)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(h.logger, w, http.StatusOK, methodsResponse{
		Address: address,
		Methods: results,
	})
}

// Report returns facts and probe results, or 404 when ?address= has no code.
func (h *Handler) Report(w http.ResponseWriter, r *http.Request) {
	report, err := h.prober.Report(r.Context(), h.address(r.URL.Query().Get("address")))
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(h.logger, w, http.StatusOK, reportResponse{
		Endpoint: report.Endpoint,
		Info:     report.Info,
		Methods:  report.Methods,
		Working:  len(report.Working()),
	})
}

// Call runs {method, params, address?} with a computed selector.
func (h *Handler) Call(w http.ResponseWriter, r *http.Request) {
	var req callRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		h.respondStatus(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err))
		return
	}
	if strings.TrimSpace(req.Method) == "" {
		h.respondStatus(w, http.StatusBadRequest, "method is required")
		return
	}
	params, err := stringParams(req.Params)
	if err != nil {
		h.respondStatus(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.prober.CallWithComputedSelector(r.Context(), h.address(req.Address), req.Method, params)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondJSON(h.logger, w, http.StatusOK, result)
}

func (h *Handler) address(requested string) string {
	if requested = strings.TrimSpace(requested); requested != "" {
		return requested
	}
	return h.defaultAddress
}

// stringParams accepts JSON strings and numbers. Numbers keep their literal
// text so large integers are not rounded through float64.
func stringParams(raw []json.RawMessage) ([]string, error) {
	params := make([]string, 0, len(raw))
	for i, p := range raw {
		var s string
		if err := json.Unmarshal(p, &s); err == nil {
			params = append(params, s)
			continue
		}
		var n json.Number
		if err := json.Unmarshal(p, &n); err == nil {
			params = append(params, n.String())
			continue
		}
		return nil, fmt.Errorf("param %d must be a string or a number", i)
	}
	return params, nil
}

// statusFor maps domain errors onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, entity.ErrInvalidAddress),
		errors.Is(err, entity.ErrInvalidCallArguments),
		errors.Is(err, entity.ErrUnsupportedParameterShape):
		return http.StatusBadRequest
	case errors.Is(err, entity.ErrNotAContract):
		return http.StatusNotFound
	case errors.Is(err, entity.ErrNoEndpointAvailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", "status", status, "error", err)
	}
	h.respondStatus(w, status, err.Error())
}

func (h *Handler) respondStatus(w http.ResponseWriter, status int, message string) {
	respondJSON(h.logger, w, status, map[string]string{"error": message})
}

func respondJSON(logger *slog.Logger, w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode JSON response", "error", err)
	}
}

package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/hazyhaar/scholar-impact/pkg/kit"
)

// maxDocumentSize caps an annotate request body.
const maxDocumentSize = 8 << 20

// NewRouter returns an http.Handler with all API routes.
func NewRouter(svc *Service) http.Handler {
	mux := http.NewServeMux()
	h := &handler{
		resolve:  svc.resolveEndpoint(),
		annotate: svc.annotateEndpoint(),
		table:    svc.tableEndpoint(),
		svc:      svc,
	}

	mux.HandleFunc("GET /v1/annotate", methodNotAllowed)
	mux.HandleFunc("POST /v1/annotate", h.handleAnnotate)
	mux.HandleFunc("GET /v1/resolve", h.handleResolve)
	mux.HandleFunc("GET /v1/table", h.handleTable)
	mux.HandleFunc("GET /v1/health", h.handleHealth)

	return cors(securityHeaders(mux))
}

type handler struct {
	resolve  kit.Endpoint
	annotate kit.Endpoint
	table    kit.Endpoint
	svc      *Service
}

// --- resolve ---

func (h *handler) handleResolve(w http.ResponseWriter, r *http.Request) {
	resp, err := h.resolve(r.Context(), &resolveReq{Label: r.URL.Query().Get("label")})
	if err != nil {
		writeEndpointError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- annotate ---

func (h *handler) handleAnnotate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxDocumentSize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "document too large")
		return
	}

	resp, err := h.annotate(r.Context(), &annotateReq{HTML: string(body)})
	if err != nil {
		writeEndpointError(w, err)
		return
	}
	out := resp.(annotateResponse)

	if r.URL.Query().Get("format") == "json" {
		writeJSON(w, http.StatusOK, out)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("X-Total-Score", strconv.FormatFloat(out.Report.Summary.Total, 'f', 2, 64))
	w.Header().Set("X-Matched-Entries", strconv.Itoa(out.Report.Summary.Matched))
	if out.OffPage {
		w.Header().Set("X-Off-Page", "true")
	}
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, out.HTML)
}

// --- table ---

func (h *handler) handleTable(w http.ResponseWriter, r *http.Request) {
	resp, err := h.table(r.Context(), nil)
	if err != nil {
		writeEndpointError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- health ---

type healthResponse struct {
	Status  string `json:"status"`
	Table   string `json:"table"`
	Entries int    `json:"entries"`
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	info := h.svc.Store.Info()
	status := "ok"
	if info.Entries == 0 {
		status = "degraded"
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Status:  status,
		Table:   info.ID,
		Entries: info.Entries,
	})
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func writeEndpointError(w http.ResponseWriter, err error) {
	if errors.Is(err, errBadRequest) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeError(w, http.StatusInternalServerError, err.Error())
}

func methodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

// securityHeaders keeps annotated pages inert when opened from the API:
// host page scripts must not run and the page must not be framed.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Content-Security-Policy", "default-src 'none'; style-src 'unsafe-inline'; img-src data:; frame-ancestors 'none'; sandbox")
		next.ServeHTTP(w, r)
	})
}

// cors is a simple CORS middleware for browser-based clients.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Expose-Headers", "X-Total-Score, X-Matched-Entries, X-Off-Page")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

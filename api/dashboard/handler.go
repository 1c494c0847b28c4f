package dashboard

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kilianp07/lineloss/pkg/export"
	"github.com/kilianp07/lineloss/pkg/report"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  int    `json:"code"`
}

// Handler exposes a Service over HTTP.
type Handler struct {
	svc *Service
}

// NewHandler returns a router serving svc. The mode defaults to the service
// setting and can be overridden per request with ?live=true|false.
func NewHandler(svc *Service) http.Handler {
	h := &Handler{svc: svc}
	r := mux.NewRouter()
	h.RegisterRoutes(r)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	return r
}

// RegisterRoutes adds the dashboard routes to router.
func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/healthz", h.health).Methods(http.MethodGet)
	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/snapshot", h.snapshot).Methods(http.MethodGet)
	api.HandleFunc("/lines/{id}", h.line).Methods(http.MethodGet)
	api.HandleFunc("/report", h.textReport).Methods(http.MethodGet)
	api.HandleFunc("/report.csv", h.csvReport).Methods(http.MethodGet)
	api.HandleFunc("/analytics", h.analytics).Methods(http.MethodGet)
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// current computes the view for r, writing the error response on failure.
func (h *Handler) current(w http.ResponseWriter, r *http.Request) (View, bool) {
	live := h.svc.UseLive()
	if q := r.URL.Query().Get("live"); q != "" {
		b, err := strconv.ParseBool(q)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid live parameter: "+q)
			return View{}, false
		}
		live = b
	}
	v, err := h.svc.Current(r.Context(), live)
	if err != nil {
		code := http.StatusInternalServerError
		if errors.Is(err, ErrNoData) {
			code = http.StatusServiceUnavailable
		}
		writeError(w, code, err.Error())
		return View{}, false
	}
	return v, true
}

func (h *Handler) snapshot(w http.ResponseWriter, r *http.Request) {
	if v, ok := h.current(w, r); ok {
		writeJSON(w, http.StatusOK, v)
	}
}

func (h *Handler) line(w http.ResponseWriter, r *http.Request) {
	v, ok := h.current(w, r)
	if !ok {
		return
	}
	id := mux.Vars(r)["id"]
	l, found := v.Snapshot.Line(id)
	if !found {
		for _, f := range v.Snapshot.Failures {
			if f.LineID == id {
				writeError(w, http.StatusUnprocessableEntity, f.Message)
				return
			}
		}
		writeError(w, http.StatusNotFound, "unknown line "+id)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

func (h *Handler) textReport(w http.ResponseWriter, r *http.Request) {
	v, ok := h.current(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_ = report.WriteSystemReport(w, v.Snapshot, v.Source, h.svc.Now())
}

func (h *Handler) csvReport(w http.ResponseWriter, r *http.Request) {
	v, ok := h.current(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="power_system_loss_report.csv"`)
	_ = export.WriteCSV(w, v.Snapshot.Lines)
}

func (h *Handler) analytics(w http.ResponseWriter, r *http.Request) {
	v, ok := h.current(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, report.Analyze(v.Snapshot, h.svc.ReportConfig()))
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, ErrorResponse{Error: msg, Code: code})
}

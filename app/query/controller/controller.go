package controller

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/solmirror/tradescope/app/query/types"
)

type Controller struct {
	App *types.App
}

// NewController returns a new controller.
func NewController(app *types.App) *Controller {
	return &Controller{
		App: app,
	}
}

// NewRouter returns a new router with all the routes defined in this file.
func (c *Controller) NewRouter() (*mux.Router, error) {
	r := mux.NewRouter()
	r.Use(c.withRequestLog)

	r.HandleFunc("/health", c.HandleHealth).Methods("GET")

	r.HandleFunc("/api/{address}/activity/{granularity}/days/{range}", c.HandleActivity).Methods("GET")

	r.HandleFunc("/api/params", c.HandleGetParams).Methods("GET")
	r.HandleFunc("/api/params", c.HandleUpdateParams).Methods("PUT")

	r.HandleFunc("/api/alerts", c.HandleAlerts).Methods("GET")
	r.HandleFunc("/api/alerts/{id}/ack", c.HandleAckAlert).Methods("POST")

	r.HandleFunc("/ws/trades", c.HandleTradesWS)

	return r, nil
}

// withRequestLog tags every request with an id and logs it at debug level.
func (c *Controller) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reqID := uuid.NewString()
		w.Header().Set("X-Request-Id", reqID)
		c.App.Logger.Debug("Request",
			zap.String("request_id", reqID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path))
		next.ServeHTTP(w, r)
	})
}

// WithCORS wraps the handler with permissive CORS headers for the frontend.
func WithCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, PUT, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// errorResponse is the uniform error body: machine-readable code plus a
// human-readable message.
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: code, Message: message})
}

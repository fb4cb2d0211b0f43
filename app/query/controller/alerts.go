package controller

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

// HandleAlerts lists alerts, newest first. Pass ?all=true to include
// acknowledged ones.
// Endpoint: GET /api/alerts
func (c *Controller) HandleAlerts(w http.ResponseWriter, r *http.Request) {
	includeAcked := r.URL.Query().Get("all") == "true"

	alerts, err := c.App.Alerts.List(r.Context(), includeAcked, 100)
	if err != nil {
		c.App.Logger.Error("List alerts failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "InternalError", "query failed")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data": alerts,
	})
}

// HandleAckAlert marks one alert acknowledged.
// Endpoint: POST /api/alerts/{id}/ack
func (c *Controller) HandleAckAlert(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "InvalidAlertID", "alert id must be a uuid")
		return
	}

	ok, err := c.App.Alerts.Acknowledge(r.Context(), id)
	if err != nil {
		c.App.Logger.Error("Acknowledge alert failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "InternalError", "update failed")
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "AlertNotFound", "no alert with that id")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "acknowledged"})
}

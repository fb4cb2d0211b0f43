package controller

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/solmirror/tradescope/pkg/db/postgres"
)

// HandleGetParams returns the current versioned trading parameters.
// Endpoint: GET /api/params
func (c *Controller) HandleGetParams(w http.ResponseWriter, r *http.Request) {
	params, err := c.App.Params.Get(r.Context())
	if err != nil {
		c.App.Logger.Error("Get trading params failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "InternalError", "query failed")
		return
	}
	writeJSON(w, http.StatusOK, params)
}

// HandleUpdateParams applies a new parameter set with optimistic concurrency:
// the submitted version must match the stored one.
// Endpoint: PUT /api/params
func (c *Controller) HandleUpdateParams(w http.ResponseWriter, r *http.Request) {
	var params postgres.TradingParams
	if err := json.NewDecoder(r.Body).Decode(&params); err != nil {
		writeError(w, http.StatusBadRequest, "InvalidBody", "invalid trading params payload")
		return
	}
	if err := params.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "InvalidParams", err.Error())
		return
	}

	updated, err := c.App.Params.Update(r.Context(), params)
	if err != nil {
		if errors.Is(err, postgres.ErrVersionConflict) {
			writeError(w, http.StatusConflict, "VersionConflict",
				"trading params were modified concurrently, re-read and retry")
			return
		}
		c.App.Logger.Error("Update trading params failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "InternalError", "update failed")
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/solmirror/tradescope/pkg/activity"
)

// HandleActivity serves the time-windowed activity aggregation.
// Endpoint: GET /api/{address}/activity/{granularity}/days/{range}
func (c *Controller) HandleActivity(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	address := vars["address"]
	granularityRaw := vars["granularity"]
	rangeRaw := vars["range"]

	granularity, err := activity.ParseGranularity(granularityRaw)
	if err != nil {
		writeActivityError(w, err)
		return
	}

	rangeDays, convErr := strconv.Atoi(rangeRaw)
	if convErr != nil {
		writeError(w, http.StatusBadRequest, string(activity.CodeInvalidRange),
			"range must be a signed integer day count")
		return
	}

	report, err := c.App.Activity.Report(r.Context(), address, granularity, rangeDays)
	if err != nil {
		status := activity.HTTPStatus(err)
		if status >= http.StatusInternalServerError {
			c.App.Logger.Error("Activity report failed",
				zap.String("address", address),
				zap.String("granularity", string(granularity)),
				zap.Int("range", rangeDays),
				zap.Error(err))
		}
		writeActivityError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, report)
}

// writeActivityError maps a domain error onto the HTTP taxonomy. Errors
// without a code collapse to a plain 500.
func writeActivityError(w http.ResponseWriter, err error) {
	status := activity.HTTPStatus(err)
	var e *activity.Error
	if !errors.As(err, &e) {
		writeError(w, status, "InternalError", "unexpected internal error")
		return
	}
	writeError(w, status, string(e.Code), e.Message)
}

package allocation

import (
	"encoding/json"
	"net/http"
	"strings"

	"SevaDeskSaas/api/constants"
)

// Handler: GetSessionRows
// Returns the session's rows in deterministic display order, optionally
// filtered and sorted server-side.
func GetSessionRows(m *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID      string    `json:"user_id"`
			SessionName string    `json:"session_name"`
			Refresh     bool      `json:"refresh"`
			Filters     *Filters  `json:"filters"`
			Sort        *SortSpec `json:"sort"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
			respondWithError(w, http.StatusBadRequest, constants.ErrInvalidJSON)
			return
		}
		if _, ok := resolveUserName(req.UserID); !ok {
			respondWithError(w, http.StatusUnauthorized, constants.ErrInvalidSession)
			return
		}
		if strings.TrimSpace(req.SessionName) == "" {
			respondWithError(w, http.StatusBadRequest, constants.ErrSessionNameRequired)
			return
		}

		var rows []SeatAllocationRow
		var err error
		if req.Refresh {
			rows, err = m.Refresh(r.Context(), req.SessionName)
		} else {
			var c *SplitController
			c, err = m.Controller(r.Context(), req.SessionName)
			if err == nil {
				rows = c.Rows()
			}
		}
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}

		if req.Filters != nil {
			rows = ApplyFilters(rows, *req.Filters)
		}
		if req.Sort != nil {
			rows = SortRows(rows, *req.Sort)
		}

		w.Header().Set(constants.HeaderContent, constants.ContentTypeJSON)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"rows":    rows,
		})
	}
}

// Handler: UpdateRowSplit
// Single-row waiting-hall edit: step (delta) or direct entry (value).
// The in-memory state updates immediately; the store write is debounced.
func UpdateRowSplit(m *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID      string `json:"user_id"`
			SessionName string `json:"session_name"`
			RowID       string `json:"row_id"`
			Action      string `json:"action"` // "step" or "set"
			Delta       int    `json:"delta"`
			Value       string `json:"value"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" || req.RowID == "" {
			respondWithError(w, http.StatusBadRequest, constants.ErrInvalidJSON)
			return
		}
		userName, ok := resolveUserName(req.UserID)
		if !ok {
			respondWithError(w, http.StatusUnauthorized, constants.ErrInvalidSession)
			return
		}

		c, err := m.Controller(r.Context(), req.SessionName)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}

		var row SeatAllocationRow
		switch req.Action {
		case "step":
			row, err = c.Step(req.RowID, req.Delta, userName)
		case "set":
			row, err = c.SetWaitingInput(req.RowID, req.Value, userName)
		default:
			respondWithError(w, http.StatusBadRequest, "action must be \"step\" or \"set\"")
			return
		}
		if err != nil {
			respondWithError(w, http.StatusNotFound, err.Error())
			return
		}

		w.Header().Set(constants.HeaderContent, constants.ContentTypeJSON)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": true,
			"row":     row,
		})
	}
}

// Handler: BulkWaitingHall
// Sets every listed row to full waiting hall or all tokens. Store writes go
// out concurrently; the outcome is reported in aggregate. In-memory values
// are not rolled back on partial failure; the operator refreshes to resync.
func BulkWaitingHall(m *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID      string   `json:"user_id"`
			SessionName string   `json:"session_name"`
			RowIDs      []string `json:"row_ids"`
			Mode        string   `json:"mode"` // "full" or "zero"
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" || len(req.RowIDs) == 0 {
			respondWithError(w, http.StatusBadRequest, constants.ErrInvalidJSON)
			return
		}
		userName, ok := resolveUserName(req.UserID)
		if !ok {
			respondWithError(w, http.StatusUnauthorized, constants.ErrInvalidSession)
			return
		}
		if req.Mode != "full" && req.Mode != "zero" {
			respondWithError(w, http.StatusBadRequest, "mode must be \"full\" or \"zero\"")
			return
		}

		c, err := m.Controller(r.Context(), req.SessionName)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}

		res := c.BulkWaiting(req.RowIDs, req.Mode == "full", userName)
		msg := ""
		if res.Failed > 0 {
			msg = constants.ErrUpdateNotSaved
		}
		w.Header().Set(constants.HeaderContent, constants.ContentTypeJSON)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": res.Failed == 0,
			"result":  res,
			"warning": msg,
		})
	}
}

// Handler: ExportSplit
// Streams the full split export CSV (master columns plus the two split
// columns) for download.
func ExportSplit(m *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID      string   `json:"user_id"`
			SessionName string   `json:"session_name"`
			Filters     *Filters `json:"filters"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
			respondWithError(w, http.StatusBadRequest, constants.ErrInvalidJSON)
			return
		}
		if _, ok := resolveUserName(req.UserID); !ok {
			respondWithError(w, http.StatusUnauthorized, constants.ErrInvalidSession)
			return
		}

		c, err := m.Controller(r.Context(), req.SessionName)
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		rows := c.Rows()
		if req.Filters != nil {
			rows = ApplyFilters(rows, *req.Filters)
		}
		if len(rows) == 0 {
			respondWithError(w, http.StatusNotFound, constants.ErrNoAllocationRows)
			return
		}

		w.Header().Set(constants.HeaderContent, constants.ContentTypeCSV)
		w.Header().Set("Content-Disposition", `attachment; filename="`+req.SessionName+`_split.csv"`)
		w.Write([]byte(ExportSplitCSV(rows)))
	}
}

// Handler: ExportMergedAudit
// Streams the latest import's merge audit report.
func ExportMergedAudit(m *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID      string `json:"user_id"`
			SessionName string `json:"session_name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
			respondWithError(w, http.StatusBadRequest, constants.ErrInvalidJSON)
			return
		}
		if _, ok := resolveUserName(req.UserID); !ok {
			respondWithError(w, http.StatusUnauthorized, constants.ErrInvalidSession)
			return
		}

		audit := m.LastAudit(req.SessionName)
		if len(audit) == 0 {
			respondWithError(w, http.StatusNotFound, "No merged rows in the latest import")
			return
		}

		w.Header().Set(constants.HeaderContent, constants.ContentTypeCSV)
		w.Header().Set("Content-Disposition", `attachment; filename="`+req.SessionName+`_merged_audit.csv"`)
		w.Write([]byte(ExportMergedAuditCSV(audit)))
	}
}

// Handler: GetLatestSession
// Reports the most recently imported session name.
func GetLatestSession(m *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID string `json:"user_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
			respondWithError(w, http.StatusBadRequest, constants.ErrInvalidJSON)
			return
		}
		if _, ok := resolveUserName(req.UserID); !ok {
			respondWithError(w, http.StatusUnauthorized, constants.ErrInvalidSession)
			return
		}

		name, err := m.Store().LatestSession(r.Context())
		if err != nil {
			respondWithError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set(constants.HeaderContent, constants.ContentTypeJSON)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":      true,
			"session_name": name,
		})
	}
}

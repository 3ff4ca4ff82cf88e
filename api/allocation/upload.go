package allocation

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"SevaDeskSaas/api/auth"
	"SevaDeskSaas/api/constants"
	"SevaDeskSaas/internal/tabular"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"
)

// decodeMasterCSV strips a UTF-8 BOM if present and runs the streaming
// decoder.
func decodeMasterCSV(data []byte) [][]string {
	return tabular.Decode(strings.TrimPrefix(string(data), "\uFEFF"))
}

func respondWithError(w http.ResponseWriter, status int, errMsg string) {
	log.Printf("[ERROR] %s", errMsg)
	w.Header().Set(constants.HeaderContent, constants.ContentTypeJSON)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error":   errMsg,
	})
}

// parseMasterFile reads an uploaded master export into rows of cells.
// CSV goes through the streaming decoder; XLSX and legacy XLS are read via
// their respective sheet readers (first sheet only).
func parseMasterFile(file multipart.File, filename string) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		data, err := io.ReadAll(file)
		if err != nil {
			return nil, err
		}
		return decodeMasterCSV(data), nil
	case ".xlsx":
		f, err := excelize.OpenReader(file)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		sheet := f.GetSheetName(0)
		if sheet == "" {
			return nil, errors.New("no worksheet found")
		}
		return f.GetRows(sheet)
	case ".xls":
		workbook, err := xls.OpenReader(file, "utf-8")
		if err != nil {
			return nil, err
		}
		if workbook.NumSheets() == 0 {
			return nil, errors.New("no worksheet found")
		}
		return workbook.ReadAllCells(100000), nil
	default:
		return nil, errors.New(constants.ErrInvalidFileFormat)
	}
}

// resolveUserName maps a user_id to the active operator session, rejecting
// requests without a live login.
func resolveUserName(userID string) (string, bool) {
	if userID == "" {
		return "", false
	}
	name := auth.UserNameByID(userID)
	return name, name != ""
}

// Handler: UploadMasterFile
// Replaces the named session's entire row set with the uploaded file's
// deduplicated content. Validation and merge failures abort before any
// store call; nothing is persisted on error.
func UploadMasterFile(m *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if err := r.ParseMultipartForm(32 << 20); err != nil {
			respondWithError(w, http.StatusBadRequest, "Failed to parse multipart form")
			return
		}

		userID := r.FormValue("user_id")
		userName, ok := resolveUserName(userID)
		if !ok {
			respondWithError(w, http.StatusUnauthorized, constants.ErrInvalidSession)
			return
		}
		sessionName := strings.TrimSpace(r.FormValue("session_name"))
		if sessionName == "" {
			respondWithError(w, http.StatusBadRequest, constants.ErrSessionNameRequired)
			return
		}

		file, header, err := r.FormFile("file")
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "No file uploaded")
			return
		}
		defer file.Close()

		cells, err := parseMasterFile(file, header.Filename)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, constants.ErrFileParsingFailed+": "+err.Error())
			return
		}

		rows, audit, warnings, err := m.Import(ctx, sessionName, header.Filename, userName, cells)
		if err != nil {
			status, msg := importErrorResponse(err)
			respondWithError(w, status, msg)
			return
		}

		w.Header().Set(constants.HeaderContent, constants.ContentTypeJSON)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":      true,
			"session_name": sessionName,
			"row_count":    len(rows),
			"merged_keys":  len(audit),
			"rows":         rows,
			"merge_audit":  audit,
			"warnings":     warnings,
		})
	}
}

// importErrorResponse maps the import error taxonomy to HTTP status and
// operator-readable message.
func importErrorResponse(err error) (int, string) {
	var malformed *MalformedInputError
	var missing *MissingColumnsError
	var integrity *MergeIntegrityError
	var persistence *PersistenceError

	switch {
	case errors.As(err, &malformed):
		return http.StatusBadRequest, err.Error()
	case errors.As(err, &missing):
		return http.StatusBadRequest, err.Error()
	case errors.As(err, &integrity):
		return http.StatusUnprocessableEntity, constants.ErrMergeAborted + ": " + err.Error()
	case errors.As(err, &persistence):
		if persistence.Op == "replace insert" {
			return http.StatusInternalServerError, constants.ErrReplacePartial
		}
		return http.StatusInternalServerError, err.Error()
	default:
		return http.StatusInternalServerError, err.Error()
	}
}

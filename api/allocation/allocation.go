package allocation

import (
	"log"
	"net/http"

	"github.com/gorilla/mux"
)

// StartAllocationService runs the allocation HTTP server. All routes are
// POST: the operator UI always sends user_id in the body.
func StartAllocationService(m *Manager, port string) {
	router := mux.NewRouter()
	router.HandleFunc("/allocation/upload", UploadMasterFile(m)).Methods("POST")
	router.HandleFunc("/allocation/rows", GetSessionRows(m)).Methods("POST")
	router.HandleFunc("/allocation/rows/split", UpdateRowSplit(m)).Methods("POST")
	router.HandleFunc("/allocation/rows/bulk-waiting", BulkWaitingHall(m)).Methods("POST")
	router.HandleFunc("/allocation/export", ExportSplit(m)).Methods("POST")
	router.HandleFunc("/allocation/export/merged", ExportMergedAudit(m)).Methods("POST")
	router.HandleFunc("/allocation/session", GetLatestSession(m)).Methods("POST")

	router.HandleFunc("/allocation/hello", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Hello from Allocation Service"))
	})

	log.Println("Allocation Service started on :" + port)
	if err := http.ListenAndServe(":"+port, router); err != nil {
		log.Fatalf("Allocation Service failed: %v", err)
	}
}

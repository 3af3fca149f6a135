package api

import (
	"errors"
	"net/http"

	"github.com/lugegod/LugeRelay/internal/bluetooth"
)

// handleBluetoothScan kicks off a bounded background Bluetooth scan.
//
// The response confirms the scan was started, not that anything was
// found; discovery results are consumed by the adapter, not the API.
func (s *Server) handleBluetoothScan(w http.ResponseWriter, r *http.Request) {
	if s.scanner == nil {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "bluetooth scanning is not configured")
		return
	}

	if err := s.scanner.Scan(r.Context()); err != nil {
		if errors.Is(err, bluetooth.ErrScanInProgress) {
			writeError(w, http.StatusConflict, ErrCodeScanInProgress, "a scan is already in progress")
			return
		}
		s.logger.Error("starting bluetooth scan", "error", err)
		writeInternalError(w, "failed to start bluetooth scan")
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]any{
		"scanning": true,
	})
}

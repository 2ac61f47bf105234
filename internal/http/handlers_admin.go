package http

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"shopledger/internal/core"
	"shopledger/internal/export"
	"shopledger/internal/ledger"
	"shopledger/internal/log"
	"shopledger/internal/sheets"
)

// handleAdminTransactions shows the edit grid (GET) or replaces the whole
// period with the submitted grid and persists it (POST).
func (s *Server) handleAdminTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		s.showGrid(w, r)
	case http.MethodPost:
		s.saveGrid(w, r)
	default:
		MethodNotAllowedError("GET, POST").Write(w)
	}
}

func (s *Server) showGrid(w http.ResponseWriter, r *http.Request) {
	l := s.session(w, r)
	ctx, cancel := s.storeContext(r)
	defer cancel()
	s.render(w, r, "admin.html", s.buildGrid(ctx, l))
}

func (s *Server) saveGrid(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if resp := ParseFormOrFail(r); resp != nil {
		resp.Write(w)
		return
	}

	l := s.session(w, r)
	ctx, cancel := s.storeContext(r)
	defer cancel()

	rows, positions, err := parseGridRows(r.PostForm, l.Today(), s.catalog)
	if errors.Is(err, errMalformedGrid) {
		BadRequestError("ข้อมูลตารางไม่ครบถ้วน กรุณาโหลดหน้าใหม่").Write(w)
		return
	}
	if err != nil {
		s.gridRejected(w, r, err)
		return
	}
	if _, err := l.ReplaceAll(ctx, rows); err != nil {
		switch {
		case errors.Is(err, sheets.ErrBackendUnavailable):
			log.NewStructuredLogger(log.FromContext(ctx)).LogError(ctx, "Grid not saved, period unreadable", err,
				log.ComponentBackend, log.OpLoad, log.NewFields().WithPeriod(l.State().Period, len(rows)))
			msg := "โหลดข้อมูลจาก Cloud ไม่สำเร็จ ยังบันทึกการแก้ไขไม่ได้ กรุณาลองใหม่"
			gridStatus(ServiceUnavailableError(msg), msg).Write(w)
		case errors.Is(err, ledger.ErrStaleSnapshot):
			msg := "โหลดข้อมูลจาก Cloud ได้แล้ว กรุณาโหลดหน้านี้ใหม่ก่อนแก้ไข"
			gridStatus(ErrorResponse(http.StatusConflict, msg), msg).Write(w)
		default:
			s.gridRejected(w, r, remapRow(err, positions))
		}
		return
	}

	resp := NewHTMXResponse()
	if err := l.Persist(ctx); err != nil {
		if !errors.Is(err, sheets.ErrBackendUnavailable) {
			s.gridRejected(w, r, err)
			return
		}
		log.NewStructuredLogger(log.FromContext(ctx)).LogError(ctx, "Grid kept locally, upload failed", err,
			log.ComponentBackend, log.OpPersist, log.NewFields().WithPeriod(l.State().Period, len(rows)))
		resp.TriggerWarningNotification("บันทึกการแก้ไขไว้ในเครื่องแล้ว แต่อัปโหลดขึ้น Cloud ไม่สำเร็จ")
	} else {
		resp.TriggerSuccessNotification("อัปเดตข้อมูลบน Cloud เรียบร้อย!")
	}

	grid := s.buildGrid(ctx, l)
	html, err := s.renderString("grid.html", grid)
	if err != nil {
		s.renderFailed(w, r, "grid.html", err)
		return
	}
	resp.BodyHTML(html).TriggerLedgerChanged(grid.Period).Write(w)
}

// gridRejected reports a validation failure next to the grid without
// replacing what the user typed.
func (s *Server) gridRejected(w http.ResponseWriter, r *http.Request, err error) {
	msg := validationMessage(err)
	log.FromContext(r.Context()).DebugContext(r.Context(), "Grid rejected",
		log.FieldError, err,
		log.FieldErrorType, log.ErrorTypeValidation)
	gridStatus(UnprocessableEntityError(msg), msg).Write(w)
}

// gridStatus routes an error response into the status line above the grid.
func gridStatus(resp *HTMXResponseBuilder, msg string) *HTMXResponseBuilder {
	return resp.
		Retarget("#grid-status").
		Header("HX-Reswap", "innerHTML").
		TriggerErrorNotification(msg)
}

// handleExport downloads a period as XLSX. The active period comes from the
// session snapshot, other periods are read from the backend.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}

	l := s.session(w, r)
	ctx, cancel := s.storeContext(r)
	defer cancel()

	period := strings.TrimSpace(r.URL.Query().Get("period"))
	var rows []core.Transaction
	if period == "" || period == l.CurrentPeriod() {
		rows = l.Snapshot(ctx)
		period = l.State().Period
	} else {
		if _, err := core.ParsePeriodKey(period); err != nil {
			BadRequestError("รูปแบบเดือนไม่ถูกต้อง").Write(w)
			return
		}
		var err error
		rows, err = s.store.ReadPeriod(ctx, period)
		if err != nil {
			log.NewStructuredLogger(log.FromContext(ctx)).LogError(ctx, "Export read failed", err,
				log.ComponentBackend, log.OpExport, log.NewFields().WithPeriod(period, 0))
			ServiceUnavailableError("โหลดข้อมูลจาก Cloud ไม่สำเร็จ").Write(w)
			return
		}
	}

	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, period, rows); err != nil {
		log.NewStructuredLogger(log.FromContext(ctx)).LogError(ctx, "Export failed", err,
			log.ComponentHTTP, log.OpExport, log.NewFields().WithPeriod(period, len(rows)))
		InternalServerError("สร้างไฟล์ไม่สำเร็จ").Write(w)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="shopledger_%s.xlsx"`, period))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

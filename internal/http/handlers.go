package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"shopledger/internal/core"
	"shopledger/internal/log"
	"shopledger/internal/sheets"
)

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":    "ok",
		"timestamp": s.opts.Clock().Format(time.RFC3339),
		"uptime":    s.opts.Clock().Sub(s.startedAt).Round(time.Second).String(),
	})
}

// handleReady checks templates and the backend.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	switch {
	case s.opts.Ping == nil:
		checks["backend"] = "not_checked"
	default:
		if err := s.opts.Ping(ctx); err != nil {
			checks["backend"] = fmt.Sprintf("failed: %v", err)
			status = "not_ready"
			httpStatus = http.StatusServiceUnavailable
		} else {
			checks["backend"] = "ok"
		}
	}

	checks["sessions"] = map[string]any{
		"active": s.sessions.Size(),
		"max":    s.opts.MaxSessions,
	}
	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.ActiveClients(),
	}

	w.WriteHeader(httpStatus)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":    status,
		"timestamp": s.opts.Clock().Format(time.RFC3339),
		"checks":    checks,
	})
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		NotFoundError("ไม่พบหน้าที่ต้องการ").Write(w)
		return
	}
	if resp := RequireMethod(r, http.MethodGet, http.MethodHead); resp != nil {
		resp.Write(w)
		return
	}

	l := s.session(w, r)
	ctx, cancel := s.storeContext(r)
	defer cancel()

	summary := s.buildSummary(ctx, l)
	data := struct {
		Summary summaryView
		Items   []string
		Today   string
		Period  string
		Price   priceView
	}{
		Summary: summary,
		Items:   s.catalog.Names(),
		Today:   summary.Today,
		Period:  summary.Period,
	}
	s.render(w, r, "index.html", data)
}

// handleItemPrice renders the price input pre-filled with the catalog price.
func (s *Server) handleItemPrice(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}
	item := sanitizeInput(r.URL.Query().Get("item"))
	var data priceView
	if entry, ok := s.catalog.Lookup(item); ok {
		data.Value = entry.Price.Plain()
		data.Known = true
	}
	s.render(w, r, "price_input.html", data)
}

// handleCreateTransaction appends a sale to the session ledger and persists
// the whole period. When the backend is down the row stays in memory and the
// response is a warning rather than an error. A rejected sale is not kept.
func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("รูปแบบคำขอไม่ถูกต้อง").Write(w)
		return
	}

	l := s.session(w, r)
	ctx, cancel := s.storeContext(r)
	defer cancel()

	draft, err := parseDraft(p.Get, l.Today(), s.catalog)
	if err != nil {
		s.validationFailed(w, r, err)
		return
	}
	period := l.CurrentPeriod()
	if _, err := l.Record(ctx, draft); err != nil {
		if !errors.Is(err, sheets.ErrBackendUnavailable) {
			s.validationFailed(w, r, err)
			return
		}
		log.NewStructuredLogger(log.FromContext(ctx)).LogError(ctx, "Transaction kept locally, upload failed", err,
			log.ComponentBackend, log.OpPersist, log.NewFields().WithPeriod(period, l.State().Rows))
		msg := fmt.Sprintf("บันทึก '%s' ไว้ในเครื่องแล้ว แต่อัปโหลดขึ้น Cloud ไม่สำเร็จ", draft.ItemName)
		WarningResponse(msg).
			TriggerWarningNotification(msg).
			TriggerLedgerChanged(period).
			TriggerFormReset().
			Write(w)
		return
	}

	msg := fmt.Sprintf("บันทึก '%s' เรียบร้อยแล้ว และอัปโหลดขึ้น Cloud แล้ว!", draft.ItemName)
	SuccessResponse(msg).
		TriggerSuccessNotification(msg).
		TriggerLedgerChanged(period).
		TriggerFormReset().
		Write(w)
}

// handleSummary renders the dashboard partial.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if resp := RequireMethod(r, http.MethodGet); resp != nil {
		resp.Write(w)
		return
	}
	l := s.session(w, r)
	ctx, cancel := s.storeContext(r)
	defer cancel()
	s.render(w, r, "summary.html", s.buildSummary(ctx, l))
}

// handleRefresh discards the session snapshot and reloads it from the backend.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if resp := RequirePOST(r); resp != nil {
		resp.Write(w)
		return
	}
	l := s.session(w, r)
	ctx, cancel := s.storeContext(r)
	defer cancel()

	l.Refresh(ctx)
	summary := s.buildSummary(ctx, l)
	html, err := s.renderString("summary.html", summary)
	if err != nil {
		s.renderFailed(w, r, "summary.html", err)
		return
	}

	resp := NewHTMXResponse().BodyHTML(html).TriggerLedgerChanged(summary.Period)
	if summary.Banner.Degraded {
		resp.TriggerWarningNotification("โหลดข้อมูลจาก Cloud ไม่สำเร็จ กำลังใช้ข้อมูลว่าง")
	} else {
		resp.TriggerInfoNotification("โหลดข้อมูลล่าสุดแล้ว")
	}
	resp.Write(w)
}

func (s *Server) validationFailed(w http.ResponseWriter, r *http.Request, err error) {
	msg := validationMessage(err)
	var ve *core.ValidationError
	if errors.As(err, &ve) && ve.Row >= 0 {
		// A stored row of the period is invalid; it can only be fixed in the grid.
		msg += " (แก้ไขแถวนี้ได้ที่หน้า /admin/transactions)"
	}
	log.FromContext(r.Context()).DebugContext(r.Context(), "Validation failed",
		log.FieldError, err,
		log.FieldErrorType, log.ErrorTypeValidation,
		log.FieldPath, r.URL.Path)
	UnprocessableEntityError(msg).TriggerErrorNotification(msg).Write(w)
}

func (s *Server) renderString(name string, data any) (string, error) {
	if s.templates == nil {
		return "", errors.New("templates not loaded")
	}
	var buf bytes.Buffer
	if err := s.templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// render executes a template into a buffer first so that a failing template
// yields a clean 500 instead of a truncated page.
func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	html, err := s.renderString(name, data)
	if err != nil {
		s.renderFailed(w, r, name, err)
		return
	}
	NewHTMXResponse().BodyHTML(html).Write(w)
}

func (s *Server) renderFailed(w http.ResponseWriter, r *http.Request, name string, err error) {
	fields := log.NewFields().WithErrorType(log.ErrorTypeInternal)
	fields["template"] = name
	log.NewStructuredLogger(log.FromContext(r.Context())).LogError(r.Context(), "Template execution failed", err,
		log.ComponentHTTP, log.OpRender, fields)
	InternalServerError("เกิดข้อผิดพลาดในการแสดงผล").Write(w)
}

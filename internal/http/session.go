package http

import (
	"net/http"

	"github.com/google/uuid"

	"shopledger/internal/ledger"
	"shopledger/internal/log"
)

const sessionCookie = "shopledger_session"

// session returns the caller's ledger, starting a new session when the
// cookie is missing, malformed or has expired from the cache.
func (s *Server) session(w http.ResponseWriter, r *http.Request) *ledger.Ledger {
	id := ""
	if c, err := r.Cookie(sessionCookie); err == nil {
		if parsed, err := uuid.Parse(c.Value); err == nil {
			id = parsed.String()
		}
	}
	if id == "" {
		id = uuid.NewString()
	}

	l, existed := s.sessions.GetOrCreate(id, func() *ledger.Ledger {
		return ledger.New(s.store, s.ledgerOptions()...)
	})
	if !existed {
		s.logger.DebugContext(r.Context(), "Session started", log.FieldSessionID, id)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		MaxAge:   int(s.opts.SessionTTL.Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	return l
}

package http

import (
	"crypto/subtle"
	"net/http"
	"sync/atomic"

	"golang.org/x/crypto/bcrypt"

	"shopledger/internal/log"
)

const adminRealm = `Basic realm="shopledger admin", charset="UTF-8"`

// requireAdmin guards next with HTTP basic auth against the configured
// bcrypt hash. Without a hash the route is open.
func (s *Server) requireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.opts.AdminPasswordHash == "" {
			next(w, r)
			return
		}

		user, pass, ok := r.BasicAuth()
		if ok && s.checkAdmin(user, pass) {
			next(w, r)
			return
		}

		atomic.AddInt64(&s.metrics.authFailures, 1)
		if ok {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Admin authentication failed",
				log.FieldComponent, log.ComponentSecurity,
				log.FieldErrorType, log.ErrorTypeAuth,
				"user", user)
		}
		w.Header().Set("WWW-Authenticate", adminRealm)
		ErrorResponse(http.StatusUnauthorized, "ต้องเข้าสู่ระบบผู้ดูแล").Write(w)
	}
}

func (s *Server) checkAdmin(user, pass string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(s.opts.AdminUser)) == 1
	passOK := bcrypt.CompareHashAndPassword([]byte(s.opts.AdminPasswordHash), []byte(pass)) == nil
	return userOK && passOK
}

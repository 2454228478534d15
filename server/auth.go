package server

import (
	"crypto/subtle"
	"net/http"
)

const (
	sessionCookieName = "session_token"
	sessionMaxAge     = 365 * 24 * 3600 // one year, in seconds
)

// hasSession reports whether the request carries the valid session cookie.
func (s *Server) hasSession(r *http.Request) bool {
	c, err := r.Cookie(sessionCookieName)
	if err != nil {
		return false
	}
	return tokenMatches(c.Value, s.cfg.SessionToken)
}

// tokenMatches compares tokens in constant time.
func tokenMatches(got, want string) bool {
	return subtle.ConstantTimeCompare([]byte(got), []byte(want)) == 1
}

// requireSession guards the API routes with a 401 JSON response.
func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.hasSession(r) {
			s.logger.Info("denied API access", "path", r.URL.Path)
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized. Please log in."})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// handleLogin checks the submitted token and, on a match, sets the
// long-lived session cookie and redirects home.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	token := r.PostFormValue("token")
	if !tokenMatches(token, s.cfg.SessionToken) {
		s.logger.Info("failed login attempt")
		w.WriteHeader(http.StatusUnauthorized)
		s.renderLogin(w, "Invalid session token. Please try again.")
		return
	}

	s.logger.Info("successful login")
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   sessionMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   r.TLS != nil || r.Header.Get("X-Forwarded-Proto") == "https",
	})
	http.Redirect(w, r, "/", http.StatusFound)
}

// handleHome serves the app page to a valid session, the login page
// otherwise.
func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if s.hasSession(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := s.appTmpl.Execute(w, nil); err != nil {
			s.logger.Error("render app page", "error", err)
		}
		return
	}
	s.renderLogin(w, "")
}

func (s *Server) renderLogin(w http.ResponseWriter, errorMessage string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.loginTmpl.Execute(w, struct{ Error string }{errorMessage}); err != nil {
		s.logger.Error("render login page", "error", err)
	}
}

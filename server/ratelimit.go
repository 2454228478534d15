package server

import (
	"fmt"
	"net"
	"net/http"
)

// fingerprint identifies a client for daily usage accounting: remote IP
// (RealIP has already resolved proxies) plus a User-Agent prefix.
func fingerprint(r *http.Request) string {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	if ip == "" {
		ip = "unknown"
	}
	ua := r.Header.Get("User-Agent")
	if ua == "" {
		ua = "unknown"
	}
	if runes := []rune(ua); len(runes) > 50 {
		ua = string(runes[:50])
	}
	return ip + "_" + ua
}

// rateLimit enforces the per-fingerprint daily budget. At or over the
// limit the request is rejected without incrementing. Charging the unit
// happens in the handler, after input validation, so rejected requests
// never consume budget.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fp := fingerprint(r)
		count, err := s.deps.Usage.Count(r.Context(), fp)
		if err != nil {
			// Counting problems should not take the service down.
			s.logger.Error("usage count", "error", err)
			next.ServeHTTP(w, r)
			return
		}
		if count >= s.cfg.DailyRequestLimit {
			s.logger.Info("daily limit reached", "fingerprint", fp)
			writeJSON(w, http.StatusTooManyRequests, map[string]any{
				"error": fmt.Sprintf("Daily request limit (%d) reached. Please try again tomorrow.",
					s.cfg.DailyRequestLimit),
				"currentUsage": count,
				"limit":        s.cfg.DailyRequestLimit,
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// chargeUsage bumps the caller's daily counter. Increment failures are
// logged, not fatal, matching the Count fallback above.
func (s *Server) chargeUsage(r *http.Request) {
	if _, err := s.deps.Usage.Increment(r.Context(), fingerprint(r)); err != nil {
		s.logger.Error("usage increment", "error", err)
	}
}

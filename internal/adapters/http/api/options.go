package api

import (
	"net/http"
	"strings"
)

// Option configures a Server.
type Option func(*Server)

// WithPublicURL sets the base URL season QR codes link to.
func WithPublicURL(u string) Option {
	return func(s *Server) {
		if u = strings.TrimRight(strings.TrimSpace(u), "/"); u != "" {
			s.publicURL = u
		}
	}
}

// WithQRSize sets the default QR code edge in pixels.
func WithQRSize(px int) Option {
	return func(s *Server) {
		if px > 0 {
			s.qrSize = px
		}
	}
}

// WithFeed mounts the live feed handler at /ws.
func WithFeed(h http.Handler) Option {
	return func(s *Server) {
		s.feed = h
	}
}

package ingress

import (
	"context"
	"encoding/base64"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

const dohContentType = "application/dns-message"

// DoHServer answers DNS-over-HTTPS requests.
type DoHServer struct {
	Handler *Handler
	Path    string // defaults to "/dns-query"
	TLSCert string
	TLSKey  string

	httpServer *http.Server
}

// Run binds addr and serves DoH until ctx is cancelled.
func (s *DoHServer) Run(ctx context.Context, addr string) error {
	path := s.Path
	if path == "" {
		path = "/dns-query"
	}

	mux := http.NewServeMux()
	mux.HandleFunc(path, s.serveDNSQuery)

	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if s.TLSCert != "" && s.TLSKey != "" {
			errCh <- s.httpServer.ListenAndServeTLS(s.TLSCert, s.TLSKey)
		} else {
			errCh <- s.httpServer.ListenAndServe()
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	}
}

func (s *DoHServer) serveDNSQuery(w http.ResponseWriter, r *http.Request) {
	var reqBytes []byte

	switch r.Method {
	case http.MethodGet:
		encoded := r.URL.Query().Get("dns")
		if encoded == "" {
			http.Error(w, "missing dns parameter", http.StatusBadRequest)
			return
		}
		decoded, err := base64.RawURLEncoding.DecodeString(encoded)
		if err != nil {
			http.Error(w, "invalid dns parameter", http.StatusBadRequest)
			return
		}
		reqBytes = decoded
	case http.MethodPost:
		body, err := io.ReadAll(io.LimitReader(r.Body, 65535))
		if err != nil {
			http.Error(w, "failed to read body", http.StatusBadRequest)
			return
		}
		reqBytes = body
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	clientIP := clientIPFromRequest(r)
	resp := s.Handler.Handle(r.Context(), "doh", clientIP, reqBytes)
	if len(resp) == 0 {
		http.Error(w, "resolution failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", dohContentType)
	_, _ = w.Write(resp)
}

func clientIPFromRequest(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		return strings.TrimSpace(parts[0])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

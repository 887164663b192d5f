// Package http contiene el server HTTP y la instrumentación de requests.
package http

import (
	"context"
	"errors"
	"net/http"
	"time"
)

// Server envuelve http.Server con los timeouts del broker. Los legs de
// browser son cortos; no hay streaming ni uploads.
type Server struct {
	srv *http.Server
}

// NewServer crea el server con el handler raíz ya armado.
func NewServer(addr string, handler http.Handler) *Server {
	return &Server{srv: &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}}
}

// Start bloquea hasta que el server cierre. Un cierre ordenado no es error.
func (s *Server) Start() error {
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drena las conexiones en curso hasta que venza el contexto.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

package auth

import (
	"net/http"

	svc "github.com/justindh/ChingyWebApi/internal/http/services/auth"
)

// LogoutController borra la cookie de sesión.
type LogoutController struct {
	service *svc.Service
}

// NewLogoutController crea un nuevo controller de logout.
func NewLogoutController(service *svc.Service) *LogoutController {
	return &LogoutController{service: service}
}

// Logout maneja GET /v1/auth/logout: setea la cookie de borrado (mismo
// nombre/dominio/path que la de sesión) y redirige si vino redirect_to.
func (c *LogoutController) Logout(w http.ResponseWriter, r *http.Request) {
	red := c.service.LogoutCookie()
	http.SetCookie(w, red.Cookie)

	if target := r.URL.Query().Get("redirect_to"); target != "" {
		http.Redirect(w, r, target, http.StatusFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

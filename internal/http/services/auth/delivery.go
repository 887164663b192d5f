package auth

import (
	"github.com/justindh/ChingyWebApi/internal/flowstate"
	"github.com/justindh/ChingyWebApi/internal/http/helpers"
)

// deliver materializa el modo de entrega elegido al inicio del flujo.
//
//	none       -> redirect pelado; el artefacto se descarta
//	token      -> redirect a target#artifact (fragmento, nunca llega a servers)
//	persistent -> cookie de ~10 años + redirect pelado
//	session    -> cookie sin Expires (vive lo que el browser) + redirect pelado
func (s *Service) deliver(st flowstate.FlowState, artifact string) Redirect {
	switch st.Mode {
	case flowstate.ModeToken:
		return Redirect{Location: st.RedirectTo + "#" + artifact}
	case flowstate.ModePersistent:
		return Redirect{
			Location: st.RedirectTo,
			Cookie: helpers.BuildCookie(helpers.SessionCookieName, artifact,
				s.cfg.Cookie.Domain, s.cfg.Cookie.SameSite, s.cfg.Cookie.Secure,
				helpers.PersistentCookieTTL),
		}
	case flowstate.ModeSession:
		return Redirect{
			Location: st.RedirectTo,
			Cookie: helpers.BuildCookie(helpers.SessionCookieName, artifact,
				s.cfg.Cookie.Domain, s.cfg.Cookie.SameSite, s.cfg.Cookie.Secure, 0),
		}
	default: // ModeNone
		return Redirect{Location: st.RedirectTo}
	}
}

// LogoutCookie arma la cookie de borrado con el mismo nombre/dominio/path.
func (s *Service) LogoutCookie() *Redirect {
	return &Redirect{
		Cookie: helpers.BuildDeletionCookie(helpers.SessionCookieName,
			s.cfg.Cookie.Domain, s.cfg.Cookie.SameSite, s.cfg.Cookie.Secure),
	}
}

package http

import (
	"net/http"
	"strings"
)

// RouterConfig wires handlers and middleware into the API router. Session is
// applied to the protected routes only; Middleware wraps the whole router.
type RouterConfig struct {
	Auth       *AuthHandler
	Users      *UserHandler
	Meetings   *MeetingHandler
	Session    func(http.Handler) http.Handler
	Middleware []func(http.Handler) http.Handler
}

// NewRouter builds the HTTP routing table.
func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	protect := cfg.Session
	if protect == nil {
		protect = func(next http.Handler) http.Handler { return next }
	}

	if cfg.Users != nil {
		mux.HandleFunc("/signup", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Users.Signup(w, r)
		})
		mux.HandleFunc("/forgot-password", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Users.ForgotPassword(w, r)
		})
		mux.HandleFunc("/reset-password/", func(w http.ResponseWriter, r *http.Request) {
			token := strings.TrimPrefix(r.URL.Path, "/reset-password/")
			if token == "" || strings.Contains(token, "/") {
				http.NotFound(w, r)
				return
			}
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Users.ResetPassword(w, r, token)
		})
		mux.Handle("/dashboard/", protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			regno := strings.TrimPrefix(r.URL.Path, "/dashboard/")
			if regno == "" || strings.Contains(regno, "/") {
				http.NotFound(w, r)
				return
			}
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			r = r.WithContext(ContextWithRegNo(r.Context(), regno))
			cfg.Users.Dashboard(w, r)
		})))
	}

	if cfg.Auth != nil {
		mux.HandleFunc("/login-regno", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Auth.Login(w, r)
		})
		mux.Handle("/logout", protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Auth.Logout(w, r)
		})))
	}

	if cfg.Meetings != nil {
		mux.Handle("/meetings", protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Meetings.List(w, r)
			case http.MethodPost:
				cfg.Meetings.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})))
		mux.Handle("/meetings/", protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimPrefix(r.URL.Path, "/meetings/")
			if id == "" || strings.Contains(id, "/") {
				http.NotFound(w, r)
				return
			}
			if r.Method != http.MethodPatch {
				methodNotAllowed(w, http.MethodPatch)
				return
			}
			r = r.WithContext(ContextWithMeetingID(r.Context(), id))
			cfg.Meetings.UpdateStatus(w, r)
		})))
	}

	var handler http.Handler = mux
	for i := len(cfg.Middleware) - 1; i >= 0; i-- {
		if cfg.Middleware[i] != nil {
			handler = cfg.Middleware[i](handler)
		}
	}

	return handler
}

func methodNotAllowed(w http.ResponseWriter, allowed ...string) {
	if len(allowed) > 0 {
		w.Header().Set("Allow", strings.Join(allowed, ", "))
	}
	http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
}

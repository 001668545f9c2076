package http

import (
	"net/http"
	"strings"
)

type RouterConfig struct {
	Auth          *AuthHandler
	Users         *UserHandler
	Grants        *GrantHandler
	Access        *AccessHandler
	EntryRequests *EntryRequestHandler

	// RequireAuth guards every route except login and visitor request
	// creation. RateLimit guards only the visitor request creation.
	RequireAuth func(http.Handler) http.Handler
	RateLimit   func(http.Handler) http.Handler

	// Middleware wraps the whole router, outermost first.
	Middleware []func(http.Handler) http.Handler
}

func NewRouter(cfg RouterConfig) http.Handler {
	mux := http.NewServeMux()

	authed := func(fn http.HandlerFunc) http.Handler {
		if cfg.RequireAuth == nil {
			return fn
		}
		return cfg.RequireAuth(fn)
	}

	if cfg.Auth != nil {
		mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Auth.Login(w, r)
		})
	}

	if cfg.Users != nil {
		users := authed(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Users.List(w, r)
			case http.MethodPost:
				cfg.Users.Create(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.Handle("/api/users", users)
		mux.Handle("/api/users/", authed(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimPrefix(r.URL.Path, "/api/users/")
			if id == "" {
				http.NotFound(w, r)
				return
			}
			r = r.WithContext(ContextWithResourceID(r.Context(), id))
			if r.Method != http.MethodDelete {
				methodNotAllowed(w, http.MethodDelete)
				return
			}
			cfg.Users.Delete(w, r)
		}))
	}

	if cfg.Grants != nil {
		mux.Handle("/api/authorized-users", authed(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet:
				cfg.Grants.List(w, r)
			case http.MethodPost:
				cfg.Grants.Grant(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		}))
		mux.Handle("/api/authorized-users/", authed(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimPrefix(r.URL.Path, "/api/authorized-users/")
			if id == "" {
				http.NotFound(w, r)
				return
			}
			r = r.WithContext(ContextWithResourceID(r.Context(), id))
			if r.Method != http.MethodDelete {
				methodNotAllowed(w, http.MethodDelete)
				return
			}
			cfg.Grants.Revoke(w, r)
		}))
	}

	if cfg.Access != nil {
		mux.Handle("/api/door/open", authed(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Access.OpenDoor(w, r)
		}))
		mux.Handle("/api/history", authed(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Access.History(w, r)
		}))
		mux.Handle("/api/alarm/trigger", authed(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Access.TriggerAlarm(w, r)
		}))
		mux.Handle("/api/alarm/stop", authed(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.Access.StopAlarm(w, r)
		}))
		mux.Handle("/api/alarm/status", authed(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				methodNotAllowed(w, http.MethodGet)
				return
			}
			cfg.Access.AlarmStatus(w, r)
		}))
	}

	if cfg.EntryRequests != nil {
		var create http.Handler = http.HandlerFunc(cfg.EntryRequests.Create)
		if cfg.RateLimit != nil {
			create = cfg.RateLimit(create)
		}
		list := authed(cfg.EntryRequests.ListPending)
		mux.HandleFunc("/api/entry-requests", func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodPost:
				create.ServeHTTP(w, r)
			case http.MethodGet:
				list.ServeHTTP(w, r)
			default:
				methodNotAllowed(w, http.MethodGet, http.MethodPost)
			}
		})
		mux.Handle("/api/entry-requests/", authed(func(w http.ResponseWriter, r *http.Request) {
			rest := strings.TrimPrefix(r.URL.Path, "/api/entry-requests/")
			id, found := strings.CutSuffix(rest, "/respond")
			if !found || id == "" {
				http.NotFound(w, r)
				return
			}
			r = r.WithContext(ContextWithResourceID(r.Context(), id))
			if r.Method != http.MethodPost {
				methodNotAllowed(w, http.MethodPost)
				return
			}
			cfg.EntryRequests.Respond(w, r)
		}))
	}

	var handler http.Handler = mux
	if len(cfg.Middleware) > 0 {
		for i := len(cfg.Middleware) - 1; i >= 0; i-- {
			if cfg.Middleware[i] != nil {
				handler = cfg.Middleware[i](handler)
			}
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

package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const (
	APIPathPrefix = "/api/v1"
)

var (
	paramTypePats = map[string]string{
		"uuid": "[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}",
	}
)

// p is a quick parameter in a URI, made very small to ease readability in
// route listings.
func p(nameType string) string {
	var name string
	var pat string

	parts := strings.SplitN(nameType, ":", 2)
	name = parts[0]
	if len(parts) == 2 {
		// we have a type, if it's a name in the paramTypePats map use that
		// else treat it as a normal pattern
		pat = parts[1]

		if translatedPat, ok := paramTypePats[parts[1]]; ok {
			pat = translatedPat
		}
	}

	if pat == "" {
		return "{" + name + "}"
	}
	return "{" + name + ":" + pat + "}"
}

func newRouter(gs *GrottoServer) chi.Router {
	r := chi.NewRouter()

	r.Mount(APIPathPrefix, newAPIRouter(gs))

	return r
}

func newAPIRouter(gs *GrottoServer) chi.Router {
	r := chi.NewRouter()

	r.Mount("/login", newLoginRouter(gs))
	r.Mount("/tokens", newTokensRouter(gs))
	r.Mount("/users", newUsersRouter(gs))
	r.Mount("/dungeons", newDungeonsRouter(gs))
	r.Mount("/sessions", newSessionsRouter(gs))

	r.Get("/info", gs.ep(gs.doEndpoint_Info_GET))
	r.HandleFunc("/info/", RedirectNoTrailingSlash)

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		jsonNotFound().writeResponse(w, req)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		time.Sleep(gs.unauthedDelay)
		jsonMethodNotAllowed(req).writeResponse(w, req)
	})

	return r
}

func newLoginRouter(gs *GrottoServer) chi.Router {
	r := chi.NewRouter()

	r.Post("/", gs.ep(gs.doEndpoint_Login_POST))
	r.Delete("/"+p("id:uuid"), gs.epID(gs.doEndpoint_LoginID_DELETE))
	r.HandleFunc("/"+p("id:uuid")+"/", RedirectNoTrailingSlash)

	return r
}

func newTokensRouter(gs *GrottoServer) chi.Router {
	r := chi.NewRouter()

	r.Post("/", gs.ep(gs.doEndpoint_Tokens_POST))

	return r
}

func newUsersRouter(gs *GrottoServer) chi.Router {
	r := chi.NewRouter()

	r.Get("/", gs.ep(gs.doEndpoint_Users_GET))
	r.Post("/", gs.ep(gs.doEndpoint_Users_POST))

	r.Route("/"+p("id:uuid"), func(r chi.Router) {
		r.Get("/", gs.epID(gs.doEndpoint_UserID_GET))
		r.Delete("/", gs.epID(gs.doEndpoint_UserID_DELETE))
	})

	return r
}

func newDungeonsRouter(gs *GrottoServer) chi.Router {
	r := chi.NewRouter()

	r.Get("/", gs.ep(gs.doEndpoint_Dungeons_GET))
	r.Post("/", gs.ep(gs.doEndpoint_Dungeons_POST))

	r.Route("/"+p("id:uuid"), func(r chi.Router) {
		r.Get("/", gs.epID(gs.doEndpoint_DungeonID_GET))
		r.Delete("/", gs.epID(gs.doEndpoint_DungeonID_DELETE))
	})

	return r
}

func newSessionsRouter(gs *GrottoServer) chi.Router {
	r := chi.NewRouter()

	r.Post("/", gs.ep(gs.doEndpoint_Sessions_POST))

	r.Route("/"+p("id:uuid"), func(r chi.Router) {
		r.Get("/", gs.epID(gs.doEndpoint_SessionID_GET))
		r.Delete("/", gs.epID(gs.doEndpoint_SessionID_DELETE))
		r.Post("/choices", gs.epID(gs.doEndpoint_SessionID_Choices_POST))
		r.HandleFunc("/choices/", RedirectNoTrailingSlash)
	})

	return r
}

// ep adapts an endpoint to an http.HandlerFunc. Panics in the endpoint
// become a 500 rather than killing the connection with no reply.
func (gs *GrottoServer) ep(endpoint func(req *http.Request) endpointResult) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		defer panicTo500(w, req)
		endpoint(req).writeResponse(w, req)
	}
}

// epID is like ep for endpoints keyed on an {id} path parameter.
func (gs *GrottoServer) epID(endpoint func(req *http.Request, id uuid.UUID) endpointResult) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		defer panicTo500(w, req)

		idStr := chi.URLParam(req, "id")
		id, err := uuid.Parse(idStr)
		if err != nil {
			jsonBadRequest("id: not a valid UUID", "bad ID %q in path", idStr).writeResponse(w, req)
			return
		}

		endpoint(req, id).writeResponse(w, req)
	}
}

func panicTo500(w http.ResponseWriter, req *http.Request) {
	if panicErr := recover(); panicErr != nil {
		jsonInternalServerError("panic: %v", panicErr).writeResponse(w, req)
	}
}

// RedirectNoTrailingSlash is an http.HandlerFunc that redirects to the same
// path with the trailing slash removed.
func RedirectNoTrailingSlash(w http.ResponseWriter, req *http.Request) {
	redirPath := strings.TrimRight(req.URL.Path, "/")
	if redirPath == "" {
		jsonNotFound().writeResponse(w, req)
		return
	}
	http.Redirect(w, req, redirPath, http.StatusPermanentRedirect)
}

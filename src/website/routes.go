package website

import (
	"net/http"

	"git.handmade.network/hmn/tablelog/src/apiurl"
	"git.handmade.network/hmn/tablelog/src/config"
	"git.handmade.network/hmn/tablelog/src/sessiondata"
	"github.com/rs/cors"
)

func NewWebsiteRoutes(store sessiondata.Store, corsConfig config.CORSConfig) http.Handler {
	router := &Router{}
	routes := RouteBuilder{
		Router: router,
		Middlewares: []Middleware{
			requestLoggerMiddleware,
			trackRequestPerf,
			logContextErrorsMiddleware,
			panicCatcherMiddleware,
		},
	}

	routes.GET(apiurl.RegexHealth, Health)
	routes.AnyMethod(apiurl.RegexHealth, MethodNotAllowed(http.MethodGet, http.MethodHead))

	sessions := routes.WithMiddleware(storeMiddleware(store))
	sessions.GET(apiurl.RegexSessions, SessionList)
	sessions.POST(apiurl.RegexSessions, SessionCreate)
	sessions.AnyMethod(apiurl.RegexSessions, MethodNotAllowed(http.MethodGet, http.MethodHead, http.MethodPost))

	sessions.GET(apiurl.RegexSession, SessionGet)
	sessions.PATCH(apiurl.RegexSession, SessionUpdate)
	sessions.DELETE(apiurl.RegexSession, SessionDelete)
	sessions.AnyMethod(apiurl.RegexSession, MethodNotAllowed(http.MethodGet, http.MethodHead, http.MethodPatch, http.MethodDelete))

	routes.AnyMethod(apiurl.RegexAny, FourOhFour)

	return cors.New(cors.Options{
		AllowedOrigins: corsConfig.AllowedOrigins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodHead,
			http.MethodPost,
			http.MethodPatch,
			http.MethodDelete,
		},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Location", RequestIDHeader},
		AllowCredentials: false,
	}).Handler(router)
}

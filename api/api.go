package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/giftring/giftring-core/engine"
	"github.com/giftring/giftring-core/log"
)

// APIConfig carries what the HTTP server needs: the address to bind and the
// protocol engine to serve.
type APIConfig struct {
	Host   string
	Port   int
	Engine *engine.Engine
}

// API type represents the API HTTP server exposing the gift exchange
// protocol engine.
type API struct {
	router *chi.Mux
	engine *engine.Engine
	srv    *http.Server
	addr   net.Addr
}

// New creates a new API instance with the given configuration, binds the
// listener and starts serving in the background. Binding errors are returned
// here rather than killing the process later. Port 0 picks a free port,
// observable through Addr.
func New(conf *APIConfig) (*API, error) {
	if conf == nil {
		return nil, fmt.Errorf("missing API configuration")
	}
	if conf.Engine == nil {
		return nil, fmt.Errorf("missing engine instance")
	}
	a := &API{
		engine: conf.Engine,
	}
	a.initRouter()

	ln, err := net.Listen("tcp", fmt.Sprintf("%s:%d", conf.Host, conf.Port))
	if err != nil {
		return nil, fmt.Errorf("cannot bind API listener: %w", err)
	}
	a.addr = ln.Addr()
	a.srv = &http.Server{
		Handler:           a.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Infow("starting API server", "addr", a.addr.String())
		if err := a.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorw(err, "API server stopped")
		}
	}()
	return a, nil
}

// Addr returns the address the listener is bound to.
func (a *API) Addr() net.Addr {
	return a.addr
}

// Shutdown gracefully stops the HTTP server, draining in-flight requests
// until ctx expires.
func (a *API) Shutdown(ctx context.Context) error {
	if a.srv == nil {
		return nil
	}
	return a.srv.Shutdown(ctx)
}

// NewRouter returns a router serving the given engine without binding a
// listener. It is used by the tests to mount the API on an httptest server.
func NewRouter(e *engine.Engine) *chi.Mux {
	a := &API{engine: e}
	a.initRouter()
	return a.router
}

// Router exposes the chi router, mainly for tests.
func (a *API) Router() *chi.Mux {
	return a.router
}

// registerHandlers mounts every endpoint on the router.
func (a *API) registerHandlers() {
	log.Infow("register handler", "endpoint", PingEndpoint, "method", "GET")
	a.router.Get(PingEndpoint, func(w http.ResponseWriter, r *http.Request) {
		httpWriteOK(w)
	})
	log.Infow("register handler", "endpoint", RegistriesEndpoint, "method", "POST")
	a.router.Post(RegistriesEndpoint, a.newRegistry)
	log.Infow("register handler", "endpoint", RegistriesEndpoint, "method", "GET")
	a.router.Get(RegistriesEndpoint, a.registryList)
	log.Infow("register handler", "endpoint", RegistryEndpoint, "method", "GET")
	a.router.Get(RegistryEndpoint, a.registryInfo)
	log.Infow("register handler", "endpoint", RegistryParticipantsEndpoint, "method", "POST")
	a.router.Post(RegistryParticipantsEndpoint, a.registerParticipants)
	log.Infow("register handler", "endpoint", RegistryProofEndpoint, "method", "GET")
	a.router.Get(RegistryProofEndpoint, a.membershipProof)
	log.Infow("register handler", "endpoint", RegistryFreezeEndpoint, "method", "POST")
	a.router.Post(RegistryFreezeEndpoint, a.freezeRegistry)
	log.Infow("register handler", "endpoint", RegistryUnfreezeEndpoint, "method", "POST")
	a.router.Post(RegistryUnfreezeEndpoint, a.unfreezeRegistry)
	log.Infow("register handler", "endpoint", RoundsEndpoint, "method", "POST")
	a.router.Post(RoundsEndpoint, a.newRound)
	log.Infow("register handler", "endpoint", RoundsEndpoint, "method", "GET")
	a.router.Get(RoundsEndpoint, a.roundList)
	log.Infow("register handler", "endpoint", RoundEndpoint, "method", "GET")
	a.router.Get(RoundEndpoint, a.roundInfo)
	log.Infow("register handler", "endpoint", RoundAdvanceEndpoint, "method", "POST")
	a.router.Post(RoundAdvanceEndpoint, a.advanceRound)
	log.Infow("register handler", "endpoint", RoundCommitmentsEndpoint, "method", "POST")
	a.router.Post(RoundCommitmentsEndpoint, a.newCommitment)
	log.Infow("register handler", "endpoint", RoundSendersEndpoint, "method", "POST")
	a.router.Post(RoundSendersEndpoint, a.determineSender)
	log.Infow("register handler", "endpoint", RoundSendersEndpoint, "method", "GET")
	a.router.Get(RoundSendersEndpoint, a.senderList)
	log.Infow("register handler", "endpoint", RoundDisclosuresEndpoint, "method", "POST")
	a.router.Post(RoundDisclosuresEndpoint, a.discloseReceiver)
	log.Infow("register handler", "endpoint", RoundPayloadEndpoint, "method", "GET")
	a.router.Get(RoundPayloadEndpoint, a.roundPayload)
	log.Infow("register handler", "endpoint", EventsEndpoint, "method", "GET")
	a.router.Get(EventsEndpoint, a.eventList)
}

// initRouter builds the middleware stack and mounts the handlers.
func (a *API) initRouter() {
	a.router = chi.NewRouter()
	a.router.Use(cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler)
	a.router.Use(middleware.Logger)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Throttle(100))
	a.router.Use(middleware.ThrottleBacklog(5000, 40000, 60*time.Second))
	a.router.Use(middleware.Timeout(45 * time.Second))
	a.registerHandlers()
}

package console

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/juju/errors"
	"github.com/juju/loggo"

	"github.com/sourceplane/obconsole/internal/catalog"
	"github.com/sourceplane/obconsole/internal/rest"
	"github.com/sourceplane/obconsole/internal/state"
)

var logger = loggo.GetLogger("obconsole.console")

// Server exposes the console state and the scenario editors over HTTP
type Server struct {
	Store  *state.Store
	Client rest.Client
	// Jobs is used when the backend catalog is empty, typically an offline
	// catalog file
	Jobs *catalog.Catalog
}

func NewServer(store *state.Store, client rest.Client, jobs *catalog.Catalog) *Server {
	if jobs == nil {
		jobs = catalog.Empty()
	}
	return &Server{Store: store, Client: client, Jobs: jobs}
}

// Router returns the routes of the service wrapped in the request logger
func (s *Server) Router() http.Handler {
	router := mux.NewRouter().StrictSlash(true)
	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/agents", s.listAgents).Methods(http.MethodGet)
	api.HandleFunc("/jobs", s.listJobs).Methods(http.MethodGet)
	api.HandleFunc("/projects", s.listProjects).Methods(http.MethodGet)
	api.HandleFunc("/reload", s.reload).Methods(http.MethodPost)

	scenario := api.PathPrefix("/projects/{project}/scenarios/{scenario}").Subrouter()
	scenario.HandleFunc("/form", s.openForm).Methods(http.MethodGet)
	scenario.HandleFunc("/form", s.replaceForm).Methods(http.MethodPut)
	scenario.HandleFunc("/form", s.closeForm).Methods(http.MethodDelete)
	scenario.HandleFunc("/functions", s.addFunction).Methods(http.MethodPost)
	scenario.HandleFunc("/functions/{id:[0-9]+}", s.replaceFunction).Methods(http.MethodPut)
	scenario.HandleFunc("/functions/{id:[0-9]+}", s.removeFunction).Methods(http.MethodDelete)
	scenario.HandleFunc("/functions/{id:[0-9]+}/parameters/{path}/occurrences", s.addOccurrence).Methods(http.MethodPost)
	scenario.HandleFunc("/functions/{id:[0-9]+}/parameters/{path}/occurrences/{row:[0-9]+}", s.removeOccurrence).Methods(http.MethodDelete)
	scenario.HandleFunc("/functions/{id:[0-9]+}/parameters/{path}/occurrences/{row:[0-9]+}/values", s.addValue).Methods(http.MethodPost)
	scenario.HandleFunc("/functions/{id:[0-9]+}/parameters/{path}/occurrences/{row:[0-9]+}/values/{value:[0-9]+}", s.removeValue).Methods(http.MethodDelete)
	scenario.HandleFunc("/problems", s.problems).Methods(http.MethodGet)
	scenario.HandleFunc("/save", s.save).Methods(http.MethodPost)

	api.HandleFunc("/convert/document", s.convertDocument).Methods(http.MethodPost)
	api.HandleFunc("/convert/form", s.convertForm).Methods(http.MethodPost)

	return logging(router)
}

// catalog returns the backend job catalog, or the fallback when none is loaded
func (s *Server) catalog(snapshot state.State) *catalog.Catalog {
	if snapshot.Jobs.Len() > 0 {
		return snapshot.Jobs
	}
	return s.Jobs
}

// Serve runs the service until ctx is cancelled, then shuts it down
// gracefully
func (s *Server) Serve(ctx context.Context, addr string) error {
	server := &http.Server{
		Addr:         addr,
		Handler:      s.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  15 * time.Second,
	}

	done := make(chan error, 1)
	go func() {
		<-ctx.Done()
		logger.Infof("server is shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		server.SetKeepAlivesEnabled(false)
		done <- server.Shutdown(shutdownCtx)
	}()

	logger.Infof("server is ready to handle requests at %s", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return errors.Annotatef(err, "listening on %s", addr)
	}

	if err := <-done; err != nil {
		return errors.Annotate(err, "shutting down the server")
	}
	logger.Infof("server stopped")
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// logging tags each request with an id, echoed in X-Request-Id, and logs
// its outcome
func logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		id := r.Header.Get("X-Request-Id")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-Id", id)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		logger.Debugf("[%s] %s %s from %s", id, r.Method, r.URL.Path, r.RemoteAddr)
		next.ServeHTTP(rec, r)
		logger.Debugf("[%s] %s %s %d (%v)", id, r.Method, r.URL.Path, rec.status, time.Since(start))
	})
}

type errorBody struct {
	Error    string   `json:"error"`
	Problems []string `json:"problems,omitempty"`
}

// statusOf maps an error kind to the response status
func statusOf(err error) int {
	switch {
	case errors.Is(err, errors.NotFound):
		return http.StatusNotFound
	case errors.Is(err, errors.NotValid), errors.Is(err, errors.BadRequest):
		return http.StatusBadRequest
	case errors.Is(err, errors.AlreadyExists):
		return http.StatusConflict
	case errors.Is(err, errors.NotSupported):
		return http.StatusMethodNotAllowed
	case rest.IsBackendError(err), errors.Is(err, errors.Unauthorized), errors.Is(err, errors.Forbidden):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, r *http.Request, err error, problems ...string) {
	status := statusOf(err)
	logger.Errorf("%s %s: %v", r.Method, r.URL.Path, err)
	writeJSON(w, status, errorBody{Error: err.Error(), Problems: problems})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warningf("cannot write response: %v", err)
	}
}

func readJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.BadRequestf("cannot decode request body: %v", err)
	}
	return nil
}

package main

import (
	"encoding/json"
	"github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/args"
	"github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/entry"
	"github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/logger"
	"github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/model/gocd"
	"github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/validation"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

type errorCollector interface {
	CollectErrors(prefix string, report validation.Report)
}

// validatableEntities maps the {entity} url parameter to a constructor for the type the body is read into.
var validatableEntities = map[string]func() errorCollector{
	"pipeline":    func() errorCollector { return &gocd.Pipeline{} },
	"stage":       func() errorCollector { return &gocd.Stage{} },
	"job":         func() errorCollector { return &gocd.Job{} },
	"task":        func() errorCollector { return &gocd.Task{} },
	"material":    func() errorCollector { return &gocd.Material{} },
	"environment": func() errorCollector { return &gocd.Environment{} },
}

type ValidationResponse struct {
	Valid  bool              `json:"valid"`
	Errors validation.Report `json:"errors"`
}

type ErrorResponse struct {
	Message string `json:"message"`
}

func validateHandler(w http.ResponseWriter, r *http.Request) {
	newEntity, ok := validatableEntities[chi.URLParam(r, "entity")]

	if !ok {
		writeJson(w, http.StatusNotFound, ErrorResponse{Message: "Unknown entity " + chi.URLParam(r, "entity")})
		return
	}

	entity := newEntity()
	if err := json.NewDecoder(r.Body).Decode(entity); err != nil {
		writeJson(w, http.StatusBadRequest, ErrorResponse{Message: err.Error()})
		return
	}

	report := validation.Report{}
	entity.CollectErrors("", report)

	writeJson(w, http.StatusOK, ValidationResponse{Valid: report.IsEmpty(), Errors: report})
}

// exportHandler treats the body as a configuration file, the same as the one read from -configFile, and
// returns the generated files. Credentials come only from the body.
func exportHandler(w http.ResponseWriter, r *http.Request) {
	respBytes, err := io.ReadAll(r.Body)

	if err != nil {
		handleError(err, w)
		return
	}

	file, err := os.CreateTemp("", "*.json")

	if err != nil {
		handleError(err, w)
		return
	}

	// Clean up the file when we are done
	defer func(name string) {
		err := os.Remove(name)
		if err != nil {
			zap.L().Error(err.Error())
		}
	}(file.Name())

	if _, err := file.Write(respBytes); err != nil {
		handleError(err, w)
		return
	}

	if err := file.Close(); err != nil {
		handleError(err, w)
		return
	}

	filename := filepath.Base(file.Name())
	filenameWithoutExtension := strings.TrimSuffix(filename, filepath.Ext(filename))

	webArgs, _, err := args.ParseRequestArgs([]string{"-configFile", filenameWithoutExtension, "-configPath", filepath.Dir(file.Name())})

	if err != nil {
		writeJson(w, http.StatusBadRequest, ErrorResponse{Message: err.Error()})
		return
	}

	if webArgs.HasEnvironmentEdits() {
		writeJson(w, http.StatusBadRequest, ErrorResponse{Message: "the export endpoint does not create, edit or delete environments"})
		return
	}

	files, err := entry.Entry(r.Context(), webArgs)

	if err != nil {
		handleError(err, w)
		return
	}

	writeJson(w, http.StatusOK, files)
}

func handleError(err error, w http.ResponseWriter) {
	zap.L().Error(err.Error())
	writeJson(w, http.StatusInternalServerError, ErrorResponse{Message: err.Error()})
}

func writeJson(w http.ResponseWriter, status int, body any) {
	w.Header()["Content-Type"] = []string{"application/json; charset=utf-8"}
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Error(err.Error())
	}
}

func newRouter() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)

	router.Post("/api/validate/{entity}", validateHandler)
	router.Post("/api/export", exportHandler)
	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJson(w, http.StatusOK, map[string]string{"Hello": r.RequestURI})
	})

	return router
}

func main() {
	logger.BuildLogger(os.Getenv("GOCDTERRA_LOGLEVEL"))

	listenAddr := ":8080"
	if val, ok := os.LookupEnv("GOCDTERRA_PORT"); ok {
		listenAddr = ":" + val
	}

	server := &http.Server{Addr: listenAddr, Handler: newRouter()}

	zap.L().Info("About to listen on " + listenAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		zap.L().Fatal(err.Error())
	}
}

package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cartscope/advisor-cli/internal/model"
	"github.com/cartscope/advisor-cli/internal/scoring"
	"github.com/cartscope/advisor-cli/internal/store"
)

var (
	servePort    int
	serveOffline bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the recommendation API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx, serveOffline)
		if err != nil {
			return err
		}
		defer env.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           newRouter(env),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			_ = srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func newRouter(env *pipelineEnv) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/v1/analyze", func(w http.ResponseWriter, req *http.Request) {
		var input model.AnalysisInput
		if err := json.NewDecoder(req.Body).Decode(&input); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		if input.Empty() {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query or image_base64 is required"})
			return
		}

		result, err := env.Pipeline.Run(req.Context(), input)
		if err != nil {
			if model.IsInputError(err) {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
				return
			}
			zap.L().Error("analyze request failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "analysis failed"})
			return
		}
		writeJSON(w, http.StatusOK, result)
	})

	r.Get("/v1/runs/{id}", func(w http.ResponseWriter, req *http.Request) {
		run, err := env.Store.GetRun(req.Context(), chi.URLParam(req, "id"))
		if err != nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "run not found"})
			return
		}
		writeJSON(w, http.StatusOK, run)
	})

	r.Get("/v1/runs", func(w http.ResponseWriter, req *http.Request) {
		runs, err := env.Store.ListRuns(req.Context(), store.RunFilter{
			Status: model.RunStatus(req.URL.Query().Get("status")),
			UserID: req.URL.Query().Get("user_id"),
			Limit:  50,
		})
		if err != nil {
			zap.L().Error("list runs failed", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "list failed"})
			return
		}
		writeJSON(w, http.StatusOK, runs)
	})

	r.Post("/v1/runs/{id}/choice", func(w http.ResponseWriter, req *http.Request) {
		handleChoice(env, w, req)
	})

	return r
}

// handleChoice records which candidate the user went with and nudges their
// learned weights accordingly.
func handleChoice(env *pipelineEnv, w http.ResponseWriter, req *http.Request) {
	var body struct {
		UserID        string `json:"user_id"`
		CandidateName string `json:"candidate_name"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if body.UserID == "" || body.CandidateName == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "user_id and candidate_name are required"})
		return
	}

	run, err := env.Store.GetRun(req.Context(), chi.URLParam(req, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "run not found"})
		return
	}
	if run.Result == nil || run.Result.Ranked == nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "run has no ranked result"})
		return
	}

	chosen := findScored(run.Result.Ranked, body.CandidateName)
	if chosen == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "candidate not in this run"})
		return
	}

	deltas := scoring.ChoiceDeltas(*chosen, run.Result.Ranked.AppliedWeights)
	if err := env.Store.RecordChoice(req.Context(), body.UserID, deltas); err != nil {
		zap.L().Error("record choice failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "record choice failed"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": "recorded", "deltas": deltas})
}

func findScored(ranked *model.RankedResult, name string) *model.ScoredCandidate {
	if ranked.Display != nil && ranked.Display.Name == name {
		return ranked.Display
	}
	for i := range ranked.Alternatives {
		if ranked.Alternatives[i].Name == name {
			return &ranked.Alternatives[i]
		}
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	serveCmd.Flags().BoolVar(&serveOffline, "offline", false, "serve with canned providers, no external calls")
	rootCmd.AddCommand(serveCmd)
}

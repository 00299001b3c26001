package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/khabzox/business-lead-finder/internal/model"
	"github.com/khabzox/business-lead-finder/internal/pipeline"
	"github.com/khabzox/business-lead-finder/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API for lead generation requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if servePort == 0 {
			servePort = cfg.Server.Port
		}

		p, err := pipeline.New(cfg)
		if err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		if st != nil {
			defer st.Close()
		}

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))

		r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Post("/v1/leads", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				Records []model.RawRecord `json:"records"`
				Probe   *bool             `json:"probe,omitempty"`
				Filter  pipeline.Filter   `json:"filter,omitempty"`
			}
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
				return
			}
			if len(body.Records) == 0 {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "records are required"})
				return
			}

			opts := pipeline.Options{Probe: body.Probe == nil || *body.Probe}

			var run *model.Run
			if st != nil {
				created, err := st.CreateRun(req.Context())
				if err != nil {
					zap.L().Warn("serve: create run failed", zap.Error(err))
				} else {
					run = created
					opts.OnStage = func(status model.RunStatus) {
						if err := st.UpdateRunStatus(req.Context(), run.ID, status); err != nil {
							zap.L().Warn("serve: update status failed", zap.Error(err))
						}
					}
				}
			}

			result, err := p.Run(req.Context(), body.Records, opts)
			if err != nil {
				zap.L().Error("serve: pipeline run failed", zap.Error(err))
				if run != nil {
					if err := st.CompleteRun(context.Background(), run.ID, model.RunStatusFailed, model.RunSummary{}); err != nil {
						zap.L().Warn("serve: mark failed", zap.Error(err))
					}
				}
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "pipeline failed"})
				return
			}
			leads := body.Filter.Apply(result.Leads)

			if run != nil {
				persistServedRun(req, st, run.ID, result, leads)
			}

			writeJSON(w, http.StatusOK, struct {
				Leads   []model.BusinessRecord `json:"leads"`
				Summary model.RunSummary       `json:"summary"`
			}{leads, result.Summary})
		})

		r.Get("/v1/runs", func(w http.ResponseWriter, req *http.Request) {
			if st == nil {
				writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "no store configured"})
				return
			}
			runs, err := st.ListRuns(req.Context(), store.RunFilter{Limit: 50})
			if err != nil {
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "list runs failed"})
				return
			}
			writeJSON(w, http.StatusOK, runs)
		})

		r.Get("/v1/runs/{id}", func(w http.ResponseWriter, req *http.Request) {
			if st == nil {
				writeJSON(w, http.StatusNotImplemented, map[string]string{"error": "no store configured"})
				return
			}
			id := chi.URLParam(req, "id")
			run, err := st.GetRun(req.Context(), id)
			if err != nil {
				writeJSON(w, http.StatusNotFound, map[string]string{"error": "run not found"})
				return
			}
			leads, err := st.ListLeads(req.Context(), id)
			if err != nil {
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "list leads failed"})
				return
			}
			writeJSON(w, http.StatusOK, struct {
				Run   *model.Run             `json:"run"`
				Leads []model.BusinessRecord `json:"leads"`
			}{run, leads})
		})

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", servePort),
			Handler:           r,
			ReadHeaderTimeout: 10 * time.Second,
		}

		errCh := make(chan error, 1)
		go func() {
			zap.L().Info("serve: listening", zap.Int("port", servePort))
			errCh <- srv.ListenAndServe()
		}()

		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		case err := <-errCh:
			return err
		}
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "port to listen on (default from config)")
	rootCmd.AddCommand(serveCmd)
}

func persistServedRun(req *http.Request, st store.Store, runID string, result *pipeline.Result, leads []model.BusinessRecord) {
	if err := st.SaveLeads(req.Context(), runID, leads); err != nil {
		zap.L().Warn("serve: save leads failed", zap.Error(err))
		return
	}
	if err := st.CompleteRun(req.Context(), runID, model.RunStatusRanked, result.Summary); err != nil {
		zap.L().Warn("serve: complete run failed", zap.Error(err))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/dealflow/internal/company"
	"github.com/sells-group/dealflow/internal/ingest"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the local admin API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		r := chi.NewRouter()
		r.Use(middleware.RequestID)
		r.Use(middleware.Recoverer)
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
		}))

		r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Post("/resolve", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				Name   string `json:"name"`
				Domain string `json:"domain"`
			}
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			if body.Name == "" && body.Domain == "" {
				writeError(w, http.StatusBadRequest, "name or domain is required")
				return
			}
			id, err := env.resolver.ResolveID(req.Context(), body.Name, body.Domain)
			if err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"company_id": id, "matched": id != ""})
		})

		r.Post("/companies/get-or-create", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				Name    string `json:"name"`
				Domain  string `json:"domain"`
				Website string `json:"website_url"`
				City    string `json:"city"`
			}
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			c, created, err := env.resolver.GetOrCreateByName(req.Context(), body.Name, company.CreateOptions{
				Domain:     body.Domain,
				WebsiteURL: body.Website,
				City:       body.City,
			})
			if err != nil {
				if eris.Is(err, company.ErrEmptyName) {
					writeError(w, http.StatusBadRequest, err.Error())
					return
				}
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			status := http.StatusOK
			if created {
				status = http.StatusCreated
			}
			writeJSON(w, status, map[string]any{"company": c, "created": created})
		})

		r.Post("/companies/classify", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				Name       string   `json:"name"`
				Domain     string   `json:"domain"`
				EntityType string   `json:"entity_type"`
				Include    bool     `json:"include_in_primary_view"`
				Confidence *float64 `json:"confidence"`
			}
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			if body.EntityType == "" {
				writeError(w, http.StatusBadRequest, "entity_type is required")
				return
			}
			c, err := env.resolver.UpsertClassification(req.Context(), body.Name, body.Domain,
				company.EntityType(body.EntityType), body.Include, body.Confidence)
			if err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			writeJSON(w, http.StatusOK, c)
		})

		r.Post("/meetings", func(w http.ResponseWriter, req *http.Request) {
			var m ingest.Meeting
			if err := json.NewDecoder(req.Body).Decode(&m); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			stats, err := env.ingestor.IngestMeeting(req.Context(), m)
			if err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			writeJSON(w, http.StatusOK, stats)
		})

		r.Post("/sync/attendees", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				Attendees      []string `json:"attendees"`
				AttendeeEmails []string `json:"attendee_emails"`
			}
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			stats, err := env.syncer.SyncAttendees(req.Context(), body.Attendees, body.AttendeeEmails)
			if err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			writeJSON(w, http.StatusOK, stats)
		})

		r.Post("/sync/meetings", func(w http.ResponseWriter, req *http.Request) {
			stats, err := env.ingestor.SyncContactsFromMeetings(req.Context())
			if err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
			writeJSON(w, http.StatusOK, stats)
		})

		r.Post("/merge", func(w http.ResponseWriter, req *http.Request) {
			var body struct {
				TargetID string `json:"target_id"`
				SourceID string `json:"source_id"`
			}
			if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
				writeError(w, http.StatusBadRequest, "invalid request body")
				return
			}
			result, err := env.merger.Merge(req.Context(), body.TargetID, body.SourceID)
			if err != nil {
				switch {
				case eris.Is(err, company.ErrSameCompany):
					writeError(w, http.StatusBadRequest, err.Error())
				case eris.Is(err, company.ErrNotFound):
					writeError(w, http.StatusNotFound, err.Error())
				default:
					writeError(w, http.StatusInternalServerError, err.Error())
				}
				return
			}
			writeJSON(w, http.StatusOK, result)
		})

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: r,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

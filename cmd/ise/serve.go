package main

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/nuuday/NDCiscoISE/pkg/ers"
	"github.com/nuuday/NDCiscoISE/pkg/logging"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a local proxy that funnels ERS calls through one shared rate gate",
		Long: `Serve starts an HTTP proxy in front of the ISE node. Every request under
/ers/ is forwarded through the shared admission gate, so tools that are
not rate-limit aware can share one appliance connection budget.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}

			logger := logging.NewLogger("proxy")

			router := chi.NewRouter()
			router.Use(middleware.RequestID)
			router.Use(middleware.Recoverer)

			router.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("OK"))
			})
			router.Handle("/metrics", promhttp.Handler())
			router.HandleFunc("/ers/*", proxyHandler(client))

			logger.Info().Str("addr", addr).Msg("Proxy listening")
			server := &http.Server{
				Addr:              addr,
				Handler:           router,
				ReadHeaderTimeout: 10 * time.Second,
			}
			return server.ListenAndServe()
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	return cmd
}

// proxyHandler forwards one request through the gated client. The proxy
// adds credentials and rate admission; path and body pass through as-is.
func proxyHandler(client *ers.Client) http.HandlerFunc {
	verbs := map[string]ers.Verb{
		http.MethodGet:    ers.VerbGet,
		http.MethodPost:   ers.VerbPost,
		http.MethodPut:    ers.VerbPut,
		http.MethodPatch:  ers.VerbPatch,
		http.MethodDelete: ers.VerbDelete,
	}

	return func(w http.ResponseWriter, r *http.Request) {
		verb, ok := verbs[r.Method]
		if !ok {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		body := ers.NoBody
		if data, err := io.ReadAll(r.Body); err == nil && len(data) > 0 {
			contentType := r.Header.Get("Content-Type")
			if contentType == "" {
				contentType = "application/json"
			}
			body = ers.RawBody(contentType, data)
		}

		path := chi.URLParam(r, "*")
		if r.URL.RawQuery != "" {
			path += "?" + r.URL.RawQuery
		}

		outcome := client.Raw(r.Context(), verb, path, body)
		writeOutcome(w, outcome)
	}
}

func writeOutcome(w http.ResponseWriter, outcome ers.CallOutcome) {
	if outcome.Status == ers.StatusTransport {
		http.Error(w, outcome.Err.Error(), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(outcome.HTTPStatus)

	switch {
	case outcome.BulkID != "":
		json.NewEncoder(w).Encode(map[string]string{"bulkId": outcome.BulkID})
	case outcome.Payload != nil:
		json.NewEncoder(w).Encode(outcome.Payload)
	case outcome.Err != nil:
		json.NewEncoder(w).Encode(map[string]string{"error": outcome.Err.Error()})
	}
}

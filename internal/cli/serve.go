package cli

import (
	"fmt"

	"resumatch/internal/server"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP matching API",
	Long: `Start an HTTP server that exposes resume matching over REST.

Available endpoints:
- POST /match: Score a resume against an inline job or a job ID
- POST /rank: Rank every job in the job source for a resume
- GET /vocabulary: Current skill vocabulary
- POST /vocabulary/rebuild: Rebuild the vocabulary from the job source
- GET /health: Health check endpoint
- GET /stats: Server statistics and rate limiting info

HTTPS is enabled when both --cert-file and --key-file (or the matching
config keys) are set.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().String("host", "", "Host to bind to (default from config)")
	serveCmd.Flags().String("cert-file", "", "Server certificate file (PEM, overrides config)")
	serveCmd.Flags().String("key-file", "", "Server private key file (PEM, overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	overrides := map[string]*string{
		"port":      &cfg.Server.Port,
		"host":      &cfg.Server.Host,
		"cert-file": &cfg.Server.TLS.CertFile,
		"key-file":  &cfg.Server.TLS.KeyFile,
	}
	for flag, target := range overrides {
		if cmd.Flags().Changed(flag) {
			value, err := cmd.Flags().GetString(flag)
			if err != nil {
				return err
			}
			*target = value
		}
	}
	if (cfg.Server.TLS.CertFile == "") != (cfg.Server.TLS.KeyFile == "") {
		return fmt.Errorf("invalid TLS configuration: cert file and key file must be set together")
	}

	a, err := newApp(cmd.Context(), cfg, logger, appOptions{observability: true, watch: true})
	if err != nil {
		return err
	}
	defer a.Close()

	serverCfg := server.ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		Version:        Version,
		TLSConfig:      cfg.Server.TLS,
		APIKeys:        cfg.Server.APIKeys,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxRequestSize: cfg.Server.MaxRequestSize,
		RateLimit:      &cfg.Server.RateLimit,
	}
	deps := server.Dependencies{
		Matcher:         a.matcher,
		Jobs:            a.jobs,
		Seed:            a.seed,
		Generator:       a.generator,
		DefaultStrategy: a.defaultStrategy(),
		RankLimit:       cfg.Match.RankLimit,
		Observability:   a.om,
	}
	return server.NewServer(cfg, serverCfg, deps, logger).Start()
}

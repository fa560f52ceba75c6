package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"fedsearch/internal/engine"
	"fedsearch/internal/flags"
	"fedsearch/internal/remote"
	"fedsearch/internal/repository"
	"fedsearch/internal/repository/sqlrepo"

	"github.com/spf13/cobra"
)

// EnvServeToken is consulted when --token is not given.
const EnvServeToken = "FEDSEARCH_SERVE_TOKEN"

var serveOpts struct {
	domain string
	db     string
	listen string
	token  string
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose a SQLite domain repository over HTTP",
	Long: `Serve one SQLite domain repository over HTTP so other fedsearch
instances can reach it with the "remote" driver.

The database is opened query-only: statements that write are rejected.

Authentication:
  With --token (or $` + EnvServeToken + `), every request must carry
  "Authorization: Bearer <token>".

Examples:
  fedsearch serve --domain LINZ --db ./linz.db --listen :8090
`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		applyImplicitDefaults(cmd, cfg)
		if strings.TrimSpace(serveOpts.domain) == "" {
			return fmt.Errorf("--%s is required", flags.FlagDomain)
		}
		if strings.TrimSpace(serveOpts.db) == "" {
			return fmt.Errorf("--%s is required", flags.FlagDB)
		}
		token, _, err := remote.ResolveToken(serveOpts.token, EnvServeToken)
		if err != nil {
			return err
		}

		conn, err := sqlrepo.Open(repository.Domain(serveOpts.domain), serveOpts.db, 0)
		if err != nil {
			return err
		}
		defer conn.Close()

		logger := engine.NewLogger(os.Stderr, cfg.Runtime.LogLevel, cfg.Runtime.LogFormat)
		srv := &http.Server{
			Addr:              serveOpts.listen,
			Handler:           remote.NewHandler(repository.NewClassCache(conn), remote.RequireToken(token), remote.WithHandlerLogger(logger)),
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() { errCh <- srv.ListenAndServe() }()
		if token == "" {
			logger.Warn("serving without authentication, any client can run read statements", "domain", serveOpts.domain, "hint", "set --"+flags.FlagToken+" or $"+EnvServeToken)
		}
		logger.Info("serving domain", "domain", serveOpts.domain, "listen", serveOpts.listen, "auth", token != "")

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveOpts.domain, flags.FlagDomain, "", "Domain name of the served repository")
	serveCmd.Flags().StringVar(&serveOpts.db, flags.FlagDB, "", "SQLite database file")
	serveCmd.Flags().StringVar(&serveOpts.listen, flags.FlagListen, ":8090", "Listen address")
	serveCmd.Flags().StringVar(&serveOpts.token, flags.FlagToken, "", "Bearer token clients must present (default: $"+EnvServeToken+")")
}

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/justindh/ChingyWebApi/internal/config"
	"github.com/justindh/ChingyWebApi/internal/directory"
	"github.com/justindh/ChingyWebApi/internal/directory/pg"
	"github.com/justindh/ChingyWebApi/internal/eve"
	"github.com/justindh/ChingyWebApi/internal/flowstate"
	apphttp "github.com/justindh/ChingyWebApi/internal/http"
	authctrl "github.com/justindh/ChingyWebApi/internal/http/controllers/auth"
	healthctrl "github.com/justindh/ChingyWebApi/internal/http/controllers/health"
	"github.com/justindh/ChingyWebApi/internal/http/router"
	authsvc "github.com/justindh/ChingyWebApi/internal/http/services/auth"
	jwtx "github.com/justindh/ChingyWebApi/internal/jwt"
	"github.com/justindh/ChingyWebApi/internal/observability/logger"
)

func serveCmd() *cobra.Command {
	var cfgPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Levanta el broker HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Si no pasaron -c y el archivo default no existe, config por env.
			if !cmd.Flags().Changed("config") {
				if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
					cfgPath = ""
				}
			}
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}

			logger.Init(logger.Config{
				Env:         cfg.App.Env,
				Level:       cfg.Log.Level,
				ServiceName: "chingyd",
			})
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store, err := directory.Open(ctx, directory.Config{
				Driver: cfg.Directory.Driver,
				Redis: directory.RedisConfig{
					Addr: cfg.Directory.Redis.Addr,
					DB:   cfg.Directory.Redis.DB,
				},
				Postgres: directory.PostgresConfig{
					DSN:      cfg.Directory.Postgres.DSN,
					MaxConns: cfg.Directory.Postgres.MaxConns,
				},
			})
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			codec, err := flowstate.NewCodec(cfg.Auth.StateSecret)
			if err != nil {
				return err
			}
			issuer, err := jwtx.NewIssuer(cfg.Auth.Issuer, cfg.Auth.SessionSecret)
			if err != nil {
				return err
			}
			sso := eve.New(cfg.SSO.BaseURL,
				eve.ClientProfile{
					ClientID:     cfg.SSO.Login.ClientID,
					ClientSecret: cfg.SSO.Login.ClientSecret,
					RedirectURL:  cfg.SSO.Login.RedirectURL,
				},
				eve.ClientProfile{
					ClientID:     cfg.SSO.Register.ClientID,
					ClientSecret: cfg.SSO.Register.ClientSecret,
					RedirectURL:  cfg.SSO.Register.RedirectURL,
				},
			)

			service := authsvc.NewService(codec, issuer, sso, store, authsvc.Config{
				BaseURL:        cfg.Server.BaseURL,
				ErrorRedirect:  cfg.Auth.ErrorRedirect,
				CustomTokenTTL: cfg.Auth.CustomTokenTTL,
				Cookie: authsvc.CookieSettings{
					Domain:   cfg.Auth.Cookie.Domain,
					SameSite: cfg.Auth.Cookie.SameSite,
					Secure:   cfg.Auth.Cookie.Secure,
				},
			})

			metricsCfg := apphttp.MetricsConfig{}
			if pgStore, ok := store.(*pg.Store); ok {
				metricsCfg.DirectoryPool = pgStore.Pool
			}
			metricsHandler, err := apphttp.RegisterMetrics(metricsCfg)
			if err != nil {
				return err
			}

			handler := router.New(router.Deps{
				Auth:               authctrl.NewControllers(service),
				Health:             healthctrl.NewController(store),
				Issuer:             issuer,
				Metrics:            metricsHandler,
				CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
			})

			srv := apphttp.NewServer(cfg.Server.Addr, handler)
			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start() }()

			logger.L().Info("broker listening",
				logger.String("addr", cfg.Server.Addr),
				logger.String("directory", cfg.Directory.Driver),
			)

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			logger.L().Info("shutting down")
			shctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(shctx)
		},
	}

	cmd.Flags().StringVarP(&cfgPath, "config", "c", "config.yaml", "ruta del archivo de configuración")
	return cmd
}

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cjcjon/blog-backend/internal/assets"
	"github.com/cjcjon/blog-backend/internal/auth"
	"github.com/cjcjon/blog-backend/internal/config"
	"github.com/cjcjon/blog-backend/internal/database"
	"github.com/cjcjon/blog-backend/internal/lectures"
	"github.com/cjcjon/blog-backend/internal/logging"
	"github.com/cjcjon/blog-backend/internal/posts"
	"github.com/cjcjon/blog-backend/internal/series"
	"github.com/cjcjon/blog-backend/internal/server"
	"github.com/cjcjon/blog-backend/internal/users"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	cfgFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "blog-api",
		Short: "Blog and course platform backend service",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	setupFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().String("http-address", defaults.GetString("http.address"), "HTTP listen address")
	cmd.PersistentFlags().String("database-path", defaults.GetString("database.path"), "SQLite database path")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("signing-secret", "", "Session signing secret (overrides env)")
	cmd.PersistentFlags().String("front-base-url", defaults.GetString("front.base_url"), "Public frontend base URL")
	cmd.PersistentFlags().String("asset-endpoint", defaults.GetString("asset.endpoint"), "S3-compatible asset store endpoint")
	cmd.PersistentFlags().String("asset-region", defaults.GetString("asset.region"), "Asset store region")
	cmd.PersistentFlags().String("asset-bucket", defaults.GetString("asset.bucket"), "Asset store bucket")
	cmd.PersistentFlags().String("asset-access-key", "", "Asset store access key (overrides env)")
	cmd.PersistentFlags().String("asset-secret-key", "", "Asset store secret key (overrides env)")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "database.path", "database-path")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "auth.signing_secret", "signing-secret")
	bindFlag(cmd, "front.base_url", "front-base-url")
	bindFlag(cmd, "asset.endpoint", "asset-endpoint")
	bindFlag(cmd, "asset.region", "asset-region")
	bindFlag(cmd, "asset.bucket", "asset-bucket")
	bindFlag(cmd, "asset.access_key", "asset-access-key")
	bindFlag(cmd, "asset.secret_key", "asset-secret-key")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		var configNotFound viper.ConfigFileNotFoundError
		if cfgFile != "" && errors.As(err, &configNotFound) {
			return err
		}
	}

	return nil
}

func runServer(ctx context.Context) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(appConfig.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	db, err := database.OpenSQLite(appConfig.DatabasePath, logger)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	tokenService, err := auth.NewTokenService(auth.TokenServiceConfig{
		SigningSecret: []byte(appConfig.SigningSecret),
		Issuer:        "blog-api",
	})
	if err != nil {
		return err
	}

	usersService, err := users.NewService(users.ServiceConfig{Database: db, Logger: logger})
	if err != nil {
		return err
	}
	lecturesService, err := lectures.NewService(lectures.ServiceConfig{Database: db, Logger: logger})
	if err != nil {
		return err
	}
	seriesService, err := series.NewService(series.ServiceConfig{Database: db, Logger: logger})
	if err != nil {
		return err
	}
	postsService, err := posts.NewService(posts.ServiceConfig{Database: db, Logger: logger})
	if err != nil {
		return err
	}

	assetStore := assets.NewStore(assets.StoreConfig{
		EndpointURL:     appConfig.AssetEndpointURL,
		Region:          appConfig.AssetRegion,
		Bucket:          appConfig.AssetBucket,
		AccessKeyID:     appConfig.AssetAccessKey,
		SecretAccessKey: appConfig.AssetSecretKey,
		ForcePathStyle:  appConfig.AssetPathStyle,
		ThumbnailFolder: appConfig.ThumbnailFolder,
		PostImageFolder: appConfig.PostImageFolder,
		Logger:          logger,
	})

	handler, err := server.NewHTTPHandler(server.Dependencies{
		TokenService:    tokenService,
		UsersService:    usersService,
		LecturesService: lecturesService,
		SeriesService:   seriesService,
		PostsService:    postsService,
		AssetStore:      assetStore,
		CookieName:      appConfig.CookieName,
		FrontBaseURL:    appConfig.FrontBaseURL,
		Logger:          logger,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    appConfig.HTTPAddress,
		Handler: handler,
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("address", appConfig.HTTPAddress))
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-signalCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

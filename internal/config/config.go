package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	envPrefix               = "BLOG"
	defaultHTTPAddress      = "0.0.0.0:8080"
	defaultDatabasePath     = "blog.db"
	defaultLogLevel         = "info"
	defaultCookieName       = "access_token"
	defaultThumbnailFolder  = "thumbnail"
	defaultPostImageFolder  = "postimage"
	defaultAssetStoreRegion = "us-east-1"
	defaultFrontBaseURL     = "http://localhost:3000"
)

// AppConfig captures runtime configuration for the API server.
type AppConfig struct {
	HTTPAddress      string
	DatabasePath     string
	LogLevel         string
	SigningSecret    string
	CookieName       string
	FrontBaseURL     string
	AssetEndpointURL string
	AssetRegion      string
	AssetBucket      string
	AssetAccessKey   string
	AssetSecretKey   string
	AssetPathStyle   bool
	ThumbnailFolder  string
	PostImageFolder  string
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("database.path", defaultDatabasePath)
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("auth.cookie_name", defaultCookieName)
	configViper.SetDefault("front.base_url", defaultFrontBaseURL)
	configViper.SetDefault("asset.region", defaultAssetStoreRegion)
	configViper.SetDefault("asset.path_style", false)
	configViper.SetDefault("asset.thumbnail_folder", defaultThumbnailFolder)
	configViper.SetDefault("asset.postimage_folder", defaultPostImageFolder)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:      configViper.GetString("http.address"),
		DatabasePath:     configViper.GetString("database.path"),
		LogLevel:         configViper.GetString("log.level"),
		SigningSecret:    configViper.GetString("auth.signing_secret"),
		CookieName:       configViper.GetString("auth.cookie_name"),
		FrontBaseURL:     configViper.GetString("front.base_url"),
		AssetEndpointURL: configViper.GetString("asset.endpoint"),
		AssetRegion:      configViper.GetString("asset.region"),
		AssetBucket:      configViper.GetString("asset.bucket"),
		AssetAccessKey:   configViper.GetString("asset.access_key"),
		AssetSecretKey:   configViper.GetString("asset.secret_key"),
		AssetPathStyle:   configViper.GetBool("asset.path_style"),
		ThumbnailFolder:  configViper.GetString("asset.thumbnail_folder"),
		PostImageFolder:  configViper.GetString("asset.postimage_folder"),
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func (c AppConfig) validate() error {
	if strings.TrimSpace(c.SigningSecret) == "" {
		return fmt.Errorf("auth.signing_secret is required")
	}
	if strings.TrimSpace(c.DatabasePath) == "" {
		return fmt.Errorf("database.path is required")
	}
	if strings.TrimSpace(c.CookieName) == "" {
		return fmt.Errorf("auth.cookie_name is required")
	}
	return nil
}

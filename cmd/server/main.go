package main

import (
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/lychee-technology/activestore/internal"
	"github.com/lychee-technology/activestore/internal/memapi"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// serverConfig holds the settings of the in-memory API server.
type serverConfig struct {
	Port      string   `mapstructure:"port"`
	Prefix    string   `mapstructure:"prefix"`
	SchemaDir string   `mapstructure:"schema_dir"`
	UUIDKeys  []string `mapstructure:"uuid_keys"`
}

func loadServerConfig() (serverConfig, error) {
	v := viper.New()
	v.SetDefault("port", "8080")
	v.SetDefault("prefix", "/api/v1")
	v.SetDefault("schema_dir", "schemas")
	v.SetDefault("uuid_keys", []string{})

	v.SetEnvPrefix("ACTIVESTORE_SERVER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg serverConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decode server config: %w", err)
	}
	return cfg, nil
}

// buildResources registers every schema in dir and derives the served routes.
func buildResources(dir string, uuidModels []string) ([]memapi.Resource, error) {
	definitions, err := internal.LoadDefinitionsFromDir(dir)
	if err != nil {
		return nil, err
	}

	useUUID := internal.NewSet(uuidModels...)
	registry := internal.NewModelRegistry(internal.NewInflector())
	resources := make([]memapi.Resource, 0, len(definitions))
	for _, name := range internal.SortedKeys(definitions) {
		meta, err := registry.Register(name, definitions[name])
		if err != nil {
			return nil, err
		}
		resource := memapi.ResourceFor(meta)
		resource.UUIDKeys = useUUID.Contains(meta.Name)
		resources = append(resources, resource)
	}
	return resources, nil
}

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	sugar := logger.Sugar()

	cfg, err := loadServerConfig()
	if err != nil {
		sugar.Fatalf("failed to load config: %v", err)
	}
	sugar.Infof("schemaDir: %s", cfg.SchemaDir)

	resources, err := buildResources(cfg.SchemaDir, cfg.UUIDKeys)
	if err != nil {
		sugar.Fatalf("failed to load models: %v", err)
	}
	for _, res := range resources {
		sugar.Infow("serving resource", "route", res.Route, "primaryKey", res.PrimaryKey, "singleton", res.Singleton)
	}

	api := memapi.NewServer(cfg.Prefix, resources...)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api,
		ReadHeaderTimeout: 10 * time.Second,
	}
	sugar.Infow("starting server", "port", cfg.Port, "prefix", cfg.Prefix)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		sugar.Errorf("server error: %v", err)
		os.Exit(1)
	}
}

package api_test

import (
	"testing"

	"github.com/scorely/scorely/internal/api"
	"github.com/scorely/scorely/internal/config"
	"github.com/scorely/scorely/internal/gateway"
	"github.com/scorely/scorely/internal/infrastructure"
	"github.com/scorely/scorely/pkg/database"
	"github.com/scorely/scorely/pkg/middleware"
	"github.com/scorely/scorely/pkg/pagination"
	"github.com/scorely/scorely/pkg/storage"
)

const azuriteConnString = "DefaultEndpointsProtocol=http;AccountName=scorelystore;AccountKey=Eby8vdM02xNOcqFlqUwJPLlmEtlCDXJ1OUzFT50uSRZ6IFsuFq2UVErCz4I6tq/K1SZFPTOtr/KBHBeksoGMGw==;BlobEndpoint=http://127.0.0.1:10000/scorelystore;"

func validConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     "1m",
			WriteTimeout:    "15m",
			ShutdownTimeout: "30s",
		},
		Database: database.Config{
			Host:            "localhost",
			Port:            5432,
			Name:            "scorely",
			User:            "scorely",
			Password:        "scorely",
			SSLMode:         "disable",
			MaxOpenConns:    25,
			MaxIdleConns:    5,
			ConnMaxLifetime: "15m",
			ConnTimeout:     "5s",
		},
		Storage: storage.Config{
			ContainerName:    "runs",
			ConnectionString: azuriteConnString,
		},
		Gateway: gateway.Config{
			BaseURL:        "http://localhost:3000",
			PollInterval:   "3s",
			RequestTimeout: "90s",
		},
		API: config.APIConfig{
			BasePath:    "/api",
			MaxBodySize: "4MB",
			CORS: middleware.CORSConfig{
				Enabled: false,
			},
			Pagination: pagination.Config{
				DefaultPageSize: 20,
				MaxPageSize:     100,
			},
		},
		ShutdownTimeout: "30s",
		Version:         "0.1.0",
	}
}

func setupInfra(t *testing.T) *infrastructure.Infrastructure {
	t.Helper()
	infra, err := infrastructure.New(validConfig())
	if err != nil {
		t.Fatalf("infrastructure.New() error = %v", err)
	}
	return infra
}

func TestNewModule(t *testing.T) {
	cfg := validConfig()
	infra := setupInfra(t)

	m, err := api.NewModule(cfg, infra)
	if err != nil {
		t.Fatalf("NewModule() error = %v", err)
	}

	if m.Prefix() != "/api" {
		t.Errorf("prefix: got %s, want /api", m.Prefix())
	}
}

func TestNewRuntime(t *testing.T) {
	cfg := validConfig()
	infra := setupInfra(t)

	runtime := api.NewRuntime(cfg, infra)

	if runtime.Pagination.DefaultPageSize != 20 {
		t.Errorf("pagination default page size: got %d, want 20", runtime.Pagination.DefaultPageSize)
	}
	if runtime.Pagination.MaxPageSize != 100 {
		t.Errorf("pagination max page size: got %d, want 100", runtime.Pagination.MaxPageSize)
	}
	if runtime.Logger == nil {
		t.Error("runtime logger is nil")
	}
	if runtime.Database == nil {
		t.Error("runtime database is nil")
	}
	if runtime.Storage == nil {
		t.Error("runtime storage is nil")
	}
	if runtime.Lifecycle == nil {
		t.Error("runtime lifecycle is nil")
	}
	if runtime.Gateway == nil {
		t.Error("runtime gateway is nil")
	}
}

func TestNewDomain(t *testing.T) {
	cfg := validConfig()
	infra := setupInfra(t)
	runtime := api.NewRuntime(cfg, infra)

	domain := api.NewDomain(runtime, cfg.API.MaxBodySizeBytes())
	if domain == nil {
		t.Fatal("NewDomain() returned nil")
	}
}

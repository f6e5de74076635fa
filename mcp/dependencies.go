package mcp

import (
	"io"
	"log/slog"

	"github.com/ludo-technologies/dupscan/domain"
	"github.com/ludo-technologies/dupscan/internal/config"
	"github.com/ludo-technologies/dupscan/service"
)

// Dependencies aggregates the shared services required by MCP handlers.
type Dependencies struct {
	fileReader domain.FileReader
	config     *config.Config
	configPath string
	logger     *slog.Logger
}

// NewDependencies constructs the dependency set with sane defaults.
func NewDependencies(cfg *config.Config, configPath string, logger *slog.Logger) *Dependencies {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Dependencies{
		fileReader: service.NewFileReader(),
		config:     cfg,
		configPath: configPath,
		logger:     logger,
	}
}

// Config exposes the loaded configuration snapshot.
func (d *Dependencies) Config() *config.Config {
	return d.config
}

// ConfigPath returns the path the configuration was loaded from (may be empty).
func (d *Dependencies) ConfigPath() string {
	return d.configPath
}

// BuildSimilarityService assembles a fresh service. Progress bars are
// disabled because stdout carries the JSON-RPC stream.
func (d *Dependencies) BuildSimilarityService() *service.SimilarityService {
	return service.NewSimilarityService(d.fileReader, nil).WithLogger(d.logger)
}

// BaseRequest converts the configuration snapshot into a request
func (d *Dependencies) BaseRequest() *domain.SimilarityRequest {
	req := service.ConfigToRequest(d.config)
	req.ConfigPath = d.configPath
	return req
}

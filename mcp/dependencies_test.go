package mcp

import (
	"github.com/ludo-technologies/dupscan/domain"
	"github.com/ludo-technologies/dupscan/internal/config"
)

func NewTestDependencies(fr domain.FileReader, cfg *config.Config, path string) *Dependencies {
	deps := NewDependencies(cfg, path, nil)
	deps.fileReader = fr
	return deps
}

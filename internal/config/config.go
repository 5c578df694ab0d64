// Package config loads and validates the locushunter run settings.
package config

import (
	"fmt"

	"github.com/yumyai/locushunter/internal/util"
	"github.com/yumyai/locushunter/pkg/cdhit"
	"github.com/yumyai/locushunter/pkg/model"
	"go.uber.org/zap/zapcore"
)

// Config holds every setting of a run. Keys match the command-line flags.
type Config struct {
	QueryFAA          string   `mapstructure:"query-faa"`
	GenbankDir        string   `mapstructure:"gbk-dir"`
	EValue            float64  `mapstructure:"evalue"`
	Extension         int      `mapstructure:"extension"`
	MinHitsPerLocus   int      `mapstructure:"min-hits-per-locus"`
	OrthologIdentity  float64  `mapstructure:"ortholog-identity"`
	DereplicateLoci   bool     `mapstructure:"dereplicate-loci"`
	IncludeLocusNames []string `mapstructure:"include-locus-names"`
	LabelAttributes   []string `mapstructure:"label-attributes"`
	Output            string   `mapstructure:"output"`
	Threads           int      `mapstructure:"threads"`
	Debug             bool     `mapstructure:"debug"`
	Progress          bool     `mapstructure:"progress"`
	CatalogPath       string   `mapstructure:"catalog"`
	WorkDir           string   `mapstructure:"work-dir"`
	BlastpBin         string   `mapstructure:"blastp"`
	MakeblastdbBin    string   `mapstructure:"makeblastdb"`
	CdhitBin          string   `mapstructure:"cd-hit"`
}

func (c *Config) LogLevel() zapcore.Level {
	if c.Debug {
		return zapcore.DebugLevel
	}
	return zapcore.InfoLevel
}

// Validate rejects unusable settings before any external tool is started.
func (c *Config) Validate() error {
	switch {
	case c.QueryFAA == "":
		return &model.ConfigError{Field: "query-faa", Reason: "is required"}
	case c.GenbankDir == "":
		return &model.ConfigError{Field: "gbk-dir", Reason: "is required"}
	case c.EValue <= 0:
		return &model.ConfigError{Field: "evalue", Reason: fmt.Sprintf("must be positive, got %g", c.EValue)}
	case c.Extension < 0:
		return &model.ConfigError{Field: "extension", Reason: fmt.Sprintf("must not be negative, got %d", c.Extension)}
	case c.MinHitsPerLocus < 1:
		return &model.ConfigError{Field: "min-hits-per-locus", Reason: fmt.Sprintf("must be at least 1, got %d", c.MinHitsPerLocus)}
	case c.OrthologIdentity <= 0 || c.OrthologIdentity > 1:
		return &model.ConfigError{Field: "ortholog-identity", Reason: fmt.Sprintf("must be in (0, 1], got %g", c.OrthologIdentity)}
	case c.Threads < 1:
		return &model.ConfigError{Field: "threads", Reason: fmt.Sprintf("must be at least 1, got %d", c.Threads)}
	case c.Output == "":
		return &model.ConfigError{Field: "output", Reason: "is required"}
	}

	if _, err := cdhit.WordSize(c.OrthologIdentity); err != nil {
		return err
	}
	if !util.FileExists(c.QueryFAA) {
		return &model.ConfigError{Field: "query-faa", Reason: fmt.Sprintf("%s is not a file", c.QueryFAA)}
	}
	if !util.DirExists(c.GenbankDir) {
		return &model.ConfigError{Field: "gbk-dir", Reason: fmt.Sprintf("%s is not a directory", c.GenbankDir)}
	}
	if c.WorkDir != "" && !util.DirExists(c.WorkDir) {
		return &model.ConfigError{Field: "work-dir", Reason: fmt.Sprintf("%s is not a directory", c.WorkDir)}
	}
	return nil
}

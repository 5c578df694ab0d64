package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/yumyai/locushunter/logger"
)

// envPrefix maps key "query-faa" to LOCUSHUNTER_QUERY_FAA.
const envPrefix = "LOCUSHUNTER"

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	d := Default()
	v.SetDefault("query-faa", d.QueryFAA)
	v.SetDefault("gbk-dir", d.GenbankDir)
	v.SetDefault("evalue", d.EValue)
	v.SetDefault("extension", d.Extension)
	v.SetDefault("min-hits-per-locus", d.MinHitsPerLocus)
	v.SetDefault("ortholog-identity", d.OrthologIdentity)
	v.SetDefault("dereplicate-loci", d.DereplicateLoci)
	v.SetDefault("include-locus-names", d.IncludeLocusNames)
	v.SetDefault("label-attributes", d.LabelAttributes)
	v.SetDefault("output", d.Output)
	v.SetDefault("threads", d.Threads)
	v.SetDefault("debug", d.Debug)
	v.SetDefault("progress", d.Progress)
	v.SetDefault("catalog", d.CatalogPath)
	v.SetDefault("work-dir", d.WorkDir)
	v.SetDefault("blastp", d.BlastpBin)
	v.SetDefault("makeblastdb", d.MakeblastdbBin)
	v.SetDefault("cd-hit", d.CdhitBin)
	return v
}

// Load layers, from lowest to highest precedence: defaults, the dotenv file,
// LOCUSHUNTER_* environment variables, and flags set on the command line.
// An empty envFile means ".env" in the working directory.
func Load(flags *pflag.FlagSet, envFile string) (*Config, error) {
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		logger.Warn("No .env found, using local environment")
	}

	v := newViper()
	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return nil, fmt.Errorf("config: failed to bind flags: %w", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}
	cfg.IncludeLocusNames = cleanList(cfg.IncludeLocusNames)
	cfg.LabelAttributes = cleanList(cfg.LabelAttributes)
	return cfg, nil
}

// cleanList trims entries and drops empty ones.
func cleanList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

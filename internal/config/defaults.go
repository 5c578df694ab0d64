package config

import (
	"github.com/spf13/pflag"
	"github.com/yumyai/locushunter/pkg/blast"
	"github.com/yumyai/locushunter/pkg/cdhit"
)

const (
	DefaultEValue           = 1e-20
	DefaultExtension        = 5000
	DefaultMinHitsPerLocus  = 1
	DefaultOrthologIdentity = 0.9
	DefaultOutput           = "output"
	DefaultThreads          = 4
)

var DefaultLabelAttributes = []string{"gene", "locus_tag"}

// Default returns the settings used when nothing overrides them.
func Default() *Config {
	return &Config{
		EValue:           DefaultEValue,
		Extension:        DefaultExtension,
		MinHitsPerLocus:  DefaultMinHitsPerLocus,
		OrthologIdentity: DefaultOrthologIdentity,
		LabelAttributes:  append([]string(nil), DefaultLabelAttributes...),
		Output:           DefaultOutput,
		Threads:          DefaultThreads,
		BlastpBin:        blast.DefaultBlastp,
		MakeblastdbBin:   blast.DefaultMakeblastdb,
		CdhitBin:         cdhit.DefaultBin,
	}
}

// RegisterFlags declares one flag per Config key on flags.
func RegisterFlags(flags *pflag.FlagSet) {
	d := Default()
	flags.StringP("query-faa", "q", "", "query proteins (FASTA)")
	flags.StringP("gbk-dir", "g", "", "directory of GenBank files to search")
	flags.Float64P("evalue", "e", d.EValue, "maximum e-value of a hit")
	flags.IntP("extension", "x", d.Extension, "bases added on both sides of each hit")
	flags.Int("min-hits-per-locus", d.MinHitsPerLocus, "minimum hit genes for a locus to be kept")
	flags.Float64("ortholog-identity", d.OrthologIdentity, "identity threshold for ortholog families")
	flags.Bool("dereplicate-loci", false, "keep one locus per family order")
	flags.StringSlice("include-locus-names", nil, "substrings of locus names always kept by dereplication")
	flags.StringSlice("label-attributes", d.LabelAttributes, "qualifiers used to label genes, first present wins")
	flags.StringP("output", "o", d.Output, "output prefix")
	flags.IntP("threads", "t", d.Threads, "worker and tool threads")
	flags.BoolP("debug", "d", false, "verbose logging; keep the work directory")
	flags.Bool("progress", false, "show a progress bar")
	flags.String("catalog", "", "SQLite catalog to record the run in")
	flags.String("work-dir", "", "parent of the temporary work directory")
	flags.String("blastp", d.BlastpBin, "blastp executable")
	flags.String("makeblastdb", d.MakeblastdbBin, "makeblastdb executable")
	flags.String("cd-hit", d.CdhitBin, "cd-hit executable")
}

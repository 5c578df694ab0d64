package genbank

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/yumyai/locushunter/pkg/model"
)

const (
	lineWidth       = 79
	qualifierWidth  = lineWidth - qualifierIndent
	residuesPerLine = 60
	residuesPerWord = 10

	// ColorQualifier carries the family color for viewers such as Artemis and clinker.
	ColorQualifier = "color"
)

// Numeric qualifiers that GenBank writes without quotes.
var unquoted = map[string]bool{
	"codon_start":  true,
	"transl_table": true,
	"number":       true,
}

// WriteFile writes records to file, replacing any previous content.
func WriteFile(file string, records []*model.Record) error {
	fh, err := os.Create(file)
	if err != nil {
		return err
	}
	if err := Write(fh, records); err != nil {
		fh.Close()
		return err
	}
	return fh.Close()
}

// Write emits records in GenBank format. The family color of an annotated
// feature is written as a /color qualifier; other derived values are not.
func Write(w io.Writer, records []*model.Record) error {
	bw := bufio.NewWriter(w)
	for _, r := range records {
		writeRecord(bw, r)
	}
	return bw.Flush()
}

func writeRecord(w *bufio.Writer, r *model.Record) {
	topology := "linear"
	if r.Circular {
		topology = "circular"
	}
	fmt.Fprintf(w, "LOCUS       %s %d bp    DNA     %s   UNK\n",
		strings.Join(strings.Fields(r.Name), "_"), r.Len(), topology)

	definition := r.Definition
	if definition == "" {
		definition = "."
	}
	fmt.Fprintf(w, "DEFINITION  %s\n", definition)
	fmt.Fprintf(w, "FEATURES             Location/Qualifiers\n")

	for _, f := range r.Features {
		fmt.Fprintf(w, "%s%-*s%s\n", strings.Repeat(" ", featureIndent),
			qualifierIndent-featureIndent, f.Type, formatLocation(f))
		for _, q := range f.Qualifiers {
			if q.Key == ColorQualifier {
				continue
			}
			writeQualifier(w, q)
		}
		if f.Annotation.Color != "" {
			writeQualifier(w, model.Qualifier{Key: ColorQualifier, Value: f.Annotation.Color})
		}
	}

	fmt.Fprintf(w, "ORIGIN\n")
	for i := 0; i < r.Len(); i += residuesPerLine {
		fmt.Fprintf(w, "%9d", i+1)
		for j := i; j < min(i+residuesPerLine, r.Len()); j += residuesPerWord {
			fmt.Fprintf(w, " %s", strings.ToLower(string(r.Sequence[j:min(j+residuesPerWord, r.Len())])))
		}
		w.WriteByte('\n')
	}
	fmt.Fprintf(w, "//\n")
}

func writeQualifier(w *bufio.Writer, q model.Qualifier) {
	text := "/" + q.Key
	switch {
	case q.Value == "":
	case unquoted[q.Key]:
		text += "=" + q.Value
	default:
		text += `="` + strings.ReplaceAll(q.Value, `"`, `""`) + `"`
	}

	indent := strings.Repeat(" ", qualifierIndent)
	for _, l := range wrap(text, qualifierWidth, q.Key != "translation") {
		fmt.Fprintf(w, "%s%s\n", indent, l)
	}
}

// wrap splits text into lines of at most width bytes. With words set, lines
// break at spaces when one is available and the breaking space is dropped.
func wrap(text string, width int, words bool) []string {
	var lines []string
	for len(text) > width {
		if words {
			if i := strings.LastIndexByte(text[:width+1], ' '); i > 0 {
				lines = append(lines, text[:i])
				text = text[i+1:]
				continue
			}
		}
		lines = append(lines, text[:width])
		text = text[width:]
	}
	return append(lines, text)
}

package render

import (
	"fmt"
	"html/template"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/yumyai/locushunter/logger"
	"github.com/yumyai/locushunter/pkg/model"
	"go.uber.org/zap"
)

const (
	pixelsPerBase = 0.05
	trackTop      = 20.0
	arrowHeight   = 16.0
	headLength    = 8.0
	trackHeight   = 48.0
	scaleBarBases = 5000

	// Genes outside any family are drawn white.
	defaultColor = "#FFFFFF"
)

var lociPageTemplate *template.Template

// Arrow is one CDS drawn on a locus track.
type Arrow struct {
	Points string
	Color  string
	Label  string
	LabelX float64
	Title  string
}

// LocusRow is one locus of the page.
type LocusRow struct {
	Name   string
	Length string
	Width  float64
	Arrows []Arrow
}

// LociPageData describes the locus map page.
type LociPageData struct {
	Title         string
	RunID         string
	Rows          []LocusRow
	ScaleBarWidth float64
	ScaleBarLabel string
}

func init() {
	mainTmpl := `<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>{{ .Title }}</title>
    <style>
        body { font-family: sans-serif; font-size: 12px; }
        table { border-collapse: collapse; }
        td { padding: 4px 8px; border-bottom: 1px solid #ddd; white-space: nowrap; }
        .label { font-size: 9px; }
    </style>
</head>
<body>
    <h1>{{ .Title }}</h1>
    {{ if .RunID }}<p><strong>Run:</strong> {{ .RunID }}</p>{{ end }}
    {{ if not .Rows }}
    <p>No loci found.</p>
    {{ else }}
    <svg width="{{ .ScaleBarWidth }}" height="20">
        <line x1="0" y1="10" x2="{{ .ScaleBarWidth }}" y2="10" stroke="#000000" stroke-width="2"/>
    </svg> {{ .ScaleBarLabel }}
    <table>
        {{ range .Rows }}{{ template "row" . }}{{ end }}
    </table>
    {{ end }}
</body>
</html>`

	rowTmpl := `{{ define "row" }}
        <tr>
            <td>{{ .Name }}<br>{{ .Length }} bp</td>
            <td>
                <svg width="{{ .Width }}" height="` + fmt.Sprint(trackHeight) + `">
                    <line x1="0" y1="` + fmt.Sprint(trackTop+arrowHeight/2) + `" x2="{{ .Width }}" y2="` + fmt.Sprint(trackTop+arrowHeight/2) + `" stroke="#888888"/>
                    {{ range .Arrows }}
                    <g>
                        <title>{{ .Title }}</title>
                        <polygon points="{{ .Points }}" fill="{{ .Color }}" stroke="#000000" stroke-width="0.5"/>
                        {{ if .Label }}<text class="label" x="{{ .LabelX }}" y="14" text-anchor="middle">{{ .Label }}</text>{{ end }}
                    </g>
                    {{ end }}
                </svg>
            </td>
        </tr>{{ end }}`

	lociPageTemplate = template.Must(template.New("loci").Parse(mainTmpl))
	lociPageTemplate = template.Must(lociPageTemplate.Parse(rowTmpl))
}

// BuildLociPage lays out loci in the given order. Each CDS is labelled with
// the first of labelAttributes it carries.
func BuildLociPage(title, runID string, loci []*model.Record, labelAttributes []string) LociPageData {
	data := LociPageData{
		Title:         title,
		RunID:         runID,
		ScaleBarWidth: scaleBarBases * pixelsPerBase,
		ScaleBarLabel: humanize.Comma(scaleBarBases) + " bp",
	}
	for _, locus := range loci {
		row := LocusRow{
			Name:   locus.Name,
			Length: humanize.Comma(int64(locus.Len())),
			Width:  float64(locus.Len()) * pixelsPerBase,
		}
		for _, f := range locus.CDS() {
			row.Arrows = append(row.Arrows, arrowOf(f, labelAttributes))
		}
		data.Rows = append(data.Rows, row)
	}
	return data
}

func arrowOf(f *model.Feature, labelAttributes []string) Arrow {
	x1 := float64(f.Start) * pixelsPerBase
	x2 := float64(f.End) * pixelsPerBase
	head := min(headLength, x2-x1)
	top, mid, bottom := trackTop, trackTop+arrowHeight/2, trackTop+arrowHeight

	var points string
	switch f.Strand {
	case model.StrandForward:
		points = fmt.Sprintf("%.1f,%.1f %.1f,%.1f %.1f,%.1f %.1f,%.1f %.1f,%.1f",
			x1, top, x2-head, top, x2, mid, x2-head, bottom, x1, bottom)
	case model.StrandReverse:
		points = fmt.Sprintf("%.1f,%.1f %.1f,%.1f %.1f,%.1f %.1f,%.1f %.1f,%.1f",
			x2, top, x1+head, top, x1, mid, x1+head, bottom, x2, bottom)
	default:
		points = fmt.Sprintf("%.1f,%.1f %.1f,%.1f %.1f,%.1f %.1f,%.1f",
			x1, top, x2, top, x2, bottom, x1, bottom)
	}

	color := f.Annotation.Color
	if color == "" {
		color = defaultColor
	}

	arrow := Arrow{
		Points: points,
		Color:  color,
		LabelX: (x1 + x2) / 2,
		Title:  fmt.Sprintf("%d..%d (%s) family %s", f.Start+1, f.End, f.Strand, f.Annotation.Family),
	}
	for _, key := range labelAttributes {
		if v, ok := f.Qualifier(key); ok {
			arrow.Label = v
			break
		}
	}
	return arrow
}

// RenderLociPage writes the locus map as a standalone HTML page.
func RenderLociPage(w io.Writer, data LociPageData) error {
	logger.Info("Rendering locus map", zap.String("run_id", data.RunID), zap.Int("loci", len(data.Rows)))
	return lociPageTemplate.Execute(w, data)
}

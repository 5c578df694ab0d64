package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yumyai/locushunter/pkg/model"
)

func testLocus(name string, features ...*model.Feature) *model.Record {
	return &model.Record{Name: name, Sequence: []byte(strings.Repeat("a", 12000)), Features: features}
}

func TestBuildLociPage(t *testing.T) {
	forward := &model.Feature{
		Type: "CDS", Start: 0, End: 900, Strand: model.StrandForward,
		Qualifiers: []model.Qualifier{{Key: "locus_tag", Value: "T_01"}, {Key: "gene", Value: "abcA"}},
		Annotation: model.Annotation{Family: 3, Color: "#1F77B4"},
	}
	reverse := &model.Feature{
		Type: "CDS", Start: 1000, End: 1100, Strand: model.StrandReverse,
		Qualifiers: []model.Qualifier{{Key: "locus_tag", Value: "T_02"}},
	}
	source := &model.Feature{Type: "source", Start: 0, End: 12000}

	data := BuildLociPage("Loci", "run-1", []*model.Record{testLocus("b", source, forward, reverse), testLocus("a")}, []string{"gene", "locus_tag"})

	require.Len(t, data.Rows, 2)
	assert.Equal(t, "b", data.Rows[0].Name)
	assert.Equal(t, "12,000", data.Rows[0].Length)
	assert.Equal(t, 600.0, data.Rows[0].Width)
	assert.Equal(t, 250.0, data.ScaleBarWidth)
	assert.Equal(t, "5,000 bp", data.ScaleBarLabel)

	arrows := data.Rows[0].Arrows
	require.Len(t, arrows, 2)
	assert.Equal(t, Arrow{
		Points: "0.0,20.0 37.0,20.0 45.0,28.0 37.0,36.0 0.0,36.0",
		Color:  "#1F77B4",
		Label:  "abcA",
		LabelX: 22.5,
		Title:  "1..900 (+) family 3",
	}, arrows[0])
	assert.Equal(t, "55.0,20.0 55.0,20.0 50.0,28.0 55.0,36.0 55.0,36.0", arrows[1].Points)
	assert.Equal(t, defaultColor, arrows[1].Color)
	assert.Equal(t, "T_02", arrows[1].Label)
	assert.Empty(t, data.Rows[1].Arrows)
}

func TestRenderLociPage(t *testing.T) {
	f := &model.Feature{
		Type: "CDS", Start: 0, End: 300, Strand: model.StrandForward,
		Qualifiers: []model.Qualifier{{Key: "gene", Value: "<dnaA>"}},
		Annotation: model.Annotation{Family: 1, Color: "#FF7F0E"},
	}
	data := BuildLociPage("Loci", "run-1", []*model.Record{testLocus("second"), testLocus("first", f)}, []string{"gene"})

	var buf bytes.Buffer
	require.NoError(t, RenderLociPage(&buf, data))
	out := buf.String()

	assert.Contains(t, out, `fill="#FF7F0E"`)
	assert.Contains(t, out, "&lt;dnaA&gt;")
	assert.NotContains(t, out, "<dnaA>")
	assert.Less(t, strings.Index(out, "second"), strings.Index(out, "first"))
}

func TestRenderLociPageEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderLociPage(&buf, BuildLociPage("Loci", "", nil, nil)))
	assert.Contains(t, buf.String(), "No loci found.")
}

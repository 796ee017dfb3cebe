// Package numberline places fraction labels on a logarithmic axis and renders
// the result as SVG.
package numberline

import (
	"embed"
	"errors"
	"fmt"
	"io"
	"math"
	"text/template"

	"github.com/Masterminds/sprig"
	"github.com/microtonal/tetrachord"
	"github.com/microtonal/tetrachord/ratio"
	"golang.org/x/exp/slices"
)

type (
	// Options control the geometry of the line, all in SVG user units.
	Options struct {
		Width      float64 `yaml:"width" json:"width"`
		Margin     float64 `yaml:"margin" json:"margin"`
		LabelWidth float64 `yaml:"labelWidth" json:"labelWidth"` // labels closer than this share no row
		RowHeight  float64 `yaml:"rowHeight" json:"rowHeight"`
		Title      string  `yaml:"title,omitempty" json:"title,omitempty"`
		Color      string  `yaml:"color,omitempty" json:"color,omitempty"`
	}

	Label struct {
		Multiple float64        `json:"multiple"`
		Fraction ratio.Fraction `json:"fraction"`
		Text     string         `json:"text"`
		X        float64        `json:"x"`
		Y        float64        `json:"y"`
		Row      int            `json:"row"`
	}

	// Line is a laid out number line, labels sorted from left to right.
	Line struct {
		Options Options `json:"options"`
		Labels  []Label `json:"labels"`
		Rows    int     `json:"rows"`
	}
)

var ErrLayout = errors.New("cannot lay out number line")

//go:embed templates/*
var templateFS embed.FS

var svgTemplate = template.Must(template.New("base").Funcs(sprig.TxtFuncMap()).ParseFS(templateFS, "templates/*.tmpl"))

func DefaultOptions() Options {
	return Options{Width: 800, Margin: 40, LabelWidth: 48, RowHeight: 20}
}

// Layout places each multiple at Margin + log(m)/log(max) of the drawable
// width. A label that would overlap the previous label of a row is pushed to
// the first row it fits on.
func Layout(multiples []float64, fractions []ratio.Fraction, opts Options) (Line, error) {
	if len(multiples) != len(fractions) {
		return Line{}, fmt.Errorf("%w: %v multiples but %v fractions", ErrLayout, len(multiples), len(fractions))
	}
	if opts.Width <= 2*opts.Margin || opts.Margin < 0 || opts.LabelWidth < 0 || opts.RowHeight <= 0 {
		return Line{}, fmt.Errorf("%w: invalid options %+v", ErrLayout, opts)
	}
	for i, m := range multiples {
		if math.IsNaN(m) || math.IsInf(m, 0) || m < 1 {
			return Line{}, fmt.Errorf("multiple %v: %w: %v", i, ratio.ErrInvalidRatio, m)
		}
	}
	ret := Line{Options: opts, Labels: make([]Label, len(multiples))}
	if len(multiples) == 0 {
		return ret, nil
	}
	span := math.Log(slices.Max(multiples))
	drawable := opts.Width - 2*opts.Margin
	for i, m := range multiples {
		x := opts.Margin
		if span > 0 {
			x += math.Log(m) / span * drawable
		}
		ret.Labels[i] = Label{Multiple: m, Fraction: fractions[i], Text: fractions[i].String(), X: x}
	}
	slices.SortStableFunc(ret.Labels, func(a, b Label) int {
		switch {
		case a.X < b.X:
			return -1
		case a.X > b.X:
			return 1
		}
		return 0
	})
	var rowEnds []float64
	for i := range ret.Labels {
		label := &ret.Labels[i]
		row := slices.IndexFunc(rowEnds, func(end float64) bool { return label.X-end >= opts.LabelWidth })
		if row < 0 {
			row = len(rowEnds)
			rowEnds = append(rowEnds, label.X)
		}
		rowEnds[row] = label.X
		label.Row = row
		label.Y = ret.AxisY() + float64(row+1)*opts.RowHeight
	}
	ret.Rows = len(rowEnds)
	return ret, nil
}

// FromScale labels the degrees of a scale with fractions jointly bounded by
// ratio.FindRatios.
func FromScale(scale tetrachord.Scale, minDenominator uint64, opts Options) (Line, error) {
	multiples := scale.Multiples()
	fractions, err := ratio.FindRatios(multiples, minDenominator)
	if err != nil {
		return Line{}, fmt.Errorf("cannot find ratios for the scale: %w", err)
	}
	return Layout(multiples, fractions, opts)
}

func (l Line) AxisY() float64 {
	return l.Options.RowHeight
}

func (l Line) AxisEnd() float64 {
	return l.Options.Width - l.Options.Margin
}

// TickTop is where the tick marks above the axis start.
func (l Line) TickTop() float64 {
	return l.AxisY() - l.Options.RowHeight/2
}

func (l Line) Height() float64 {
	return l.AxisY() + float64(l.Rows+1)*l.Options.RowHeight
}

// SVG writes the line as a standalone SVG document.
func (l Line) SVG(w io.Writer) error {
	if err := svgTemplate.ExecuteTemplate(w, "numberline.svg", l); err != nil {
		return fmt.Errorf(`could not execute template "numberline.svg": %v`, err)
	}
	return nil
}

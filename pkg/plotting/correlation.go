// Package plotting renders comparison figures between estimated and
// ground-truth microstructure parameters of the bundled synthetic datasets.
package plotting

import (
	"fmt"
	"image/color"
	"io"
	"math"
	"os"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"dmridata/pkg/data"
)

// Correlation is a Pearson correlation coefficient with its two-sided
// p-value under the null hypothesis of no linear correlation.
type Correlation struct {
	R float64
	P float64
}

// PearsonR computes the Pearson correlation coefficient between x and y
// and its two-sided p-value from the t-distribution with len(x)-2 degrees
// of freedom.
func PearsonR(x, y []float64) (Correlation, error) {
	if len(x) != len(y) {
		return Correlation{}, fmt.Errorf("length mismatch: %d vs %d", len(x), len(y))
	}
	if len(x) < 3 {
		return Correlation{}, fmt.Errorf("need at least 3 samples, got %d", len(x))
	}

	r := stat.Correlation(x, y, nil)
	n := float64(len(x))

	denom := 1 - r*r
	if denom <= 0 {
		// Perfectly correlated data.
		return Correlation{R: r, P: 0}, nil
	}
	t := r * math.Sqrt((n-2)/denom)
	dist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: n - 2}
	return Correlation{R: r, P: 2 * dist.CDF(-math.Abs(t))}, nil
}

// Figure is a rendered 2x2 comparison between estimated and ground-truth
// intra-axonal volume fractions: the left column restricts both synthetic
// datasets to the 1.7e-9 m^2/s batch, the right column spans all
// diffusivities; the top row is the parallel dataset, the bottom row the
// dispersed one.
type Figure struct {
	ParallelFixed  Correlation
	ParallelAll    Correlation
	DispersedFixed Correlation
	DispersedAll   Correlation

	grid [2][2]*plot.Plot
}

// Display convention of the original figure: the synthetic fractions span
// roughly 0.2-0.8, estimates slightly above.
const (
	axisXMin = 0.2
	axisXMax = 0.8
	axisYMin = 0.2
	axisYMax = 0.9
)

// FractionCorrelation reloads the two synthetic Camino datasets through
// loader and correlates their ground-truth fractions against the supplied
// estimates. Both estimate slices must align index-for-index with the
// corresponding dataset's sample axis.
func FractionCorrelation(loader *data.Loader, estParallel, estDispersed []float64) (*Figure, error) {
	_, parallel, err := loader.SyntheticCaminoParallel()
	if err != nil {
		return nil, err
	}
	_, dispersed, err := loader.SyntheticCaminoDispersed()
	if err != nil {
		return nil, err
	}

	if len(estParallel) != parallel.Len() {
		return nil, fmt.Errorf("parallel estimates: length mismatch: %d estimates for %d samples", len(estParallel), parallel.Len())
	}
	if len(estDispersed) != dispersed.Len() {
		return nil, fmt.Errorf("dispersed estimates: length mismatch: %d estimates for %d samples", len(estDispersed), dispersed.Len())
	}

	parFixed := selectByDiffusivity(parallel.Diffusivities, data.DiffusivityLow)
	dispFixed := selectByDiffusivity(dispersed.Diffusivities, data.DiffusivityLow)

	truthParFixed := pick(parallel.Fractions, parFixed)
	estParFixed := pick(estParallel, parFixed)
	truthDispFixed := pick(dispersed.Fractions, dispFixed)
	estDispFixed := pick(estDispersed, dispFixed)

	fig := &Figure{}
	if fig.ParallelFixed, err = PearsonR(estParFixed, truthParFixed); err != nil {
		return nil, fmt.Errorf("parallel fixed-diffusivity panel: %w", err)
	}
	if fig.DispersedFixed, err = PearsonR(estDispFixed, truthDispFixed); err != nil {
		return nil, fmt.Errorf("dispersed fixed-diffusivity panel: %w", err)
	}
	if fig.ParallelAll, err = PearsonR(estParallel, parallel.Fractions); err != nil {
		return nil, fmt.Errorf("parallel all-diffusivities panel: %w", err)
	}
	if fig.DispersedAll, err = PearsonR(estDispersed, dispersed.Fractions); err != nil {
		return nil, fmt.Errorf("dispersed all-diffusivities panel: %w", err)
	}

	panels := []struct {
		row, col     int
		truth, estim []float64
		corr         Correlation
		fixedLimits  bool
	}{
		{0, 0, truthParFixed, estParFixed, fig.ParallelFixed, true},
		{0, 1, parallel.Fractions, estParallel, fig.ParallelAll, false},
		{1, 0, truthDispFixed, estDispFixed, fig.DispersedFixed, false},
		{1, 1, dispersed.Fractions, estDispersed, fig.DispersedAll, true},
	}
	for _, panel := range panels {
		p, err := scatterPanel(panel.truth, panel.estim, panel.corr, panel.fixedLimits)
		if err != nil {
			return nil, err
		}
		fig.grid[panel.row][panel.col] = p
	}

	fig.grid[0][0].Title.Text = "Static Diffusivity"
	fig.grid[0][1].Title.Text = "Varying Diffusivity"
	fig.grid[0][0].Y.Label.Text = "Estimated intra-vf"
	fig.grid[1][0].Y.Label.Text = "Estimated intra-vf"
	fig.grid[1][0].X.Label.Text = "Ground Truth"
	fig.grid[1][1].X.Label.Text = "Ground Truth"

	return fig, nil
}

// scatterPanel builds one panel: ground truth on x, estimates on y, a
// dashed identity line and the correlation annotation.
func scatterPanel(truth, estim []float64, corr Correlation, fixedLimits bool) (*plot.Plot, error) {
	p := plot.New()

	pts := make(plotter.XYs, len(truth))
	for i := range truth {
		pts[i].X = truth[i]
		pts[i].Y = estim[i]
	}
	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, fmt.Errorf("building scatter: %w", err)
	}
	scatter.GlyphStyle.Radius = vg.Points(2)
	p.Add(scatter)

	identity, err := plotter.NewLine(plotter.XYs{{X: 0, Y: 0}, {X: 1, Y: 1}})
	if err != nil {
		return nil, fmt.Errorf("building identity line: %w", err)
	}
	identity.LineStyle.Width = vg.Points(2)
	identity.LineStyle.Dashes = []vg.Length{vg.Points(6), vg.Points(3)}
	identity.LineStyle.Color = color.Black
	p.Add(identity)

	labels, err := plotter.NewLabels(plotter.XYLabels{
		XYs:    plotter.XYs{{X: 0.216, Y: 0.817}},
		Labels: []string{fmt.Sprintf("pearsonR= %.3f", corr.R)},
	})
	if err != nil {
		return nil, fmt.Errorf("building annotation: %w", err)
	}
	p.Add(labels)

	if fixedLimits {
		p.X.Min, p.X.Max = axisXMin, axisXMax
		p.Y.Min, p.Y.Max = axisYMin, axisYMax
	}
	return p, nil
}

// WritePNG renders the figure as a PNG image.
func (f *Figure) WritePNG(w io.Writer) error {
	const width, height = 8 * vg.Inch, 6 * vg.Inch

	img := vgimg.New(width, height)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows: 2,
		Cols: 2,
		PadX: vg.Millimeter * 3,
		PadY: vg.Millimeter * 3,
	}

	plots := [][]*plot.Plot{
		{f.grid[0][0], f.grid[0][1]},
		{f.grid[1][0], f.grid[1][1]},
	}
	canvases := plot.Align(plots, tiles, dc)
	for row := range plots {
		for col := range plots[row] {
			plots[row][col].Draw(canvases[row][col])
		}
	}

	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(w); err != nil {
		return fmt.Errorf("encoding figure: %w", err)
	}
	return nil
}

// SavePNG renders the figure to a PNG file at path.
func (f *Figure) SavePNG(path string) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := f.WritePNG(out); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func selectByDiffusivity(diffusivities []float64, want float64) []int {
	var idx []int
	for i, d := range diffusivities {
		if d == want {
			idx = append(idx, i)
		}
	}
	return idx
}

func pick(values []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, j := range idx {
		out[i] = values[j]
	}
	return out
}

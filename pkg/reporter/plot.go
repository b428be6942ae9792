package reporter

import (
	"errors"
	"fmt"
	"image/color"

	"github.com/ahad1361/proteoimic-validation/pkg/core"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// PlotROC renders the averaged ROC curve with a dashed diagonal reference
// line. The output format follows the file extension (.png, .svg, .pdf).
func PlotROC(roc core.AveragedROC, title, path string) error {
	if len(roc.FPR) == 0 || len(roc.TPR) == 0 {
		return errors.New("reporter: no defined ROC curve to plot")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "False Positive Rate"
	p.Y.Label.Text = "True Positive Rate"
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1

	pts := make(plotter.XYs, len(roc.FPR))
	for i := range roc.FPR {
		pts[i].X = roc.FPR[i]
		pts[i].Y = roc.TPR[i]
	}
	curve, err := plotter.NewLine(pts)
	if err != nil {
		return err
	}
	curve.Color = color.RGBA{R: 50, G: 50, B: 255, A: 255}
	curve.LineStyle.Width = vg.Points(2)

	diagonal, err := plotter.NewLine(plotter.XYs{{X: 0, Y: 0}, {X: 1, Y: 1}})
	if err != nil {
		return err
	}
	diagonal.Color = color.RGBA{R: 128, G: 128, B: 128, A: 255}
	diagonal.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}

	p.Add(curve, diagonal)
	p.Legend.Add(fmt.Sprintf("Mean ROC (AUC %.3f)", roc.GridAUC), curve)
	p.Legend.Add("Random classifier", diagonal)
	p.Legend.Top = false

	return p.Save(5*vg.Inch, 5*vg.Inch, path)
}

package pipeline

import "github.com/sahilbhatiani/net-worth-tracker/internal/model"

// ChartPoint is one x-axis position of the actual-vs-target chart.
type ChartPoint struct {
	Date   model.Date
	Actual float64
	Target Value // undefined before the target start or with no target
}

// ChartSeries aligns the actual series with the target trajectory, one
// point per entry. HasTarget reports whether a target series exists at all.
func ChartSeries(entries []model.Entry, target *model.TargetSettings) (points []ChartPoint, hasTarget bool) {
	points = make([]ChartPoint, len(entries))
	for i, e := range entries {
		points[i] = ChartPoint{Date: e.Date, Actual: e.Amount}
	}
	if target == nil {
		return points, false
	}
	i := 0
	for v := range Trajectory(*target, entries) {
		points[i].Target = v
		i++
	}
	return points, true
}

// Actuals returns the actual amounts of points.
func Actuals(points []ChartPoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.Actual
	}
	return out
}

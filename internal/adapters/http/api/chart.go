package api

import (
	"bytes"
	"net/http"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/okian/tagboard/internal/domain/types"
)

// ChartDependencies defines what the chart handler reads.
type ChartDependencies interface {
	SnapshotSource
}

// ChartHandler renders the board as a PNG bar chart of points.
type ChartHandler struct {
	deps ChartDependencies
}

// NewChartHandler creates a new chart handler.
func NewChartHandler(deps ChartDependencies) *ChartHandler {
	return &ChartHandler{deps: deps}
}

var (
	chartBackground = drawing.ColorFromHex("fafaf7")
	chartBar        = drawing.ColorFromHex("2f6f4e")
	chartHolder     = drawing.ColorFromHex("c9a227")
	chartText       = drawing.ColorFromHex("222222")
)

// HandleChart handles GET /chart.png requests.
func (h *ChartHandler) HandleChart(w http.ResponseWriter, r *http.Request) {
	const op = "api.chart"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	png, err := RenderPointsChart(h.deps.Snapshot().Entries)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "render_error", WrapKind(op, ErrRender, err))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(png)
}

// RenderPointsChart draws one bar per player in rank order. The holder's bar
// is highlighted.
func RenderPointsChart(entries []types.Entry) ([]byte, error) {
	if len(entries) == 0 {
		return renderNoData()
	}

	bars := make([]chart.Value, len(entries))
	lo, hi := 0.0, 0.0
	for i, e := range entries {
		v := float64(e.Points)
		lo, hi = min(lo, v), max(hi, v)
		fill := chartBar
		if e.Holder {
			fill = chartHolder
		}
		bars[i] = chart.Value{
			Label: e.Player,
			Value: v,
			Style: chart.Style{FillColor: fill, StrokeColor: fill},
		}
	}
	if hi-lo < 1 {
		hi = lo + 1
	}

	graph := chart.BarChart{
		Title:    "Points",
		Width:    max(480, 72*len(entries)),
		Height:   360,
		BarWidth: 40,
		Background: chart.Style{
			FillColor: chartBackground,
			Padding:   chart.Box{Top: 40, Left: 10, Right: 10, Bottom: 10},
		},
		Canvas: chart.Style{FillColor: chartBackground},
		TitleStyle: chart.Style{
			FontColor: chartText,
		},
		XAxis: chart.Style{FontColor: chartText},
		YAxis: chart.YAxis{
			Style: chart.Style{FontColor: chartText},
			Range: &chart.ContinuousRange{Min: lo, Max: hi},
		},
		Bars: bars,
	}

	buf := bytes.NewBuffer(nil)
	if err := graph.Render(chart.PNG, buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderNoData() ([]byte, error) {
	const (
		msg    = "No tags yet"
		width  = 400
		height = 200
	)
	font, err := chart.GetDefaultFont()
	if err != nil {
		return nil, err
	}
	r, err := chart.PNG(width, height)
	if err != nil {
		return nil, err
	}

	r.SetFillColor(chartBackground)
	r.MoveTo(0, 0)
	r.LineTo(width, 0)
	r.LineTo(width, height)
	r.LineTo(0, height)
	r.Close()
	r.Fill()

	r.SetFont(font)
	r.SetFontColor(chartText)
	r.SetFontSize(12.0)
	tb := r.MeasureText(msg)
	r.Text(msg, (width-tb.Width())/2, (height+tb.Height())/2)

	buf := bytes.NewBuffer(nil)
	if err := r.Save(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

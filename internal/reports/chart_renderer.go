package reports

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"time"

	"ocstat/internal/models"

	chart "github.com/wcharczuk/go-chart/v2"
)

const (
	defaultChartWidth  = 1200
	defaultChartHeight = 900

	maxBarWidth = 40
	minBarWidth = 4
)

type ChartOptions struct {
	// Width and Height size the whole image; each panel takes a quarter.
	Width  int
	Height int
	Title  string
}

// ChartRenderer turns a report into an image. Rendering never touches the
// accumulator store.
//
//go:generate mockgen -source=chart_renderer.go -destination=./mocks/chart_renderer_mock.go -package=mocks
type ChartRenderer interface {
	Render(ctx context.Context, report *models.Report) (*models.ImageBlob, error)
}

type chartRenderer struct {
	opts ChartOptions
}

func NewChartRenderer(opts ChartOptions) ChartRenderer {
	if opts.Width <= 0 {
		opts.Width = defaultChartWidth
	}
	if opts.Height <= 0 {
		opts.Height = defaultChartHeight
	}
	return &chartRenderer{opts: opts}
}

// Render draws a 2x2 grid: outgoing share, incoming share, connections and
// total durations per user.
func (r *chartRenderer) Render(ctx context.Context, report *models.Report) (*models.ImageBlob, error) {
	started := time.Now()
	defer func() {
		metricRenderDurationSeconds.WithLabelValues(string(report.WindowKind)).Observe(time.Since(started).Seconds())
	}()

	panelW, panelH := r.opts.Width/2, r.opts.Height/2

	outgoingTitle := "User Share in Outgoing Traffic"
	if r.opts.Title != "" {
		outgoingTitle = r.opts.Title + ": " + outgoingTitle
	}

	panels := []func() ([]byte, error){
		func() ([]byte, error) {
			return renderPie(outgoingTitle, panelW, panelH, report.Rows, func(row models.ReportRow) int64 { return row.OutgoingBytes })
		},
		func() ([]byte, error) {
			return renderPie("User Share in Incoming Traffic", panelW, panelH, report.Rows, func(row models.ReportRow) int64 { return row.IncomingBytes })
		},
		func() ([]byte, error) {
			return renderBar("Number of Connections", panelW, panelH, report.Rows, func(row models.ReportRow) int64 { return row.ConnectionCount })
		},
		func() ([]byte, error) {
			return renderBar("Total Duration (seconds)", panelW, panelH, report.Rows, func(row models.ReportRow) int64 { return row.TotalDurationSeconds })
		},
	}

	canvas := image.NewRGBA(image.Rect(0, 0, panelW*2, panelH*2))
	draw.Draw(canvas, canvas.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	for i, panel := range panels {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := panel()
		if err != nil {
			return nil, fmt.Errorf("panel %d: %w", i+1, err)
		}
		img, err := png.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("panel %d: decode: %w", i+1, err)
		}
		origin := image.Pt((i%2)*panelW, (i/2)*panelH)
		draw.Draw(canvas, image.Rectangle{Min: origin, Max: origin.Add(img.Bounds().Size())}, img, img.Bounds().Min, draw.Src)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, canvas); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}

	return &models.ImageBlob{
		Data:        buf.Bytes(),
		ContentType: "image/png",
		Filename:    fmt.Sprintf("usage_report_%s_%s.png", report.WindowKind, report.WindowKind.FormatWindowStart(report.WindowStart)),
	}, nil
}

func renderPie(title string, width, height int, rows []models.ReportRow, value func(models.ReportRow) int64) ([]byte, error) {
	values := make([]chart.Value, 0, len(rows))
	for _, row := range rows {
		if v := value(row); v > 0 {
			values = append(values, chart.Value{Value: float64(v), Label: row.Username})
		}
	}
	// A pie of nothing cannot be drawn.
	if len(values) == 0 {
		values = append(values, chart.Value{Value: 1, Label: "no traffic"})
	}

	pie := chart.PieChart{
		Title:  title,
		Width:  width,
		Height: height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40},
		},
		Values: values,
	}

	var buf bytes.Buffer
	if err := pie.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderBar(title string, width, height int, rows []models.ReportRow, value func(models.ReportRow) int64) ([]byte, error) {
	bars := make([]chart.Value, 0, len(rows))
	var peak int64
	for _, row := range rows {
		v := value(row)
		peak = max(peak, v)
		bars = append(bars, chart.Value{Value: float64(v), Label: row.Username})
	}
	if len(bars) == 0 {
		bars = append(bars, chart.Value{Value: 0, Label: "no users"})
	}

	barWidth := min(maxBarWidth, max(minBarWidth, width/(2*len(bars))))

	bar := chart.BarChart{
		Title:  title,
		Width:  width,
		Height: height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40},
		},
		BarWidth: barWidth,
		// go-chart cannot scale a range of zero height.
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: float64(max(peak, 1))},
		},
		Bars: bars,
	}

	var buf bytes.Buffer
	if err := bar.Render(chart.PNG, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

package api

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/kestrel-data/crossing.report/internal/httputil"
)

// showDayChart renders a bar chart (HTML) of one day's sessions using
// go-echarts. Query params:
//   - date (optional; defaults to today, formatted 2006-01-02)
func (s *Server) showDayChart(w http.ResponseWriter, r *http.Request) {
	day := time.Now().UTC()
	if d := r.URL.Query().Get("date"); d != "" {
		parsed, err := time.ParseInLocation("2006-01-02", d, time.UTC)
		if err != nil {
			httputil.BadRequest(w, "Invalid 'date' parameter, want YYYY-MM-DD")
			return
		}
		day = parsed
	}

	records, err := s.db.SessionsForDay(r.Context(), day)
	if err != nil {
		httputil.InternalServerError(w,
			fmt.Sprintf("Failed to retrieve sessions: %v", err))
		return
	}

	x := make([]string, 0, len(records))
	dir1 := make([]opts.BarData, 0, len(records))
	dir2 := make([]opts.BarData, 0, len(records))
	total := make([]opts.BarData, 0, len(records))
	for _, rec := range records {
		x = append(x, rec.SessionStart.Format("15:04"))
		dir1 = append(dir1, opts.BarData{Value: rec.Direction1})
		dir2 = append(dir2, opts.BarData{Value: rec.Direction2})
		total = append(total, opts.BarData{Value: rec.Total})
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: "Crossing Counts", Width: "1200px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{
			Title:    "Counting Sessions",
			Subtitle: fmt.Sprintf("date=%s sessions=%d", day.Format("2006-01-02"), len(records)),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)
	bar.SetXAxis(x).
		AddSeries("direction1", dir1).
		AddSeries("direction2", dir2).
		AddSeries("total", total,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)

	var buf bytes.Buffer
	if err := bar.Render(&buf); err != nil {
		httputil.InternalServerError(w, fmt.Sprintf("failed to render chart: %v", err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(buf.Bytes())
}

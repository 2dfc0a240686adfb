package parser

import (
	"time"

	"github.com/okofen-viewer/backend/internal/models"
)

// ChartPoint is one sample of the plotted series.
type ChartPoint struct {
	Timestamp time.Time `json:"timestamp"`
	FRT       int       `json:"frt"`
}

// ChartBand is a background shading span for a run of rows that share a
// burner status.
type ChartBand struct {
	Start   time.Time           `json:"start"`
	End     time.Time           `json:"end"`
	Status  models.BurnerStatus `json:"status"`
	Color   string              `json:"color"`
	Opacity float64             `json:"opacity"`
}

// ChartData feeds the detail graph: the FRT temperature series plus
// status-colored background bands.
type ChartData struct {
	Date   string       `json:"date"`
	Series SeriesStyle  `json:"series"`
	Points []ChartPoint `json:"points"`
	Bands  []ChartBand  `json:"bands"`
}

// BuildChart derives chart data from a parsed day. Consecutive rows
// with the same status collapse into one band; each band extends to the
// start of the next so the shading tiles the full time axis.
func BuildChart(day *models.DayLog, styles *ChartStyles) *ChartData {
	if styles == nil {
		styles = DefaultChartStyles()
	}

	chart := &ChartData{
		Date:   day.Date,
		Series: styles.Series,
		Points: make([]ChartPoint, 0, len(day.Records)),
		Bands:  make([]ChartBand, 0),
	}

	for _, rec := range day.Records {
		chart.Points = append(chart.Points, ChartPoint{Timestamp: rec.Timestamp, FRT: rec.FRT})

		n := len(chart.Bands)
		if n > 0 && chart.Bands[n-1].Status == rec.SM {
			chart.Bands[n-1].End = rec.Timestamp
			continue
		}
		if n > 0 {
			// Close the previous run at the start of this one.
			chart.Bands[n-1].End = rec.Timestamp
		}
		band := ChartBand{Start: rec.Timestamp, End: rec.Timestamp, Status: rec.SM}
		if style, ok := styles.Bands[rec.SM]; ok {
			band.Color = style.Color
			band.Opacity = style.Opacity
		}
		chart.Bands = append(chart.Bands, band)
	}

	return chart
}

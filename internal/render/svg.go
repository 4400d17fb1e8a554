// Package render turns a forecast into a self-contained SVG document.
package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/newsforge/forecast-image-service/internal/icons"
	"github.com/newsforge/forecast-image-service/internal/models"
)

// cellCount fixes the band at 7 equal-width day cells. The system is always
// invoked with a 7-day horizon; a shorter or longer forecast still lays out
// against 7 cells.
const cellCount = 7

var weekdayNames = [...]string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

const defs = `  <defs>
    <filter id="blur">
      <feGaussianBlur in="SourceGraphic" stdDeviation="1" />
    </filter>
    <style>
      .weather-text { font-family: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, sans-serif; }
      .day { font-size: 18px; fill: #000; font-weight: bold; }
      .temp { font-size: 16px; fill: #000; }
      .description { font-size: 14px; fill: #000; text-transform: capitalize; }
      .am-weather-sun { animation: rotate 9s linear infinite; }
      @keyframes rotate {
        from { transform: rotate(0deg); }
        to { transform: rotate(360deg); }
      }
    </style>
  </defs>
`

// SVG renders the forecast as a horizontal 7-cell band at the requested
// dimensions. Pure and total: malformed day data renders as-is (an unparsable
// date shows as the zero date) and never fails. The document carries its own
// width, height and viewBox so it can be embedded directly as an image.
func SVG(forecast models.Forecast, width, height int) string {
	cellWidth := float64(width) / cellCount

	var b strings.Builder
	b.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	fmt.Fprintf(&b, "<svg xmlns=\"http://www.w3.org/2000/svg\" width=\"%d\" height=\"%d\" viewBox=\"0 0 %d %d\">\n", width, height, width, height)
	b.WriteString(defs)

	for i, day := range forecast.Days {
		x := float64(i)*cellWidth + cellWidth/2
		date, _ := time.Parse("2006-01-02", day.Date)
		glyph := icons.Glyph(icons.Classify(day.Condition.Code))

		fmt.Fprintf(&b, "  <g transform=\"translate(%.2f, 20)\">\n", x-50)
		fmt.Fprintf(&b, "    <text x=\"50\" y=\"0\" text-anchor=\"middle\" class=\"weather-text day\">%s %d</text>\n",
			weekdayNames[int(date.Weekday())], date.Day())
		b.WriteString("    <g transform=\"translate(10, 0) scale(1.25)\">\n")
		b.WriteString(glyph)
		b.WriteString("\n    </g>\n")
		fmt.Fprintf(&b, "    <text x=\"50\" y=\"100\" text-anchor=\"middle\" class=\"weather-text temp\">%.0f° / %.0f°</text>\n",
			day.MaxTempF, day.MinTempF)
		fmt.Fprintf(&b, "    <text x=\"50\" y=\"120\" text-anchor=\"middle\" class=\"weather-text description\">%s</text>\n",
			escapeText(day.Condition.Text))
		b.WriteString("  </g>\n")
	}

	b.WriteString("</svg>\n")
	return b.String()
}

// escapeText escapes the few characters that would break SVG text content.
// Condition texts come from a fixed set, but cached entries are decoded from
// an external store.
func escapeText(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

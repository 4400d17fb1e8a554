package icons

// Category is the rendering-level abstraction over provider weather codes.
type Category string

const (
	Sunny  Category = "sunny"
	Cloudy Category = "cloudy"
	Rain   Category = "rain"
	Storm  Category = "storm"
	Snow   Category = "snow"
)

// codeCategories maps provider weather codes to icon categories. Codes
// outside the table fall back to Cloudy.
var codeCategories = func() map[int]Category {
	m := map[int]Category{800: Sunny}
	for _, c := range []int{801, 802, 803, 804} {
		m[c] = Cloudy
	}
	for _, c := range []int{300, 301, 302, 310, 311, 312, 313, 314, 321, 500, 501, 502, 503, 504, 511, 520, 521, 522, 531} {
		m[c] = Rain
	}
	for _, c := range []int{200, 201, 202, 210, 211, 212, 221, 230, 231, 232} {
		m[c] = Storm
	}
	for _, c := range []int{600, 601, 602, 611, 612, 613, 615, 616, 620, 621, 622} {
		m[c] = Snow
	}
	return m
}()

// Classify maps a provider weather code to its icon category. Total over all
// integers: unknown codes return Cloudy, never an error.
func Classify(code int) Category {
	if c, ok := codeCategories[code]; ok {
		return c
	}
	return Cloudy
}

// Glyph returns the static SVG fragment for a category. Fragments are sized
// for an 80x80 box and meant to be wrapped in a positioning <g> by the
// renderer.
func Glyph(c Category) string {
	switch c {
	case Sunny:
		return glyphSun
	case Rain:
		return glyphRain
	case Storm:
		return glyphStorm
	case Snow:
		return glyphSnow
	default:
		return glyphCloud
	}
}

const glyphSun = `<g class="am-weather-sun" transform-origin="40px 40px">
  <circle cx="40" cy="40" r="14" fill="#f6b53f" stroke="#e2a436" stroke-width="2"/>
  <g stroke="#f6b53f" stroke-width="3" stroke-linecap="round">
    <line x1="40" y1="14" x2="40" y2="22"/>
    <line x1="40" y1="58" x2="40" y2="66"/>
    <line x1="14" y1="40" x2="22" y2="40"/>
    <line x1="58" y1="40" x2="66" y2="40"/>
    <line x1="21.6" y1="21.6" x2="27.3" y2="27.3"/>
    <line x1="52.7" y1="52.7" x2="58.4" y2="58.4"/>
    <line x1="21.6" y1="58.4" x2="27.3" y2="52.7"/>
    <line x1="52.7" y1="27.3" x2="58.4" y2="21.6"/>
  </g>
</g>`

const glyphCloud = `<g>
  <path d="M 24 48 a 12 12 0 0 1 2 -23.8 a 16 16 0 0 1 30.8 4.2 a 10 10 0 0 1 -1.8 19.6 z"
        fill="#d4d7dd" stroke="#b9bec7" stroke-width="2" stroke-linejoin="round"/>
</g>`

const glyphRain = `<g>
  <path d="M 24 42 a 12 12 0 0 1 2 -23.8 a 16 16 0 0 1 30.8 4.2 a 10 10 0 0 1 -1.8 19.6 z"
        fill="#d4d7dd" stroke="#b9bec7" stroke-width="2" stroke-linejoin="round"/>
  <g stroke="#5a9fd4" stroke-width="3" stroke-linecap="round">
    <line x1="30" y1="50" x2="27" y2="58"/>
    <line x1="41" y1="50" x2="38" y2="58"/>
    <line x1="52" y1="50" x2="49" y2="58"/>
  </g>
</g>`

const glyphStorm = `<g>
  <path d="M 24 40 a 12 12 0 0 1 2 -23.8 a 16 16 0 0 1 30.8 4.2 a 10 10 0 0 1 -1.8 19.6 z"
        fill="#9aa2b0" stroke="#7e8796" stroke-width="2" stroke-linejoin="round"/>
  <polygon points="42,42 33,56 40,56 36,68 49,52 41,52 46,42"
           fill="#f6b53f" stroke="#e2a436" stroke-width="1" stroke-linejoin="round"/>
</g>`

const glyphSnow = `<g>
  <path d="M 24 42 a 12 12 0 0 1 2 -23.8 a 16 16 0 0 1 30.8 4.2 a 10 10 0 0 1 -1.8 19.6 z"
        fill="#d4d7dd" stroke="#b9bec7" stroke-width="2" stroke-linejoin="round"/>
  <g fill="#ffffff" stroke="#9fc6e8" stroke-width="1">
    <circle cx="30" cy="53" r="2.5"/>
    <circle cx="41" cy="58" r="2.5"/>
    <circle cx="52" cy="53" r="2.5"/>
  </g>
</g>`

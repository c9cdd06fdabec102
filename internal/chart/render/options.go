// Package render turns aggregated XP data into drawing trees. Renderers are
// pure: they never fail and degrade to a placeholder on empty input.
package render

// Margin is the space between the drawing edge and the plot area.
type Margin struct {
	Top    float64 `yaml:"top" json:"top"`
	Right  float64 `yaml:"right" json:"right"`
	Bottom float64 `yaml:"bottom" json:"bottom"`
	Left   float64 `yaml:"left" json:"left"`
}

// Size is the container size of a drawing.
type Size struct {
	Width  float64 `yaml:"width" json:"width"`
	Height float64 `yaml:"height" json:"height"`
}

// LineOptions configures the line/area chart.
type LineOptions struct {
	Size         Size    `yaml:"size"`
	Margin       Margin  `yaml:"margin"`
	Title        string  `yaml:"title"`
	ShowTitle    bool    `yaml:"show_title"`
	Color        string  `yaml:"color"`
	GridColor    string  `yaml:"grid_color"`
	AreaOpacity  float64 `yaml:"area_opacity"`
	Area         bool    `yaml:"area"`
	Markers      bool    `yaml:"markers"`
	MarkerRadius float64 `yaml:"marker_radius"`
	// Cumulative plots running totals instead of per-bucket totals.
	Cumulative bool `yaml:"cumulative"`
}

// DefaultLineOptions returns the XP-over-time defaults.
func DefaultLineOptions() LineOptions {
	return LineOptions{
		Size:         Size{Width: 600, Height: 200},
		Margin:       Margin{Top: 16, Right: 16, Bottom: 24, Left: 40},
		Title:        "XP over time",
		Color:        "#4f46e5",
		GridColor:    "#e5e7eb",
		AreaOpacity:  0.15,
		Area:         true,
		Markers:      true,
		MarkerRadius: 4,
	}
}

// DefaultCumulativeOptions returns the cumulative XP defaults.
func DefaultCumulativeOptions() LineOptions {
	opts := DefaultLineOptions()
	opts.Size = Size{Width: 600, Height: 400}
	opts.Margin = Margin{Top: 20, Right: 30, Bottom: 60, Left: 80}
	opts.Title = "Cumulative XP Over Time"
	opts.ShowTitle = true
	opts.Cumulative = true
	opts.Color = "#667eea"
	return opts
}

// PassFailOptions configures the donut and pie charts.
type PassFailOptions struct {
	Size        Size    `yaml:"size"`
	Title       string  `yaml:"title"`
	PassColor   string  `yaml:"pass_color"`
	FailColor   string  `yaml:"fail_color"`
	HoleColor   string  `yaml:"hole_color"`
	InnerRadius float64 `yaml:"inner_radius"`
	// Legend reserves LegendHeight at the bottom for the pie legend.
	Legend       bool    `yaml:"legend"`
	LegendHeight float64 `yaml:"legend_height"`
}

// DefaultDonutOptions returns the donut defaults.
func DefaultDonutOptions() PassFailOptions {
	return PassFailOptions{
		Size:        Size{Width: 200, Height: 200},
		Title:       "PASS vs FAIL",
		PassColor:   "#22c55e",
		FailColor:   "#ef4444",
		HoleColor:   "#fff",
		InnerRadius: 60,
	}
}

// DefaultPieOptions returns the pie defaults.
func DefaultPieOptions() PassFailOptions {
	return PassFailOptions{
		Size:         Size{Width: 300, Height: 380},
		Title:        "Audit Success Rate",
		PassColor:    "#2ecc71",
		FailColor:    "#e74c3c",
		Legend:       true,
		LegendHeight: 80,
	}
}

// BarOptions configures the bar chart.
type BarOptions struct {
	Size   Size   `yaml:"size"`
	Margin Margin `yaml:"margin"`
	Title  string `yaml:"title"`
	Color  string `yaml:"color"`
}

// DefaultBarOptions returns the bar chart defaults.
func DefaultBarOptions() BarOptions {
	return BarOptions{
		Size:   Size{Width: 500, Height: 300},
		Margin: Margin{Top: 40, Right: 30, Bottom: 60, Left: 60},
		Title:  "XP by Project",
		Color:  "#667eea",
	}
}

func inner(size Size, m Margin) (float64, float64) {
	w := size.Width - m.Left - m.Right
	h := size.Height - m.Top - m.Bottom
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return w, h
}

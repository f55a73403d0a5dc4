package viz

import (
	"math"
	"strings"
)

const brailleBlank = 0x2800

// Dot bits of a braille cell, indexed [row][column]. Dots 1-3 and 4-6 fill
// the first three rows; dots 7 and 8 the fourth.
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

// Canvas is a braille pixel grid. Each cell holds 2x4 sub-pixels, so a
// canvas of Width x Height cells plots (2*Width) x (4*Height) points.
type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
		for j := range c.Grid[i] {
			c.Grid[i][j] = brailleBlank
		}
	}
	return c
}

// Set sets the sub-pixel at (x, y); y grows downwards.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}

	col := x / 2
	row := y / 4
	if col >= c.Width || row >= c.Height {
		return
	}

	subX := x % 2
	subY := y % 4

	c.Grid[row][col] |= rune(pixelMap[subY][subX])
}

// DrawLine connects two sub-pixels with Bresenham's algorithm.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// PlotLine draws values left to right as a connected line scaled to
// [lo, hi]. It returns false when there is nothing to draw.
func (c *Canvas) PlotLine(values []float64, lo, hi float64) bool {
	if len(values) == 0 || c.Width == 0 || c.Height == 0 {
		return false
	}
	if hi <= lo {
		lo, hi = lo-1, hi+1
	}
	w, h := c.Width*2, c.Height*4
	px := func(i int) int {
		if len(values) == 1 {
			return 0
		}
		return i * (w - 1) / (len(values) - 1)
	}
	py := func(v float64) int {
		if math.IsNaN(v) {
			return h - 1
		}
		frac := math.Min(math.Max((v-lo)/(hi-lo), 0), 1)
		return h - 1 - int(math.Round(frac*float64(h-1)))
	}

	x0, y0 := px(0), py(values[0])
	c.Set(x0, y0)
	for i := 1; i < len(values); i++ {
		x1, y1 := px(i), py(values[i])
		c.DrawLine(x0, y0, x1, y1)
		x0, y0 = x1, y1
	}
	return true
}

// Marker draws a vertical dotted line at sub-pixel column x.
func (c *Canvas) Marker(x int) {
	for y := 0; y < c.Height*4; y += 2 {
		c.Set(x, y)
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

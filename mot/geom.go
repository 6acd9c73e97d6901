package mot

import "math"

// Rect is an axis-aligned bounding box in pixel coordinates, stored as
// integer corners: (Left, Top) inclusive top-left, (Right, Bottom) bottom-right.
type Rect struct {
	Left   int
	Top    int
	Right  int
	Bottom int
}

// NewRect creates a rectangle from its corners
func NewRect(left, top, right, bottom int) Rect {
	return Rect{
		Left:   left,
		Top:    top,
		Right:  right,
		Bottom: bottom,
	}
}

// Width returns rectangle's width in pixels
func (r Rect) Width() int {
	return r.Right - r.Left
}

// Height returns rectangle's height in pixels
func (r Rect) Height() int {
	return r.Bottom - r.Top
}

// Area returns rectangle's area in pixels
func (r Rect) Area() float64 {
	return float64(r.Width()) * float64(r.Height())
}

// Center returns rectangle's center point
func (r Rect) Center() (float64, float64) {
	return float64(r.Left) + float64(r.Width())/2.0, float64(r.Top) + float64(r.Height())/2.0
}

// ToXYAH converts rectangle to the measurement space of the motion filter:
// center x, center y, aspect ratio (width/height) and height.
func (r Rect) ToXYAH() [4]float64 {
	cx, cy := r.Center()
	h := float64(r.Height())
	aspect := 0.0
	if h != 0 {
		aspect = float64(r.Width()) / h
	}
	return [4]float64{cx, cy, aspect, h}
}

// ToTLWH converts rectangle to (left, top, width, height) in floating point
func (r Rect) ToTLWH() [4]float64 {
	return [4]float64{float64(r.Left), float64(r.Top), float64(r.Width()), float64(r.Height())}
}

// IoU calculates Intersection over Union between two rectangles.
func IoU(r1, r2 Rect) float64 {
	return iouTLWH(r1.ToTLWH(), r2.ToTLWH())
}

// iouTLWH calculates Intersection over Union between two (left, top, width, height) boxes
func iouTLWH(b1, b2 [4]float64) float64 {
	xA := math.Max(b1[0], b2[0])
	yA := math.Max(b1[1], b2[1])
	xB := math.Min(b1[0]+b1[2], b2[0]+b2[2])
	yB := math.Min(b1[1]+b1[3], b2[1]+b2[3])

	interArea := math.Max(0, xB-xA) * math.Max(0, yB-yA)
	if interArea == 0 {
		return 0.0
	}

	b1Area := b1[2] * b1[3]
	b2Area := b2[2] * b2[3]
	return interArea / (b1Area + b2Area - interArea)
}

func euclideanNorm(x, y float64) float64 {
	return math.Sqrt(x*x + y*y)
}

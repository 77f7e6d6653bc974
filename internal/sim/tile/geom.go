package tile

// Point is a world coordinate. World sizes never exceed the int16 range.
type Point struct {
	X int16
	Y int16
}

func P(x, y int) Point { return Point{X: int16(x), Y: int16(y)} }

// Rect is an axis-aligned region of W x H cells with its origin at (X, Y).
type Rect struct {
	X int
	Y int
	W int
	H int
}

// RectFromCorners builds the rectangle spanning two inclusive corners in any order.
func RectFromCorners(x1, y1, x2, y2 int) Rect {
	if x2 < x1 {
		x1, x2 = x2, x1
	}
	if y2 < y1 {
		y1, y2 = y2, y1
	}
	return Rect{X: x1, Y: y1, W: x2 - x1 + 1, H: y2 - y1 + 1}
}

func (r Rect) Empty() bool { return r.W <= 0 || r.H <= 0 }

func (r Rect) Contains(x, y int) bool {
	return x >= r.X && y >= r.Y && x < r.X+r.W && y < r.Y+r.H
}

// Clamp intersects r with the world [0,width) x [0,height).
func (r Rect) Clamp(width, height int) Rect {
	x1, y1 := max(r.X, 0), max(r.Y, 0)
	x2, y2 := min(r.X+r.W, width), min(r.Y+r.H, height)
	if x2 <= x1 || y2 <= y1 {
		return Rect{X: x1, Y: y1}
	}
	return Rect{X: x1, Y: y1, W: x2 - x1, H: y2 - y1}
}

func InBounds(x, y, width, height int) bool {
	return x >= 0 && y >= 0 && x < width && y < height
}

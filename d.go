package delaunay
type Point struct{ X, Y float64 }
type Triangulation struct{ Triangles []int }
func Triangulate(p []Point) (*Triangulation, error) { return &Triangulation{}, nil }

package testutil

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/turtacn/fieldplan/pkg/types/plan"
)

// Triangle returns three portals roughly a kilometre apart.
func Triangle() []plan.Portal {
	return []plan.Portal{
		{ID: 0, Name: "Fountain", Lat: 51.5000, Lon: -0.1200},
		{ID: 1, Name: "Statue", Lat: 51.5090, Lon: -0.1200},
		{ID: 2, Name: "Mural", Lat: 51.5045, Lon: -0.1060},
	}
}

// Ring returns n portals evenly spaced on a circle of radius deg degrees,
// so every portal lies on the convex hull.
func Ring(n int, deg float64) []plan.Portal {
	out := make([]plan.Portal, n)
	for i := range out {
		a := 2 * math.Pi * float64(i) / float64(n)
		out[i] = plan.Portal{
			ID:   i,
			Name: fmt.Sprintf("Ring %d", i),
			Lat:  51.5 + deg*math.Sin(a),
			Lon:  -0.12 + deg*math.Cos(a),
		}
	}
	return out
}

// Scatter returns n pseudo-random portals inside a square of side deg
// degrees. The same seed always yields the same portals.
func Scatter(seed int64, n int, deg float64) []plan.Portal {
	rng := rand.New(rand.NewSource(seed))
	out := make([]plan.Portal, n)
	for i := range out {
		out[i] = plan.Portal{
			ID:   i,
			Name: fmt.Sprintf("Portal %d", i),
			Lat:  51.5 + deg*rng.Float64(),
			Lon:  -0.12 + deg*rng.Float64(),
		}
	}
	return out
}

// Collinear returns n portals on one meridian.
func Collinear(n int) []plan.Portal {
	out := make([]plan.Portal, n)
	for i := range out {
		out[i] = plan.Portal{ID: i, Name: fmt.Sprintf("Line %d", i), Lat: 51.5 + 0.001*float64(i), Lon: -0.12}
	}
	return out
}

// PortalText renders portals in the semicolon text format.
func PortalText(portals []plan.Portal) string {
	s := ""
	for _, p := range portals {
		s += fmt.Sprintf("%s;%.6f;%.6f\n", p.Name, p.Lat, p.Lon)
	}
	return s
}

//Personal.AI order the ending

package planning

import (
	"fmt"
	"strings"

	"github.com/turtacn/fieldplan/pkg/errors"
	"github.com/turtacn/fieldplan/pkg/types/plan"
)

// Normalize validates coordinates, drops duplicate locations (first wins),
// trims and synthesises names and assigns IDs in input order. Duplicates are
// reported as warnings.
func Normalize(in []plan.Portal) ([]plan.Portal, []plan.Warning, error) {
	out := make([]plan.Portal, 0, len(in))
	seen := make(map[plan.CoordKey]int, len(in))
	var warnings []plan.Warning

	for i, p := range in {
		if !p.ValidCoordinates() {
			return nil, nil, errors.Newf(errors.ErrCodeCoordinateRange,
				"portal %d has invalid coordinates (%v,%v)", i+1, p.Lat, p.Lon)
		}
		p.Name = strings.TrimSpace(p.Name)
		if first, dup := seen[p.Key()]; dup {
			name := p.Name
			if name == "" {
				name = fmt.Sprintf("input #%d", i+1)
			}
			warnings = append(warnings, plan.Warning{
				Code:    string(errors.ErrCodeDuplicateCoordinate),
				Message: fmt.Sprintf("%s duplicates %s and was dropped", name, out[first].Name),
				Portals: []int{first},
			})
			continue
		}
		p.ID = len(out)
		if p.Name == "" {
			p.Name = fmt.Sprintf("Portal-%d", p.ID+1)
		}
		seen[p.Key()] = p.ID
		out = append(out, p)
	}
	return out, warnings, nil
}

// FindPortal returns the index of the portal called name, ignoring case.
func FindPortal(portals []plan.Portal, name string) (int, bool) {
	for i, p := range portals {
		if strings.EqualFold(p.Name, name) {
			return i, true
		}
	}
	return -1, false
}

//Personal.AI order the ending

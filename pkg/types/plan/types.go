// Package plan defines the data model shared by the planning core, the
// application service and every outer surface: portals, links, fields, the
// ordered build sequence and per-agent sub-plans.
package plan

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Portal
// ─────────────────────────────────────────────────────────────────────────────

// Portal is a fixed geographic anchor point. ID is the portal's index in the
// plan's Portals slice and is assigned by normalisation.
type Portal struct {
	ID   int     `json:"id" yaml:"-"`
	Name string  `json:"name" yaml:"name"`
	Lat  float64 `json:"lat" yaml:"lat"`
	Lon  float64 `json:"lon" yaml:"lon"`
}

// String renders the portal as "name (lat,lon)".
func (p Portal) String() string {
	return fmt.Sprintf("%s (%.6f,%.6f)", p.Name, p.Lat, p.Lon)
}

// CoordPrecision is the coordinate resolution, in degrees, below which two
// portals are considered the same place.
const CoordPrecision = 1e-7

// CoordKey identifies a portal location at CoordPrecision.
type CoordKey [2]int64

// Key returns the portal's CoordKey.
func (p Portal) Key() CoordKey {
	return CoordKey{int64(math.Round(p.Lat / CoordPrecision)), int64(math.Round(p.Lon / CoordPrecision))}
}

// ValidCoordinates reports whether lat/lon are finite and in range.
func (p Portal) ValidCoordinates() bool {
	return !math.IsNaN(p.Lat) && !math.IsNaN(p.Lon) &&
		p.Lat >= -90 && p.Lat <= 90 && p.Lon >= -180 && p.Lon <= 180
}

// ─────────────────────────────────────────────────────────────────────────────
// Link / Field
// ─────────────────────────────────────────────────────────────────────────────

// Link is an unordered pair of distinct portal indices with A < B.
type Link struct {
	A int `json:"a"`
	B int `json:"b"`
}

// NewLink returns the canonical link between a and b.
func NewLink(a, b int) Link {
	if a > b {
		a, b = b, a
	}
	return Link{A: a, B: b}
}

// Has reports whether p is an endpoint of l.
func (l Link) Has(p int) bool {
	return l.A == p || l.B == p
}

// Other returns the endpoint of l that is not p.
func (l Link) Other(p int) int {
	if l.A == p {
		return l.B
	}
	return l.A
}

// Field is a triangle of three mutually linked portals. Corners are stored in
// ascending order. Depth is 0 for an outermost field and grows by one per
// level of nesting.
type Field struct {
	A     int `json:"a"`
	B     int `json:"b"`
	C     int `json:"c"`
	Depth int `json:"depth"`
}

// NewField returns the canonical field over corners a, b, c.
func NewField(a, b, c, depth int) Field {
	v := []int{a, b, c}
	sort.Ints(v)
	return Field{A: v[0], B: v[1], C: v[2], Depth: depth}
}

// Corners returns the three corner indices.
func (f Field) Corners() [3]int {
	return [3]int{f.A, f.B, f.C}
}

// Edges returns the three links bounding the field.
func (f Field) Edges() [3]Link {
	return [3]Link{NewLink(f.A, f.B), NewLink(f.B, f.C), NewLink(f.A, f.C)}
}

// HasCorner reports whether p is one of the field's corners.
func (f Field) HasCorner(p int) bool {
	return f.A == p || f.B == p || f.C == p
}

// ─────────────────────────────────────────────────────────────────────────────
// Build sequence
// ─────────────────────────────────────────────────────────────────────────────

// ActionKind distinguishes link creation from a plain key-collecting visit.
type ActionKind string

const (
	// ActionLink draws a link from Origin to Dest.
	ActionLink ActionKind = "link"
	// ActionKey walks to Origin to collect its key without drawing a link.
	ActionKey ActionKind = "key"
)

// Action is one step of a build order.
type Action struct {
	Kind   ActionKind `json:"kind"`
	Origin int        `json:"origin"`
	Dest   int        `json:"dest"`
	// LinkIndex indexes Plan.Links, -1 for key actions.
	LinkIndex int `json:"link_index"`
	LinkAP    int `json:"link_ap"`
	// FieldsCompleted indexes Plan.Fields.
	FieldsCompleted  []int   `json:"fields_completed,omitempty"`
	FieldAP          int     `json:"field_ap"`
	WalkMeters       float64 `json:"walk_meters"`
	CumulativeAP     int     `json:"cumulative_ap"`
	CumulativeMeters float64 `json:"cumulative_meters"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Plan
// ─────────────────────────────────────────────────────────────────────────────

// Warning is a non-fatal planning condition attached to a Plan.
type Warning struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Portals []int  `json:"portals,omitempty"`
}

// Stats records how the plan was searched.
type Stats struct {
	Seed           int64         `json:"seed"`
	Restarts       int           `json:"restarts"`
	BestRestart    int           `json:"best_restart"`
	Workers        int           `json:"workers"`
	CandidateEdges int           `json:"candidate_edges"`
	Elapsed        time.Duration `json:"elapsed_ns"`
}

// Plan is the complete output of one planning invocation.
type Plan struct {
	ID          string      `json:"id"`
	CreatedAt   time.Time   `json:"created_at"`
	Portals     []Portal    `json:"portals"`
	Links       []Link      `json:"links"`
	Fields      []Field     `json:"fields"`
	Actions     []Action    `json:"actions"`
	Rewards     Rewards     `json:"rewards"`
	TotalAP     int         `json:"total_ap"`
	TotalMeters float64     `json:"total_meters"`
	Agents      []AgentPlan `json:"agents,omitempty"`
	Warnings    []Warning   `json:"warnings,omitempty"`
	Stats       Stats       `json:"stats"`
}

// AgentPlan is the share of a Plan assigned to one operator. Links, Fields and
// the indices inside Actions all refer to the parent Plan's slices.
type AgentPlan struct {
	Agent       int      `json:"agent"`
	Links       []int    `json:"links"`
	Fields      []int    `json:"fields"`
	Actions     []Action `json:"actions"`
	TotalAP     int      `json:"total_ap"`
	TotalMeters float64  `json:"total_meters"`
}

// Summary is a compact view of a plan used by history listings and reports.
type Summary struct {
	ID          string    `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	Portals     int       `json:"portals"`
	Links       int       `json:"links"`
	Fields      int       `json:"fields"`
	Agents      int       `json:"agents"`
	TotalAP     int       `json:"total_ap"`
	TotalMeters float64   `json:"total_meters"`
	Seed        int64     `json:"seed"`
}

// Summarize builds the Summary of p.
func (p *Plan) Summarize() Summary {
	agents := len(p.Agents)
	if agents == 0 {
		agents = 1
	}
	return Summary{
		ID:          p.ID,
		CreatedAt:   p.CreatedAt,
		Portals:     len(p.Portals),
		Links:       len(p.Links),
		Fields:      len(p.Fields),
		Agents:      agents,
		TotalAP:     p.TotalAP,
		TotalMeters: p.TotalMeters,
		Seed:        p.Stats.Seed,
	}
}

// PortalName returns the name of portal i, or "#i" when out of range.
func (p *Plan) PortalName(i int) string {
	if i >= 0 && i < len(p.Portals) {
		return p.Portals[i].Name
	}
	return fmt.Sprintf("#%d", i)
}

// AddWarning appends a warning to the plan.
func (p *Plan) AddWarning(code, msg string, portals ...int) {
	p.Warnings = append(p.Warnings, Warning{Code: code, Message: msg, Portals: portals})
}

//Personal.AI order the ending

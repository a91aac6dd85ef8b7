package geometry

import (
	"fmt"
	"math"
	"sort"

	"github.com/paulmach/orb"
	"gonum.org/v1/gonum/spatial/r2"
)

// triangulate splits a simple polygon into triangles by ear clipping.
// Collinear vertices are dropped as they come up.
func triangulate(p Polygon) ([]Polygon, error) {
	pts := p.counterClockwise()
	var tris []Polygon
	for len(pts) > 3 {
		i := findEar(pts, true)
		if i < 0 {
			i = findEar(pts, false)
		}
		if i < 0 {
			return nil, fmt.Errorf("%w: no ear among %d vertices", ErrDegeneratePolygon, len(pts))
		}
		n := len(pts)
		a, b, c := pts[(i+n-1)%n], pts[i], pts[(i+1)%n]
		if math.Abs(cross(a, b, c)) > epsilon {
			tris = append(tris, Polygon{a, b, c})
		}
		pts = append(pts[:i], pts[i+1:]...)
	}
	if len(pts) == 3 && math.Abs(cross(pts[0], pts[1], pts[2])) > epsilon {
		tris = append(tris, Polygon(pts))
	}
	return tris, nil
}

// findEar returns the index of a convex vertex whose triangle with its
// neighbours holds no other vertex, or -1. A collinear vertex is returned
// at once. When closed is set, vertices on the triangle boundary also
// block the ear.
func findEar(pts []orb.Point, closed bool) int {
	n := len(pts)
	for i := range pts {
		prev, next := (i+n-1)%n, (i+1)%n
		a, b, c := pts[prev], pts[i], pts[next]
		turn := cross(a, b, c)
		if math.Abs(turn) <= epsilon {
			return i
		}
		if turn < 0 {
			continue
		}
		ear := true
		for j, v := range pts {
			if j == i || j == prev || j == next {
				continue
			}
			if inTriangle(a, b, c, v, closed) {
				ear = false
				break
			}
		}
		if ear {
			return i
		}
	}
	return -1
}

// inTriangle tests v against the counter-clockwise triangle a, b, c.
func inTriangle(a, b, c, v orb.Point, closed bool) bool {
	tol := epsilon
	if closed {
		tol = -epsilon
	}
	return cross(a, b, v) >= tol && cross(b, c, v) >= tol && cross(c, a, v) >= tol
}

// mergePieces stitches clipped pieces back into outlines. Edges walked in
// both directions cancel: shared triangle sides as well as the zero-width
// bridges clipping leaves between disconnected parts of a concave subject.
// The largest remaining loop is returned.
func mergePieces(parts []Polygon) Polygon {
	var verts []orb.Point
	id := func(p orb.Point) int {
		for i, v := range verts {
			if samePoint(v, p) {
				return i
			}
		}
		verts = append(verts, p)
		return len(verts) - 1
	}

	var edges [][2]int
	for _, part := range parts {
		pts := part.counterClockwise()
		for i := range pts {
			a, b := id(pts[i]), id(pts[(i+1)%len(pts)])
			if a != b {
				edges = append(edges, [2]int{a, b})
			}
		}
	}

	var live [][2]int
	for _, e := range edges {
		for _, s := range splitEdge(verts, e) {
			live = cancelOrAppend(live, s)
		}
	}

	var best Polygon
	var bestArea float64
	for _, loop := range traceLoops(live) {
		pts := make([]orb.Point, len(loop))
		for i, v := range loop {
			pts[i] = verts[v]
		}
		poly := dropCollinear(pts)
		if a := poly.Area(); a > bestArea {
			best, bestArea = poly, a
		}
	}
	return best
}

// splitEdge breaks e at every known vertex lying strictly inside it.
func splitEdge(verts []orb.Point, e [2]int) [][2]int {
	a, b := vec(verts[e[0]]), vec(verts[e[1]])
	d := r2.Sub(b, a)
	length := r2.Norm(d)
	if length <= epsilon {
		return [][2]int{e}
	}

	type stop struct {
		t float64
		v int
	}
	var stops []stop
	for i, p := range verts {
		if i == e[0] || i == e[1] {
			continue
		}
		w := r2.Sub(vec(p), a)
		if math.Abs(r2.Cross(d, w)) > epsilon*length {
			continue
		}
		t := r2.Dot(d, w) / (length * length)
		if t > 0 && t < 1 {
			stops = append(stops, stop{t: t, v: i})
		}
	}
	if len(stops) == 0 {
		return [][2]int{e}
	}
	sort.Slice(stops, func(i, j int) bool { return stops[i].t < stops[j].t })

	out := make([][2]int, 0, len(stops)+1)
	from := e[0]
	for _, s := range stops {
		out = append(out, [2]int{from, s.v})
		from = s.v
	}
	return append(out, [2]int{from, e[1]})
}

// cancelOrAppend drops the reverse of e from live if present, otherwise
// appends e.
func cancelOrAppend(live [][2]int, e [2]int) [][2]int {
	for i, f := range live {
		if f[0] == e[1] && f[1] == e[0] {
			return append(live[:i], live[i+1:]...)
		}
	}
	return append(live, e)
}

// traceLoops follows edges head to tail into closed vertex loops. Chains
// that never return to their start are discarded.
func traceLoops(edges [][2]int) [][]int {
	used := make([]bool, len(edges))
	var loops [][]int
	for i := range edges {
		if used[i] {
			continue
		}
		start := edges[i][0]
		var loop []int
		for j := i; j >= 0; {
			used[j] = true
			loop = append(loop, edges[j][0])
			next := edges[j][1]
			if next == start {
				loops = append(loops, loop)
				break
			}
			j = -1
			for k := range edges {
				if !used[k] && edges[k][0] == next {
					j = k
					break
				}
			}
		}
	}
	return loops
}

// dropCollinear removes vertices that do not turn.
func dropCollinear(pts []orb.Point) Polygon {
	pts = dedupe(pts)
	for changed := true; changed && len(pts) > 3; {
		changed = false
		n := len(pts)
		for i := range pts {
			if math.Abs(cross(pts[(i+n-1)%n], pts[i], pts[(i+1)%n])) <= epsilon {
				pts = append(pts[:i], pts[i+1:]...)
				changed = true
				break
			}
		}
	}
	return Polygon(pts)
}

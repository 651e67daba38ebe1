package mesh

import "math"

// XY is a 2-d coordinate.
type XY = [2]float64

func dist(a, b XY) float64 {
	dx := a[0] - b[0]
	dy := a[1] - b[1]
	return math.Hypot(dx, dy)
}

// closestOnSegment returns the point on segment [a,b] closest to p and the
// segment parameter t in [0,1].
func closestOnSegment(p, a, b XY) (XY, float64) {
	dx := b[0] - a[0]
	dy := b[1] - a[1]
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return a, 0
	}
	t := ((p[0]-a[0])*dx + (p[1]-a[1])*dy) / lenSq
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	return XY{a[0] + t*dx, a[1] + t*dy}, t
}

// segmentIntersection computes the crossing point of segments [a1,a2] and
// [b1,b2]. Touches at endpoints (within tol) do not count; those are handled
// by node snapping.
func segmentIntersection(a1, a2, b1, b2 XY, tol float64) (XY, bool) {
	d1x := a2[0] - a1[0]
	d1y := a2[1] - a1[1]
	d2x := b2[0] - b1[0]
	d2y := b2[1] - b1[1]

	denom := d1x*d2y - d1y*d2x
	if denom == 0 {
		// Parallel or collinear. Collinear overlap resolves through vertex and
		// node snapping, not through a crossing node.
		return XY{}, false
	}

	ex := b1[0] - a1[0]
	ey := b1[1] - a1[1]
	t := (ex*d2y - ey*d2x) / denom
	u := (ex*d1y - ey*d1x) / denom
	if t < 0 || t > 1 || u < 0 || u > 1 {
		return XY{}, false
	}

	p := XY{a1[0] + t*d1x, a1[1] + t*d1y}
	if dist(p, a1) <= tol || dist(p, a2) <= tol || dist(p, b1) <= tol || dist(p, b2) <= tol {
		return XY{}, false
	}
	return p, true
}

// pathsCongruent reports whether two polylines coincide vertex-wise within
// tol, in either direction.
func pathsCongruent(a, b []XY, tol float64) bool {
	if len(a) != len(b) {
		return false
	}
	forward := true
	for i := range a {
		if dist(a[i], b[i]) > tol {
			forward = false
			break
		}
	}
	if forward {
		return true
	}
	n := len(a)
	for i := range a {
		if dist(a[i], b[n-1-i]) > tol {
			return false
		}
	}
	return true
}

// normalizeRing drops the closing vertex and rotates the ring so it starts at
// its lexicographically smallest point, giving a canonical form for
// comparison.
func normalizeRing(ring []XY) []XY {
	pts := ring
	if len(pts) > 1 && pts[0] == pts[len(pts)-1] {
		pts = pts[:len(pts)-1]
	}
	if len(pts) == 0 {
		return nil
	}
	min := 0
	for i, p := range pts {
		q := pts[min]
		if p[0] < q[0] || (p[0] == q[0] && p[1] < q[1]) {
			min = i
		}
	}
	out := make([]XY, len(pts))
	for i := range pts {
		out[i] = pts[(min+i)%len(pts)]
	}
	return out
}

// ringsCongruent reports whether two closed rings trace the same boundary
// within tol, regardless of start point and direction.
func ringsCongruent(a, b []XY, tol float64) bool {
	na := normalizeRing(a)
	nb := normalizeRing(b)
	if len(na) != len(nb) {
		return false
	}
	if len(na) == 0 {
		return true
	}
	n := len(na)
	forward := true
	for i := range na {
		if dist(na[i], nb[i]) > tol {
			forward = false
			break
		}
	}
	if forward {
		return true
	}
	// Reversed ring: same start (canonical), opposite winding.
	for i := 1; i < n; i++ {
		if dist(na[i], nb[n-i]) > tol {
			return false
		}
	}
	return dist(na[0], nb[0]) <= tol
}

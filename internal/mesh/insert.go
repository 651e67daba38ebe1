package mesh

// AddPoint inserts a point within tol, returning the node now representing
// it. The point snaps to an existing node when one is close enough, splits an
// edge when it lands on an edge interior, and otherwise becomes an isolated
// node.
func (m *Mesh) AddPoint(p XY, tol float64) int64 {
	if n, ok := m.nodeNear(p, tol); ok {
		return n.ID
	}
	if e, proj, segIdx, ok := m.edgeNear(p, tol); ok {
		return m.splitEdge(e, proj, segIdx).ID
	}
	return m.newNode(p).ID
}

// AddLineString inserts a linestring within tol and returns the ordered edge
// ids that now cover it. Insertion nodes the line against the existing mesh:
// vertices snap to nodes, existing nodes on the line become vertices,
// crossings with existing edges split both sides, and congruent existing
// edges are reused instead of duplicated.
func (m *Mesh) AddLineString(pts []XY, tol float64) ([]int64, error) {
	work := dedupe(pts, tol)
	if len(work) < 2 {
		return nil, ErrShortLine
	}

	// Snap vertices onto existing nodes.
	for i := range work {
		if n, ok := m.nodeNear(work[i], tol); ok {
			work[i] = n.Pt
		}
	}
	work = dedupe(work, tol)
	if len(work) < 2 {
		return nil, ErrShortLine
	}

	// Vertices landing on an existing edge interior split that edge, so a
	// shared boundary resolves to shared primitives.
	for i := range work {
		if _, ok := m.nodeNear(work[i], tol); ok {
			continue
		}
		if e, proj, segIdx, ok := m.edgeNear(work[i], tol); ok {
			work[i] = m.splitEdge(e, proj, segIdx).Pt
		}
	}

	work = m.insertNodeVertices(work, tol)
	work = m.nodeCrossings(work, tol)

	// Endpoints always become nodes; interior vertices are nodes only when
	// they coincide with one.
	isNode := make([]bool, len(work))
	last := len(work) - 1
	startID := m.AddPoint(work[0], tol)
	work[0] = m.nodes[startID].Pt
	isNode[0] = true
	endID := m.AddPoint(work[last], tol)
	work[last] = m.nodes[endID].Pt
	isNode[last] = true
	for i := 1; i < last; i++ {
		if n, ok := m.nodeNear(work[i], tol); ok {
			work[i] = n.Pt
			isNode[i] = true
		}
	}

	// Each run between consecutive node vertices becomes one edge.
	var ids []int64
	runStart := 0
	for i := 1; i < len(work); i++ {
		if !isNode[i] {
			continue
		}
		seg := make([]XY, i-runStart+1)
		copy(seg, work[runStart:i+1])
		ids = append(ids, m.addEdge(seg, tol))
		runStart = i
	}
	return ids, nil
}

// AddPolygon inserts a polygon (shell plus holes) within tol. Its rings are
// inserted as closed lines, then the bounded region is registered as a face,
// reusing a congruent existing face when the region is already known.
func (m *Mesh) AddPolygon(rings [][]XY, tol float64) ([]int64, error) {
	if len(rings) == 0 {
		return nil, ErrEmptyShell
	}

	closed := make([][]XY, len(rings))
	for i, ring := range rings {
		r, err := closeRing(ring, tol)
		if err != nil {
			return nil, err
		}
		closed[i] = r
	}

	for _, ring := range closed {
		if _, err := m.AddLineString(ring, tol); err != nil {
			return nil, err
		}
	}

	shell := closed[0]
	holes := closed[1:]
	for _, f := range m.faces {
		if m.faceCongruent(f, shell, holes, tol) {
			return []int64{f.ID}, nil
		}
	}

	shellCopy := make([]XY, len(shell))
	copy(shellCopy, shell)
	var holesCopy [][]XY
	for _, h := range holes {
		hc := make([]XY, len(h))
		copy(hc, h)
		holesCopy = append(holesCopy, hc)
	}
	f := m.newFace(shellCopy, holesCopy)
	return []int64{f.ID}, nil
}

// insertNodeVertices adds a vertex wherever an existing node lies on the
// polyline interior, so the line later splits at it.
func (m *Mesh) insertNodeVertices(work []XY, tol float64) []XY {
	for _, n := range m.nodes {
		for i := 0; i+1 < len(work); i++ {
			proj, _ := closestOnSegment(n.Pt, work[i], work[i+1])
			if dist(n.Pt, proj) > tol {
				continue
			}
			if dist(n.Pt, work[i]) <= tol || dist(n.Pt, work[i+1]) <= tol {
				continue
			}
			work = insertAt(work, i+1, n.Pt)
			break
		}
	}
	return work
}

// nodeCrossings splits existing edges where the polyline crosses them and
// records each crossing as a polyline vertex. Restarts after every split
// since the edge set changes under iteration.
func (m *Mesh) nodeCrossings(work []XY, tol float64) []XY {
	for changed := true; changed; {
		changed = false
	scan:
		for _, e := range m.edges {
			for si := 0; si+1 < len(e.Pts); si++ {
				for wi := 0; wi+1 < len(work); wi++ {
					p, ok := segmentIntersection(work[wi], work[wi+1], e.Pts[si], e.Pts[si+1], tol)
					if !ok {
						continue
					}
					m.splitEdge(e, p, si)
					work = insertAt(work, wi+1, p)
					changed = true
					break scan
				}
			}
		}
	}
	return work
}

// addEdge creates an edge for a node-to-node run, reusing an existing
// congruent edge (in either direction) instead of duplicating it.
func (m *Mesh) addEdge(seg []XY, tol float64) int64 {
	start, _ := m.nodeNear(seg[0], tol)
	end, _ := m.nodeNear(seg[len(seg)-1], tol)
	for _, e := range m.edges {
		sameForward := e.Start == start.ID && e.End == end.ID
		sameReverse := e.Start == end.ID && e.End == start.ID
		if (sameForward || sameReverse) && pathsCongruent(e.Pts, seg, tol) {
			return e.ID
		}
	}
	return m.newEdge(start.ID, end.ID, seg).ID
}

func (m *Mesh) faceCongruent(f *Face, shell []XY, holes [][]XY, tol float64) bool {
	if !ringsCongruent(f.Shell, shell, tol) || len(f.Holes) != len(holes) {
		return false
	}
	matched := make([]bool, len(f.Holes))
	for _, h := range holes {
		found := false
		for i, fh := range f.Holes {
			if !matched[i] && ringsCongruent(fh, h, tol) {
				matched[i] = true
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// dedupe drops consecutive points closer than tol, keeping the first.
func dedupe(pts []XY, tol float64) []XY {
	if len(pts) == 0 {
		return nil
	}
	out := make([]XY, 0, len(pts))
	out = append(out, pts[0])
	for _, p := range pts[1:] {
		if dist(p, out[len(out)-1]) > tol {
			out = append(out, p)
		}
	}
	return out
}

// closeRing validates a ring and forces an exact closing vertex.
func closeRing(ring []XY, tol float64) ([]XY, error) {
	if len(ring) < 4 {
		return nil, ErrInvalidRing
	}
	if dist(ring[0], ring[len(ring)-1]) > tol {
		return nil, ErrInvalidRing
	}
	out := make([]XY, len(ring))
	copy(out, ring)
	out[len(out)-1] = out[0]
	return out, nil
}

func insertAt(pts []XY, i int, p XY) []XY {
	pts = append(pts, XY{})
	copy(pts[i+1:], pts[i:])
	pts[i] = p
	return pts
}

// Package mesh implements the planar primitive store: nodes, edges and faces
// shared by the topology geometries of one topology, with tolerance-aware
// insertion that can split existing primitives.
package mesh

import "errors"

// Insertion errors.
var (
	ErrShortLine   = errors.New("mesh: linestring needs at least two distinct points")
	ErrInvalidRing = errors.New("mesh: ring needs at least four points and must be closed")
	ErrEmptyShell  = errors.New("mesh: polygon must have at least one ring")
)

// Node is a 0-dimensional primitive.
type Node struct {
	ID int64 `json:"id"`
	Pt XY    `json:"pt"`
}

// Edge is a 1-dimensional primitive between two nodes. Pts includes both
// endpoints.
type Edge struct {
	ID    int64 `json:"id"`
	Start int64 `json:"start"`
	End   int64 `json:"end"`
	Pts   []XY  `json:"pts"`
}

// Face is a 2-dimensional primitive bounded by a shell and optional holes.
type Face struct {
	ID    int64  `json:"id"`
	Shell []XY   `json:"shell"`
	Holes [][]XY `json:"holes,omitempty"`
}

// Mesh holds the primitives of one topology. Not safe for concurrent use;
// the Engine serializes access.
type Mesh struct {
	nodes map[int64]*Node
	edges map[int64]*Edge
	faces map[int64]*Face

	nodeSeq int64
	edgeSeq int64
	faceSeq int64
}

// New creates an empty mesh.
func New() *Mesh {
	return &Mesh{
		nodes: make(map[int64]*Node),
		edges: make(map[int64]*Edge),
		faces: make(map[int64]*Face),
	}
}

// Node returns a node by id.
func (m *Mesh) Node(id int64) (Node, bool) {
	n, ok := m.nodes[id]
	if !ok {
		return Node{}, false
	}
	return *n, true
}

// Edge returns an edge by id.
func (m *Mesh) Edge(id int64) (Edge, bool) {
	e, ok := m.edges[id]
	if !ok {
		return Edge{}, false
	}
	return *e, true
}

// Face returns a face by id.
func (m *Mesh) Face(id int64) (Face, bool) {
	f, ok := m.faces[id]
	if !ok {
		return Face{}, false
	}
	return *f, true
}

// NumNodes returns the node count.
func (m *Mesh) NumNodes() int { return len(m.nodes) }

// NumEdges returns the edge count.
func (m *Mesh) NumEdges() int { return len(m.edges) }

// NumFaces returns the face count.
func (m *Mesh) NumFaces() int { return len(m.faces) }

func (m *Mesh) newNode(p XY) *Node {
	m.nodeSeq++
	n := &Node{ID: m.nodeSeq, Pt: p}
	m.nodes[n.ID] = n
	return n
}

func (m *Mesh) newEdge(start, end int64, pts []XY) *Edge {
	m.edgeSeq++
	e := &Edge{ID: m.edgeSeq, Start: start, End: end, Pts: pts}
	m.edges[e.ID] = e
	return e
}

func (m *Mesh) newFace(shell []XY, holes [][]XY) *Face {
	m.faceSeq++
	f := &Face{ID: m.faceSeq, Shell: shell, Holes: holes}
	m.faces[f.ID] = f
	return f
}

// nodeNear returns the node closest to p within tol.
func (m *Mesh) nodeNear(p XY, tol float64) (*Node, bool) {
	var best *Node
	bestDist := tol
	for _, n := range m.nodes {
		if d := dist(p, n.Pt); d <= bestDist {
			best = n
			bestDist = d
		}
	}
	return best, best != nil
}

// edgeNear finds an edge whose interior passes within tol of p, returning the
// projection point and the index of the segment it falls on.
func (m *Mesh) edgeNear(p XY, tol float64) (*Edge, XY, int, bool) {
	for _, e := range m.edges {
		for i := 0; i+1 < len(e.Pts); i++ {
			proj, _ := closestOnSegment(p, e.Pts[i], e.Pts[i+1])
			if dist(p, proj) > tol {
				continue
			}
			// Endpoint proximity belongs to node snapping.
			if dist(proj, e.Pts[0]) <= tol || dist(proj, e.Pts[len(e.Pts)-1]) <= tol {
				continue
			}
			return e, proj, i, true
		}
	}
	return nil, XY{}, 0, false
}

// splitEdge breaks an edge at a point on its segment segIdx. The first half
// keeps the original edge id, the second half becomes a new edge, mirroring
// in-place edge split semantics so existing references stay valid.
func (m *Mesh) splitEdge(e *Edge, at XY, segIdx int) *Node {
	node := m.newNode(at)

	first := make([]XY, 0, segIdx+2)
	first = append(first, e.Pts[:segIdx+1]...)
	if first[len(first)-1] != at {
		first = append(first, at)
	}

	second := make([]XY, 0, len(e.Pts)-segIdx)
	second = append(second, at)
	if e.Pts[segIdx+1] == at {
		second = append(second, e.Pts[segIdx+2:]...)
	} else {
		second = append(second, e.Pts[segIdx+1:]...)
	}

	oldEnd := e.End
	e.Pts = first
	e.End = node.ID
	m.newEdge(node.ID, oldEnd, second)

	return node
}

// Snapshot is the serialized form of a mesh.
type Snapshot struct {
	Nodes   []Node `json:"nodes"`
	Edges   []Edge `json:"edges"`
	Faces   []Face `json:"faces"`
	NodeSeq int64  `json:"node_seq"`
	EdgeSeq int64  `json:"edge_seq"`
	FaceSeq int64  `json:"face_seq"`
}

// Snapshot captures the mesh state for persistence.
func (m *Mesh) Snapshot() *Snapshot {
	s := &Snapshot{
		Nodes:   make([]Node, 0, len(m.nodes)),
		Edges:   make([]Edge, 0, len(m.edges)),
		Faces:   make([]Face, 0, len(m.faces)),
		NodeSeq: m.nodeSeq,
		EdgeSeq: m.edgeSeq,
		FaceSeq: m.faceSeq,
	}
	for _, n := range m.nodes {
		s.Nodes = append(s.Nodes, *n)
	}
	for _, e := range m.edges {
		s.Edges = append(s.Edges, *e)
	}
	for _, f := range m.faces {
		s.Faces = append(s.Faces, *f)
	}
	return s
}

// FromSnapshot restores a mesh from its serialized form.
func FromSnapshot(s *Snapshot) *Mesh {
	m := New()
	m.nodeSeq = s.NodeSeq
	m.edgeSeq = s.EdgeSeq
	m.faceSeq = s.FaceSeq
	for i := range s.Nodes {
		n := s.Nodes[i]
		m.nodes[n.ID] = &n
	}
	for i := range s.Edges {
		e := s.Edges[i]
		m.edges[e.ID] = &e
	}
	for i := range s.Faces {
		f := s.Faces[i]
		m.faces[f.ID] = &f
	}
	return m
}

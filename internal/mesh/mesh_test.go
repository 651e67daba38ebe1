package mesh

import (
	"context"
	"testing"

	geom "github.com/twpayne/go-geom"
)

const tol = 0.1

func TestAddPoint_NewNode(t *testing.T) {
	m := New()

	id := m.AddPoint(XY{1, 2}, tol)
	if id == 0 {
		t.Fatal("expected a node id")
	}
	if m.NumNodes() != 1 {
		t.Errorf("expected 1 node, got %d", m.NumNodes())
	}
}

func TestAddPoint_SnapsToExistingNode(t *testing.T) {
	m := New()

	first := m.AddPoint(XY{1, 2}, tol)
	second := m.AddPoint(XY{1.05, 2}, tol)
	if first != second {
		t.Errorf("expected snap to node %d, got %d", first, second)
	}
	if m.NumNodes() != 1 {
		t.Errorf("expected 1 node, got %d", m.NumNodes())
	}
}

func TestAddPoint_SplitsEdge(t *testing.T) {
	m := New()
	if _, err := m.AddLineString([]XY{{0, 0}, {10, 0}}, tol); err != nil {
		t.Fatalf("AddLineString: %v", err)
	}

	id := m.AddPoint(XY{5, 0.05}, tol)
	if id == 0 {
		t.Fatal("expected a node id")
	}
	if m.NumNodes() != 3 {
		t.Errorf("expected 3 nodes after split, got %d", m.NumNodes())
	}
	if m.NumEdges() != 2 {
		t.Errorf("expected 2 edges after split, got %d", m.NumEdges())
	}
}

func TestAddLineString_Simple(t *testing.T) {
	m := New()

	ids, err := m.AddLineString([]XY{{0, 0}, {10, 0}}, tol)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 1 {
		t.Fatalf("expected 1 edge id, got %d", len(ids))
	}
	if m.NumNodes() != 2 || m.NumEdges() != 1 {
		t.Errorf("expected 2 nodes / 1 edge, got %d / %d", m.NumNodes(), m.NumEdges())
	}
}

func TestAddLineString_ReusesCongruentEdge(t *testing.T) {
	m := New()

	first, err := m.AddLineString([]XY{{0, 0}, {10, 0}}, tol)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := m.AddLineString([]XY{{10, 0}, {0, 0}}, tol)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first[0] != second[0] {
		t.Errorf("expected reversed reinsert to reuse edge %d, got %d", first[0], second[0])
	}
	if m.NumEdges() != 1 {
		t.Errorf("expected 1 edge, got %d", m.NumEdges())
	}
}

func TestAddLineString_SplitsAtCrossing(t *testing.T) {
	m := New()
	if _, err := m.AddLineString([]XY{{0, 0}, {10, 0}}, tol); err != nil {
		t.Fatalf("AddLineString: %v", err)
	}

	ids, err := m.AddLineString([]XY{{5, -5}, {5, 5}}, tol)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected the crossing line split into 2 edges, got %d", len(ids))
	}
	if m.NumNodes() != 5 {
		t.Errorf("expected 5 nodes, got %d", m.NumNodes())
	}
	if m.NumEdges() != 4 {
		t.Errorf("expected 4 edges, got %d", m.NumEdges())
	}
}

func TestAddLineString_ShortLine(t *testing.T) {
	m := New()

	if _, err := m.AddLineString([]XY{{1, 1}}, tol); err != ErrShortLine {
		t.Errorf("expected ErrShortLine, got %v", err)
	}
	// All points collapse within tolerance.
	if _, err := m.AddLineString([]XY{{1, 1}, {1.05, 1}}, tol); err != ErrShortLine {
		t.Errorf("expected ErrShortLine for collapsed line, got %v", err)
	}
}

func rect(x0, y0, x1, y1 float64) []XY {
	return []XY{{x0, y0}, {x1, y0}, {x1, y1}, {x0, y1}, {x0, y0}}
}

func TestAddPolygon_Rectangle(t *testing.T) {
	m := New()

	ids, err := m.AddPolygon([][]XY{rect(0, 0, 10, 10)}, tol)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 1 {
		t.Fatalf("expected 1 face id, got %d", len(ids))
	}
	if m.NumFaces() != 1 {
		t.Errorf("expected 1 face, got %d", m.NumFaces())
	}
}

func TestAddPolygon_ReusesFace(t *testing.T) {
	m := New()

	first, err := m.AddPolygon([][]XY{rect(0, 0, 10, 10)}, tol)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := m.AddPolygon([][]XY{rect(0, 0, 10, 10)}, tol)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first[0] != second[0] {
		t.Errorf("expected face reuse, got %d then %d", first[0], second[0])
	}
	if m.NumFaces() != 1 {
		t.Errorf("expected 1 face, got %d", m.NumFaces())
	}
}

func TestAddPolygon_SharedBoundary(t *testing.T) {
	m := New()

	if _, err := m.AddPolygon([][]XY{rect(0, 0, 10, 10)}, tol); err != nil {
		t.Fatalf("first polygon: %v", err)
	}
	if _, err := m.AddPolygon([][]XY{rect(10, 0, 20, 10)}, tol); err != nil {
		t.Fatalf("second polygon: %v", err)
	}

	// The shared boundary splits the first ring edge and is reused by the
	// second ring instead of being duplicated.
	if m.NumFaces() != 2 {
		t.Errorf("expected 2 faces, got %d", m.NumFaces())
	}
	if m.NumEdges() != 4 {
		t.Errorf("expected 4 edges, got %d", m.NumEdges())
	}
	if m.NumNodes() != 3 {
		t.Errorf("expected 3 nodes, got %d", m.NumNodes())
	}
}

func TestAddPolygon_InvalidRing(t *testing.T) {
	m := New()

	if _, err := m.AddPolygon([][]XY{{{0, 0}, {1, 0}, {0, 0}}}, tol); err != ErrInvalidRing {
		t.Errorf("expected ErrInvalidRing for short ring, got %v", err)
	}
	if _, err := m.AddPolygon([][]XY{{{0, 0}, {1, 0}, {1, 1}, {5, 5}}}, tol); err != ErrInvalidRing {
		t.Errorf("expected ErrInvalidRing for open ring, got %v", err)
	}
	if _, err := m.AddPolygon(nil, tol); err != ErrEmptyShell {
		t.Errorf("expected ErrEmptyShell, got %v", err)
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	m := New()
	if _, err := m.AddPolygon([][]XY{rect(0, 0, 10, 10)}, tol); err != nil {
		t.Fatalf("AddPolygon: %v", err)
	}
	if _, err := m.AddLineString([]XY{{20, 0}, {30, 0}}, tol); err != nil {
		t.Fatalf("AddLineString: %v", err)
	}

	restored := FromSnapshot(m.Snapshot())
	if restored.NumNodes() != m.NumNodes() ||
		restored.NumEdges() != m.NumEdges() ||
		restored.NumFaces() != m.NumFaces() {
		t.Errorf("snapshot round trip mismatch: %d/%d/%d vs %d/%d/%d",
			restored.NumNodes(), restored.NumEdges(), restored.NumFaces(),
			m.NumNodes(), m.NumEdges(), m.NumFaces(),
		)
	}

	// Sequences must survive so ids never collide after a reload.
	id := restored.AddPoint(XY{100, 100}, tol)
	if _, ok := m.Node(id); ok {
		t.Errorf("expected fresh node id after restore, got reused %d", id)
	}
}

func TestEngine_InsertAndReadback(t *testing.T) {
	e := NewEngine(nil, "", nil)
	ctx := context.Background()

	pg := geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{
		{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}},
	})
	faceIDs, err := e.AddPolygon(ctx, "city", pg, tol)
	if err != nil {
		t.Fatalf("AddPolygon: %v", err)
	}
	if len(faceIDs) != 1 {
		t.Fatalf("expected 1 face id, got %d", len(faceIDs))
	}

	g, err := e.Primitive(ctx, "city", 3, faceIDs[0])
	if err != nil {
		t.Fatalf("Primitive: %v", err)
	}
	if _, ok := g.(*geom.Polygon); !ok {
		t.Errorf("expected polygon readback, got %T", g)
	}

	// Meshes are per topology.
	pt := geom.NewPointFlat(geom.XY, []float64{1, 1})
	if _, err := e.AddPoint(ctx, "roads", pt, tol); err != nil {
		t.Fatalf("AddPoint: %v", err)
	}
	if _, err := e.Primitive(ctx, "roads", 3, faceIDs[0]); err == nil {
		t.Error("expected face lookup in a different topology to fail")
	}
}

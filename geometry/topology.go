package geometry

// Topology builds the flat primitive list of a buffer.
type Topology struct {
	indices  []int32
	prims    int
	vertices int
}

// AddPolygon appends a closed polygon over the given points.
func (t *Topology) AddPolygon(points ...int32) *Topology {
	return t.add(points, ClosedPolygon)
}

// AddPolyline appends an open polyline through the given points.
func (t *Topology) AddPolyline(points ...int32) *Topology {
	return t.add(points, OpenPolyline)
}

func (t *Topology) add(points []int32, terminator int32) *Topology {
	t.indices = append(t.indices, points...)
	t.indices = append(t.indices, terminator)
	t.prims++
	t.vertices += len(points)
	return t
}

// NumPrims returns the number of primitives added.
func (t *Topology) NumPrims() int { return t.prims }

// NumVertices returns the number of vertices added.
func (t *Topology) NumVertices() int { return t.vertices }

// Indices returns the flat list ready for Writer.WriteTopology.
func (t *Topology) Indices() []int32 { return t.indices }

package resource

import (
	"github.com/hupe1980/resforge/codec"
	"github.com/hupe1980/resforge/internal/byteio"
	"github.com/hupe1980/resforge/platform"
)

// Navigation is an AI navigation graph.
//
// Layout: WaypointCount u32 | GroupCount u32 | Waypoints ptr | Groups ptr |
// LinkCount u32 (pointer slot) | Links ptr.
//
// Links point at their spatial group eagerly and back at their waypoints
// through deferred pointers; groups back-reference their links. Groups are
// written first, then links, then waypoints, so every back-reference targets
// a record placed in the same pass.
type Navigation struct {
	Waypoints []*Waypoint
	Groups    []*SpatialGroup
	Links     []*Link
}

func (n *Navigation) Size(p *platform.Profile, _ int) int { return 8 + 4*p.PointerSize }

func (n *Navigation) Decode(lc *codec.LoadContext) error {
	ps := lc.PointerSize()
	wpCount := lc.ReadCount()
	groupCount := lc.ReadCount()
	wpOff := lc.ReadPointer()
	groupOff := lc.ReadPointer()
	linkCount := lc.ReadCount()
	lc.Align(ps)
	linkOff := lc.ReadPointer()

	groups, err := codec.LoadArray[SpatialGroup](lc, groupOff, groupCount)
	if err != nil {
		return err
	}
	links, err := codec.LoadArray[Link](lc, linkOff, linkCount)
	if err != nil {
		return err
	}
	wps, err := codec.LoadArray[Waypoint](lc, wpOff, wpCount)
	if err != nil {
		return err
	}
	n.Groups, n.Links, n.Waypoints = groups, links, wps
	return lc.Err()
}

func (n *Navigation) Encode(sc *codec.SaveContext, r *codec.Region) error {
	ps := sc.PointerSize()
	if err := codec.SaveObjectArray(sc, r, 4, 8+ps, n.Groups, 0); err != nil {
		return err
	}
	if err := codec.SaveObjectArray(sc, r, 8+2*ps, 8+3*ps, n.Links, 0); err != nil {
		return err
	}
	if err := codec.SaveObjectArray(sc, r, 0, 8, n.Waypoints, 0); err != nil {
		return err
	}
	return r.Err()
}

// Waypoint is a node of the navigation graph.
//
// Layout: Position [3]f32 | Radius f32 | LinkCount u32 | Links ptr (aligned).
type Waypoint struct {
	Position [3]float32
	Radius   float32
	Links    []*Link
}

func waypointLinksOff(ps int) int { return byteio.AlignUp(20, ps) }

func (w *Waypoint) Size(p *platform.Profile, _ int) int {
	return waypointLinksOff(p.PointerSize) + p.PointerSize
}

func (w *Waypoint) Decode(lc *codec.LoadContext) error {
	for i := range w.Position {
		w.Position[i] = lc.ReadF32()
	}
	w.Radius = lc.ReadF32()
	count := lc.ReadCount()
	lc.Align(lc.PointerSize())
	off := lc.ReadPointer()
	links, err := codec.LoadPointerArray[Link](lc, off, count)
	if err != nil {
		return err
	}
	w.Links = links
	return lc.Err()
}

func (w *Waypoint) Encode(sc *codec.SaveContext, r *codec.Region) error {
	for i, v := range w.Position {
		r.PutF32(i*4, v)
	}
	r.PutF32(12, w.Radius)
	return codec.SavePointerArray(sc, r, 16, waypointLinksOff(sc.PointerSize()), w.Links, 0)
}

// Link connects two waypoints and belongs to one spatial group.
//
// Layout: From ptr (deferred) | To ptr (deferred) | Group ptr | Cost f32 |
// Flags u16 | pad.
type Link struct {
	From  *Waypoint
	To    *Waypoint
	Group *SpatialGroup
	Cost  float32
	Flags uint16
}

func (l *Link) Size(p *platform.Profile, _ int) int {
	return byteio.AlignUp(3*p.PointerSize+8, p.PointerSize)
}

func (l *Link) Decode(lc *codec.LoadContext) error {
	from, err := codec.LoadPointer[Waypoint](lc)
	if err != nil {
		return err
	}
	to, err := codec.LoadPointer[Waypoint](lc)
	if err != nil {
		return err
	}
	group, err := codec.LoadPointer[SpatialGroup](lc)
	if err != nil {
		return err
	}
	l.From, l.To, l.Group = from, to, group
	l.Cost = lc.ReadF32()
	l.Flags = lc.ReadU16()
	return lc.Err()
}

func (l *Link) Encode(sc *codec.SaveContext, r *codec.Region) error {
	ps := sc.PointerSize()
	if err := sc.SavePointer(r, 0, l.From, 0, true); err != nil {
		return err
	}
	if err := sc.SavePointer(r, ps, l.To, 0, true); err != nil {
		return err
	}
	if err := sc.SavePointer(r, 2*ps, l.Group, 0, false); err != nil {
		return err
	}
	r.PutF32(3*ps, l.Cost)
	r.PutU16(3*ps+4, l.Flags)
	return r.Err()
}

// SpatialGroup buckets links by bounding box.
//
// Layout: Min [3]f32 | Max [3]f32 | LinkCount u32 | Links ptr (aligned,
// back-references).
type SpatialGroup struct {
	Min   [3]float32
	Max   [3]float32
	Links []*Link
}

func groupLinksOff(ps int) int { return byteio.AlignUp(28, ps) }

func (g *SpatialGroup) Size(p *platform.Profile, _ int) int {
	return groupLinksOff(p.PointerSize) + p.PointerSize
}

func (g *SpatialGroup) Decode(lc *codec.LoadContext) error {
	for i := range g.Min {
		g.Min[i] = lc.ReadF32()
	}
	for i := range g.Max {
		g.Max[i] = lc.ReadF32()
	}
	count := lc.ReadCount()
	lc.Align(lc.PointerSize())
	off := lc.ReadPointer()
	links, err := codec.LoadPointerArray[Link](lc, off, count)
	if err != nil {
		return err
	}
	g.Links = links
	return lc.Err()
}

func (g *SpatialGroup) Encode(sc *codec.SaveContext, r *codec.Region) error {
	for i, v := range g.Min {
		r.PutF32(i*4, v)
	}
	for i, v := range g.Max {
		r.PutF32(12+i*4, v)
	}
	return codec.SaveReferenceArray(sc, r, 24, groupLinksOff(sc.PointerSize()), g.Links, 0)
}

// Connect appends a link from a to b in group g and wires all back-references.
func (n *Navigation) Connect(a, b *Waypoint, g *SpatialGroup, cost float32) *Link {
	l := &Link{From: a, To: b, Group: g, Cost: cost}
	n.Links = append(n.Links, l)
	a.Links = append(a.Links, l)
	if g != nil {
		g.Links = append(g.Links, l)
	}
	return l
}

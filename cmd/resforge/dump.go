package main

import (
	"context"
	"fmt"

	"github.com/goccy/go-yaml"

	"github.com/hupe1980/resforge/resource"
)

func runDump(_ context.Context, e *env, args []string) error {
	fl := newFlagSet("dump", e)
	var df decodeFlags
	df.register(fl)
	if err := fl.Parse(args); err != nil {
		return err
	}
	if fl.NArg() != 1 || df.kind == "" {
		return errUsage
	}
	d, err := df.decode(fl.Arg(0))
	if err != nil {
		return err
	}
	out, err := yaml.Marshal(view(d.obj))
	if err != nil {
		return err
	}
	_, err = e.stdout.Write(out)
	return err
}

// Navigation graphs are cyclic, so references are printed as indexes.

type navView struct {
	Waypoints []waypointView `yaml:"waypoints"`
	Groups    []groupView    `yaml:"groups"`
	Links     []linkView     `yaml:"links"`
}

type waypointView struct {
	Position [3]float32 `yaml:"position,flow"`
	Radius   float32    `yaml:"radius"`
	Links    []int      `yaml:"links,flow"`
}

type groupView struct {
	Min   [3]float32 `yaml:"min,flow"`
	Max   [3]float32 `yaml:"max,flow"`
	Links []int      `yaml:"links,flow"`
}

type linkView struct {
	From  int     `yaml:"from"`
	To    int     `yaml:"to"`
	Group int     `yaml:"group"`
	Cost  float32 `yaml:"cost"`
	Flags uint16  `yaml:"flags"`
}

type keyframesView struct {
	Duration float32        `yaml:"duration"`
	Entries  []keyEntryView `yaml:"entries"`
}

type keyEntryView struct {
	Time  float32   `yaml:"time"`
	Type  string    `yaml:"type"`
	Value []float32 `yaml:"value,flow"`
}

type meshView struct {
	Name        string       `yaml:"name"`
	BoundsMin   [4]float32   `yaml:"bounds_min,flow"`
	BoundsMax   [4]float32   `yaml:"bounds_max,flow"`
	VertexCount uint32       `yaml:"vertex_count"`
	IndexCount  uint32       `yaml:"index_count"`
	Flags       uint8        `yaml:"flags"`
	Streams     []streamView `yaml:"streams"`
	VertexBytes int          `yaml:"vertex_bytes"`
}

type streamView struct {
	Stride   uint16 `yaml:"stride"`
	Format   uint8  `yaml:"format"`
	Semantic uint8  `yaml:"semantic"`
}

type collisionView struct {
	Sections []sectionView `yaml:"sections"`
}

type sectionView struct {
	Kind      string              `yaml:"kind"`
	Triangles []resource.Triangle `yaml:"triangles,omitempty"`
	Boxes     []resource.Box      `yaml:"boxes,omitempty"`
	Spheres   []resource.Sphere   `yaml:"spheres,omitempty"`
}

func indexOf[T comparable](list []T, v T) int {
	for i, x := range list {
		if x == v {
			return i
		}
	}
	return -1
}

func indexes[T comparable](list, refs []T) []int {
	out := make([]int, len(refs))
	for i, r := range refs {
		out[i] = indexOf(list, r)
	}
	return out
}

func deref[T any](ps []*T) []T {
	out := make([]T, len(ps))
	for i, p := range ps {
		out[i] = *p
	}
	return out
}

func view(obj any) any {
	switch o := obj.(type) {
	case *resource.Navigation:
		v := navView{}
		for _, w := range o.Waypoints {
			v.Waypoints = append(v.Waypoints, waypointView{Position: w.Position, Radius: w.Radius, Links: indexes(o.Links, w.Links)})
		}
		for _, g := range o.Groups {
			v.Groups = append(v.Groups, groupView{Min: g.Min, Max: g.Max, Links: indexes(o.Links, g.Links)})
		}
		for _, l := range o.Links {
			v.Links = append(v.Links, linkView{
				From:  indexOf(o.Waypoints, l.From),
				To:    indexOf(o.Waypoints, l.To),
				Group: indexOf(o.Groups, l.Group),
				Cost:  l.Cost,
				Flags: l.Flags,
			})
		}
		return v
	case *resource.Keyframes:
		v := keyframesView{Duration: o.Duration}
		for _, k := range o.Entries {
			ev := keyEntryView{Time: k.Time}
			switch val := k.Value.(type) {
			case resource.Scalar:
				ev.Type, ev.Value = "scalar", []float32{float32(val)}
			case resource.Vector:
				ev.Type, ev.Value = "vector", val[:]
			case resource.Rotation:
				ev.Type, ev.Value = "rotation", val[:]
			}
			v.Entries = append(v.Entries, ev)
		}
		return v
	case *resource.Mesh:
		v := meshView{
			Name:        o.Name,
			BoundsMin:   o.BoundsMin,
			BoundsMax:   o.BoundsMax,
			VertexCount: o.VertexCount,
			IndexCount:  o.IndexCount,
			Flags:       o.Flags,
			VertexBytes: len(o.VertexData),
		}
		for _, s := range o.Streams {
			v.Streams = append(v.Streams, streamView{Stride: s.Stride, Format: s.Format, Semantic: s.Semantic})
		}
		return v
	case *resource.CollisionMesh:
		v := collisionView{}
		for _, s := range o.Sections {
			v.Sections = append(v.Sections, sectionView{
				Kind:      s.Kind.String(),
				Triangles: deref(s.Triangles),
				Boxes:     deref(s.Boxes),
				Spheres:   deref(s.Spheres),
			})
		}
		return v
	default:
		return fmt.Sprintf("%T", obj)
	}
}

package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/hupe1980/resforge/codec"
	"github.com/hupe1980/resforge/platform"
	"github.com/hupe1980/resforge/resource"
)

type decodeFlags struct {
	kind    string
	plat    string
	version int
	gpu     string
}

func (d *decodeFlags) register(fl *flag.FlagSet) {
	fl.StringVar(&d.kind, "type", "", "resource kind (collision, keyframes, mesh, nav)")
	platformFlag(fl, &d.plat)
	fl.IntVar(&d.version, "version", 0, "resource version (default: platform default)")
	fl.StringVar(&d.gpu, "gpu", "", "GPU side file (default: <file>.gpu when present)")
}

type decoded struct {
	obj     codec.Object
	kind    resource.Kind
	profile *platform.Profile
	version int
	data    []byte
	gpu     []byte
}

func (d *decodeFlags) decode(path string) (*decoded, error) {
	kind, err := resource.ParseKind(d.kind)
	if err != nil {
		return nil, err
	}
	p, err := platform.Parse(d.plat)
	if err != nil {
		return nil, err
	}
	version := d.version
	if version == 0 {
		version = p.DefaultVersion
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	gpuPath := d.gpu
	if gpuPath == "" {
		if _, err := os.Stat(path + ".gpu"); err == nil {
			gpuPath = path + ".gpu"
		}
	}
	var gpu []byte
	var opts []codec.Option
	if gpuPath != "" {
		if gpu, err = os.ReadFile(gpuPath); err != nil {
			return nil, err
		}
		opts = append(opts, codec.WithGPUData(gpu))
	}

	obj, err := resource.Decode(kind, data, p, version, opts...)
	if err != nil {
		return nil, err
	}
	return &decoded{obj: obj, kind: kind, profile: p, version: version, data: data, gpu: gpu}, nil
}

func runRoundTrip(_ context.Context, e *env, args []string) error {
	fl := newFlagSet("roundtrip", e)
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
	res, err := codec.Save(d.obj, d.profile, d.version)
	if err != nil {
		return err
	}

	if off, ok := firstDiff(d.data, res.Data); !ok {
		fmt.Fprintf(e.stdout, "%s: %s at 0x%x (%d vs %d bytes)\n", fl.Arg(0), badColor("differs"), off, len(d.data), len(res.Data))
		return fmt.Errorf("re-encoded %s differs", d.kind)
	}
	if d.gpu != nil && !bytes.Equal(d.gpu, res.GPU) {
		fmt.Fprintf(e.stdout, "%s: GPU buffer %s\n", fl.Arg(0), badColor("differs"))
		return fmt.Errorf("re-encoded %s GPU buffer differs", d.kind)
	}
	fmt.Fprintf(e.stdout, "%s: %s (%d bytes)\n", fl.Arg(0), okColor("identical"), len(res.Data))
	return nil
}

// firstDiff returns the first offset where a and b differ, and true when
// they are equal.
func firstDiff(a, b []byte) (int, bool) {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i, false
		}
	}
	if len(a) != len(b) {
		return n, false
	}
	return 0, true
}

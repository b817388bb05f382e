// mdltool is a CLI utility for working with text MDL models and walkmeshes.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/midgard-mdl/internal/config"
	"github.com/Faultbox/midgard-mdl/internal/logger"
	"github.com/Faultbox/midgard-mdl/pkg/mdl"
)

var (
	cfg  *config.Config
	opts *mdl.Options
)

func main() {
	config.ParseFlags()

	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	opts = cfg.Options(logger.Log.Named("mdl"))

	if flag.NArg() < 1 {
		printUsage()
		os.Exit(1)
	}

	command := flag.Arg(0)
	args := flag.Args()[1:]

	var code int
	switch command {
	case "info":
		code = cmdInfo(args)
	case "check":
		code = cmdCheck(args)
	case "fmt":
		code = cmdFmt(args)
	case "walkmesh", "wm":
		code = cmdWalkmesh(args)
	case "aabb":
		code = cmdAABB(args)
	case "anims":
		code = cmdAnims(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		code = 1
	}
	logger.Sync()
	os.Exit(code)
}

func printUsage() {
	fmt.Println(`mdltool - text MDL model and walkmesh utility

Usage:
  mdltool [flags] <command> [options]

Commands:
  info <file.mdl>                       Show model header and node summary
  check <file>...                       Parse models/walkmeshes and report errors
  fmt [-o out] <file.mdl>               Re-serialize a model in canonical form
  walkmesh [-o out] <file.mdl> [wm.mdl] Extract the walkmesh (wok/pwk/dwk)
  aabb <file.mdl|file.wok>              Rebuild and summarize aabb trees
  anims <file.mdl>                      List animations, events and tracks

Flags:
  -config <path>     Config file (.yaml or .toml)
  -debug             Enable debug logging
  -fps <n>           Frames per second for key times
  -no-triangulate    Do not triangulate n-gons on write
  -no-anims          Do not write animations
  -log-file <path>   Also log to a rotating file

Examples:
  mdltool info plc_chair.mdl
  mdltool check *.mdl *.pwk
  mdltool -no-anims fmt -o clean.mdl plc_chair.mdl
  mdltool walkmesh tin01_a01.mdl`)
}

// load parses a model or walkmesh file depending on its extension.
func load(path string) (*mdl.Model, *mdl.Walkmesh, error) {
	if _, ok := mdl.ParseWalkmeshKind(filepath.Ext(path)); ok {
		wm, err := mdl.ParseWalkmeshFile(path, opts)
		return nil, wm, err
	}
	m, err := mdl.ParseFile(path, opts)
	return m, nil, err
}

func cmdInfo(args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: mdltool info <file.mdl>")
		return 1
	}

	m, err := mdl.ParseFile(args[0], opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	fmt.Printf("Model:          %s\n", m.Name)
	fmt.Printf("Supermodel:     %s\n", m.SuperModel)
	fmt.Printf("Classification: %s\n", m.Classification)
	fmt.Printf("Anim scale:     %g\n", m.AnimationScale)
	fmt.Printf("Nodes:          %d\n", len(m.Nodes))
	fmt.Printf("Vertices:       %d\n", m.TotalVertexCount())
	fmt.Printf("Faces:          %d\n", m.TotalFaceCount())
	fmt.Printf("Animations:     %d\n", len(m.Animations))
	fmt.Println()
	fmt.Println("Nodes by type:")

	typeCount := make(map[mdl.NodeType]int)
	for _, n := range m.Nodes {
		typeCount[n.Type]++
	}
	types := make([]mdl.NodeType, 0, len(typeCount))
	for t := range typeCount {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool {
		return typeCount[types[i]] > typeCount[types[j]]
	})
	for _, t := range types {
		fmt.Printf("  %-12s %d\n", t, typeCount[t])
	}
	return 0
}

func cmdCheck(args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: mdltool check <file>...")
		return 1
	}

	failed := 0
	for _, path := range args {
		m, wm, err := load(path)
		if err == nil && m != nil {
			err = m.Validate()
		}
		if err != nil {
			failed++
			fmt.Printf("FAIL %s: %v\n", path, err)
			continue
		}
		if wm != nil {
			fmt.Printf("ok   %s (%s, %d nodes)\n", path, wm.Kind, len(wm.Nodes))
		} else {
			fmt.Printf("ok   %s (%d nodes, %d animations)\n", path, len(m.Nodes), len(m.Animations))
		}
	}

	if failed > 0 {
		fmt.Fprintf(os.Stderr, "\n(%d of %d files failed)\n", failed, len(args))
		return 1
	}
	return 0
}

func cmdFmt(args []string) int {
	fs := flag.NewFlagSet("fmt", flag.ExitOnError)
	output := fs.String("o", "", "Output file (default stdout)")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: mdltool fmt [-o out] <file>")
		return 1
	}

	path := fs.Arg(0)
	m, wm, err := load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	var data []byte
	if wm != nil {
		data, err = mdl.MarshalWalkmesh(wm, opts)
	} else {
		data, err = mdl.Marshal(m, opts)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if err := writeOutput(*output, data); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if m != nil && cfg.Walkmesh.Export && m.Classification == mdl.ClassTile {
		out, err := exportWalkmesh(m, nil, walkmeshPath(path, m.Name, mdl.WalkmeshTile))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		logger.Info("wrote walkmesh", zap.String("path", out))
	}
	return 0
}

func writeOutput(path string, data []byte) error {
	if path == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func cmdWalkmesh(args []string) int {
	fs := flag.NewFlagSet("walkmesh", flag.ExitOnError)
	output := fs.String("o", "", "Output file (default <name>.<kind> next to the model)")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: mdltool walkmesh [-o out] <file.mdl> [walkmesh_source.mdl]")
		return 1
	}

	m, err := mdl.ParseFile(fs.Arg(0), opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	// Placeables and doors take their walkmesh from a second hierarchy
	var secondary []*mdl.Node
	if fs.NArg() > 1 {
		src, err := mdl.ParseFile(fs.Arg(1), opts)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		secondary = src.Nodes
	} else if m.Classification != mdl.ClassTile {
		fmt.Fprintf(os.Stderr, "Error: %s model %s needs a walkmesh source model\n", m.Classification, m.Name)
		return 1
	}

	out := *output
	if out == "" {
		out = walkmeshPath(fs.Arg(0), m.Name, mdl.WalkmeshKindFor(m.Classification))
	}
	out, err = exportWalkmesh(m, secondary, out)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	fmt.Printf("Wrote: %s\n", out)
	return 0
}

// walkmeshPath places <name>.<kind> in the configured directory, or next to
// the model.
func walkmeshPath(modelPath, name string, kind mdl.WalkmeshKind) string {
	dir := cfg.Walkmesh.Dir
	if dir == "" {
		dir = filepath.Dir(modelPath)
	}
	return filepath.Join(dir, name+"."+kind.String())
}

func exportWalkmesh(m *mdl.Model, secondary []*mdl.Node, out string) (string, error) {
	wm, err := mdl.ExtractWalkmesh(m, secondary, opts)
	if err != nil {
		return "", err
	}
	data, err := mdl.MarshalWalkmesh(wm, opts)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return "", err
	}
	return out, os.WriteFile(out, data, 0644)
}

func cmdAABB(args []string) int {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: mdltool aabb <file.mdl|file.wok>")
		return 1
	}

	m, wm, err := load(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	var nodes []*mdl.Node
	if m != nil {
		nodes = m.Nodes
	} else {
		nodes = wm.Nodes
	}

	found := 0
	for _, n := range nodes {
		if n.Type != mdl.NodeAABB {
			continue
		}
		found++
		faces, err := mdl.FacesFromMesh(n.Mesh)
		if err != nil {
			fmt.Printf("%-24s error: %v\n", n.Name, err)
			continue
		}
		tree, err := mdl.BuildAABBTree(faces)
		if err != nil {
			fmt.Printf("%-24s %d faces, tree not generated: %v\n", n.Name, len(faces), err)
			continue
		}
		status := "matches file"
		if !sameTree(tree, n.AABB) {
			status = fmt.Sprintf("differs from file (%d entries)", len(n.AABB))
		}
		root := tree[0].Box
		fmt.Printf("%-24s %d faces, %d entries, bounds %v..%v, %s\n",
			n.Name, len(faces), len(tree), root.Min.Array(), root.Max.Array(), status)
	}

	if found == 0 {
		fmt.Fprintln(os.Stderr, "No aabb nodes found")
		return 1
	}
	return 0
}

// sameTree compares trees at the precision they are written with.
func sameTree(a, b []mdl.AABBNode) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i].Face != b[i].Face {
			return false
		}
		if a[i].Box.Min.Sub(b[i].Box.Min).Length() > 1e-4 || a[i].Box.Max.Sub(b[i].Box.Max).Length() > 1e-4 {
			return false
		}
	}
	return true
}

func cmdAnims(args []string) int {
	fs := flag.NewFlagSet("anims", flag.ExitOnError)
	verbose := fs.Bool("v", false, "List every track")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: mdltool anims [-v] <file.mdl>")
		return 1
	}

	m, err := mdl.ParseFile(fs.Arg(0), opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if len(m.Animations) == 0 {
		fmt.Println("No animations")
		return 0
	}

	for _, a := range m.Animations {
		tracks, keys := 0, 0
		for _, n := range a.Nodes {
			for _, kv := range n.Tracks.Order {
				tracks++
				keys += kv.Value.Len()
			}
		}
		fmt.Printf("%-20s length %-8g transtime %-6g root %-16s %d tracks, %d keys\n",
			a.Name, a.Length, a.TransTime, a.Root, tracks, keys)

		for _, e := range a.Events {
			fmt.Printf("  event %-6d %s\n", e.Frame, e.Name)
		}
		if !*verbose {
			continue
		}
		for _, n := range a.Nodes {
			if n.Tracks.Len() == 0 {
				continue
			}
			var b bytes.Buffer
			for _, kv := range n.Tracks.Order {
				fmt.Fprintf(&b, " %s(%d)", kv.Key, kv.Value.Len())
			}
			fmt.Printf("  %-18s%s\n", n.Name, strings.TrimRight(b.String(), " "))
		}
	}
	return 0
}

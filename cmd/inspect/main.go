package main

import (
	"fmt"
	"os"

	"mdl-decompiler/internal/logx"
	"mdl-decompiler/internal/studio"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: inspect model.mdl ...")
		os.Exit(2)
	}

	log := logx.Sink{
		Warn: func(format string, args ...any) {
			fmt.Fprintf(os.Stderr, "warning: "+format+"\n", args...)
		},
	}

	for _, arg := range os.Args[1:] {
		m, err := studio.LoadFiles(arg, log)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Load error %s: %v\n", arg, err)
			continue
		}
		f := m.MDL
		fmt.Printf("\n=== %s (version=%d checksum=%08x) ===\n", arg, f.Version, uint32(f.Checksum))
		fmt.Printf("Name: %s  Mass: %.2f  Surface: %s\n", f.Name, f.Mass, f.SurfaceProp)

		fmt.Printf("--- Bones (%d) ---\n", len(f.Bones))
		for _, b := range f.Bones {
			fmt.Printf("  [%3d] %-24s parent=%-3d pos=(%.2f %.2f %.2f)\n",
				b.Index, b.Name, b.Parent, b.Pos.X(), b.Pos.Y(), b.Pos.Z())
		}

		fmt.Printf("--- Body parts (%d) ---\n", len(f.BodyParts))
		for _, bp := range f.BodyParts {
			fmt.Printf("  %s\n", bp.Name)
			for _, model := range bp.Models {
				fmt.Printf("    %-24s verts=%-5d meshes=%d\n",
					model.Name, model.NumVertices, len(model.Meshes))
			}
		}

		fmt.Printf("--- Materials (%d) ---\n", len(f.Materials))
		for i, mat := range f.Materials {
			fmt.Printf("  [%2d] %s\n", i, mat.Name)
		}

		if len(f.FlexDescs) > 0 {
			fmt.Printf("--- Flex channels (%d) ---\n", len(f.FlexDescs))
			for _, fd := range f.FlexDescs {
				if fd.DisplayName != fd.Name {
					fmt.Printf("  %s (raw %s)\n", fd.DisplayName, fd.Name)
				} else {
					fmt.Printf("  %s\n", fd.Name)
				}
			}
		}

		if m.VVD != nil {
			fmt.Printf("--- Vertex buffer: %d vertices, %d fixups, %d LODs ---\n",
				len(m.VVD.Vertices), len(m.VVD.Fixups), m.VVD.NumLODs)
		}

		if m.HasPhysics() {
			fmt.Printf("--- Physics: %d solids, %d constraints ---\n",
				len(m.Physics.Solids), len(m.Physics.Constraints))
			for _, s := range m.Physics.Solids {
				points := 0
				for _, h := range s.Hulls {
					points += len(h)
				}
				fmt.Printf("  [%2d] %-24s mass=%-7.2f hulls=%d points=%d\n",
					s.Index, s.Name, s.Mass, len(s.Hulls), points)
			}
			for _, c := range m.Physics.Constraints {
				fmt.Printf("  constraint %d->%d X=(%.0f,%.0f) Y=(%.0f,%.0f) Z=(%.0f,%.0f)\n",
					c.Parent, c.Child,
					c.Axes[0].Min, c.Axes[0].Max,
					c.Axes[1].Min, c.Axes[1].Max,
					c.Axes[2].Min, c.Axes[2].Max)
			}
		}
	}
}

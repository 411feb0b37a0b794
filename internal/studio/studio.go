// Package studio loads the four companion containers of one model and
// cross-validates them into a single bundle.
package studio

import (
	"fmt"
	"os"
	"strings"

	"mdl-decompiler/internal/logx"
	"mdl-decompiler/internal/mdl"
	"mdl-decompiler/internal/phy"
	"mdl-decompiler/internal/vtx"
	"mdl-decompiler/internal/vvd"
)

// FormatError marks a fatal container problem (bad magic, unsupported
// version) as opposed to an I/O failure.
type FormatError struct {
	Container string
	Err       error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("%s container: %v", e.Container, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// Model is the aggregate of one model's decoded containers. Physics is nil
// when the companion file is absent; reconstruction stages treat that as a
// no-op.
type Model struct {
	MDL     *mdl.File
	VVD     *vvd.File
	VTX     *vtx.File
	Physics *phy.File
}

// HasPhysics reports whether the optional physics container was present.
func (m *Model) HasPhysics() bool { return m.Physics != nil }

// Load decodes the four byte buffers. physics may be nil. Checksum
// mismatches between containers are warnings only.
func Load(primary, vertex, strip, physics []byte, log logx.Sink) (*Model, error) {
	mf, err := mdl.Parse(primary, log)
	if err != nil {
		return nil, &FormatError{Container: "primary", Err: err}
	}
	vf, err := vvd.Parse(vertex, log)
	if err != nil {
		return nil, &FormatError{Container: "vertex", Err: err}
	}
	sf, err := vtx.Parse(strip, mf.Version, log)
	if err != nil {
		return nil, &FormatError{Container: "strip", Err: err}
	}

	m := &Model{MDL: mf, VVD: vf, VTX: sf}

	if vf.Checksum != mf.Checksum {
		log.Warnf("studio: vertex container checksum %d != primary %d", vf.Checksum, mf.Checksum)
	}
	if sf.Checksum != mf.Checksum {
		log.Warnf("studio: strip container checksum %d != primary %d", sf.Checksum, mf.Checksum)
	}

	if len(physics) > 0 {
		pf, err := phy.Parse(physics, log)
		if err != nil {
			log.Warnf("studio: physics container unusable: %v", err)
		} else {
			if pf.Checksum != mf.Checksum {
				log.Warnf("studio: physics container checksum %d != primary %d", pf.Checksum, mf.Checksum)
			}
			m.Physics = pf
		}
	}
	return m, nil
}

// LoadFiles reads the companion files next to a .mdl path and decodes them.
// The physics file is optional; everything else must exist.
func LoadFiles(mdlPath string, log logx.Sink) (*Model, error) {
	primary, err := os.ReadFile(mdlPath)
	if err != nil {
		return nil, fmt.Errorf("studio: read %s: %w", mdlPath, err)
	}

	stem := strings.TrimSuffix(mdlPath, ".mdl")
	vertex, err := os.ReadFile(stem + ".vvd")
	if err != nil {
		return nil, fmt.Errorf("studio: read %s: %w", stem+".vvd", err)
	}

	var strip []byte
	for _, suffix := range []string{".dx90.vtx", ".dx80.vtx", ".sw.vtx", ".vtx"} {
		strip, err = os.ReadFile(stem + suffix)
		if err == nil {
			break
		}
	}
	if strip == nil {
		return nil, fmt.Errorf("studio: no strip container found for %s", mdlPath)
	}

	physics, err := os.ReadFile(stem + ".phy")
	if err != nil {
		physics = nil // optional companion
	}

	return Load(primary, vertex, strip, physics, log)
}

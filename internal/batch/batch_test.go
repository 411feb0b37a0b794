package batch

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"mdl-decompiler/internal/build"
	"mdl-decompiler/internal/logx"
)

func TestCanonicalPathUnifiesSpellings(t *testing.T) {
	a := canonicalPath("out/./materials/shared.txt")
	b := canonicalPath("out/materials/shared.txt")
	if a != b {
		t.Errorf("spellings diverge: %q vs %q", a, b)
	}
}

func TestPathLocksSerializeWriters(t *testing.T) {
	locks := &pathLocks{}
	var inCritical, maxCritical int
	var mu sync.Mutex
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.lock("shared/output.json")
			mu.Lock()
			inCritical++
			if inCritical > maxCritical {
				maxCritical = inCritical
			}
			mu.Unlock()
			time.Sleep(time.Millisecond)
			mu.Lock()
			inCritical--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()
	if maxCritical != 1 {
		t.Errorf("saw %d writers inside the critical section", maxCritical)
	}
}

func TestMarshalContextTagsUnions(t *testing.T) {
	ctx := &build.Context{
		Name:      "crate",
		BoneNames: []string{"static_prop"},
		Shapes: []build.Shape{
			build.BoxShape{BoneName: "static_prop"},
			build.SphereShape{BoneName: "static_prop", Radius: 1},
		},
		Joints: []build.Joint{
			build.RevoluteJoint{ParentBone: "a", ChildBone: "b", Min: -10, Max: 10},
			build.ConicalJoint{ParentBone: "a", ChildBone: "c", Swing: 30},
		},
	}
	data, err := marshalContext(ctx)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var d contextDump
	if err := json.Unmarshal(data, &d); err != nil {
		t.Fatalf("round trip: %v", err)
	}
	if len(d.Shapes) != 2 || d.Shapes[0].Type != "box" || d.Shapes[1].Type != "sphere" {
		t.Errorf("shapes = %+v", d.Shapes)
	}
	if len(d.Joints) != 2 || d.Joints[0].Type != "revolute" || d.Joints[1].Type != "conical" {
		t.Errorf("joints = %+v", d.Joints)
	}
}

func TestRunRecordsFailuresWithoutAborting(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{OutputDir: dir, Workers: 2, Log: logx.Sink{}}
	results := Run(cfg, []string{
		filepath.Join(dir, "missing_a.mdl"),
		filepath.Join(dir, "missing_b.mdl"),
	})
	if len(results) != 2 {
		t.Fatalf("got %d results", len(results))
	}
	for _, r := range results {
		if r.Success || r.Error == "" {
			t.Errorf("result = %+v, want recorded failure", r)
		}
	}
}

func TestWriteManifest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.json")
	err := WriteManifest(path, []Result{
		{Path: "models/crate.mdl", Name: "crate", Success: true, Meshes: 2},
		{Path: "models/bad.mdl", Error: "mdl: bad magic"},
	})
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	var entries []ManifestEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(entries) != 2 || entries[0].Dump != "crate.json" {
		t.Errorf("entries = %+v", entries)
	}
	if !strings.Contains(entries[1].Error, "bad magic") {
		t.Errorf("error not carried: %+v", entries[1])
	}
}

package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const minimalDoc = `ISO-10303-21;
HEADER;
FILE_SCHEMA(('IFC4'));
ENDSEC;
DATA;
#1=IFCPROJECT('0abc',$,'TestProj',$,$,$,$,$,$);
ENDSEC;
END-ISO-10303-21;
`

func TestWatcher_DeliversReparsedProjectOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.ifc")
	if err := os.WriteFile(path, []byte(minimalDoc), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	w, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	updated := minimalDoc[:len(minimalDoc)-len("ENDSEC;\nEND-ISO-10303-21;\n")] +
		"#2=IFCBUILDINGSTOREY('0st1',$,'Level 0',$,$,$,$,$,.ELEMENT.,0.);\nENDSEC;\nEND-ISO-10303-21;\n"
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		t.Fatalf("WriteFile (update): %v", err)
	}

	select {
	case ev := <-w.Events:
		if ev.Err != nil {
			t.Fatalf("unexpected reload error: %v", ev.Err)
		}
		if ev.Project == nil {
			t.Fatal("expected a non-nil project")
		}
		if len(ev.Project.Storeys) != 1 {
			t.Errorf("storeys = %d, want 1 after update", len(ev.Project.Storeys))
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload event")
	}
}

func TestWatcher_IgnoresUnrelatedFilesInDirectory(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "model.ifc")
	if err := os.WriteFile(path, []byte(minimalDoc), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	w, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(filepath.Join(dir, "unrelated.txt"), []byte("noise"), 0o644); err != nil {
		t.Fatalf("WriteFile (unrelated): %v", err)
	}

	select {
	case ev := <-w.Events:
		t.Fatalf("unexpected event for unrelated file: %+v", ev)
	case <-time.After(300 * time.Millisecond):
	}
}

package pyext

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestInclusionManifestAdd(t *testing.T) {
	m := NewInclusionManifest()

	if !m.Add("libdecord.so") {
		t.Error("expected first add to succeed")
	}
	if m.Add("./libdecord.so") {
		t.Error("expected duplicate entry to be ignored")
	}
	m.Add(`lib\extra.so`)

	if !reflect.DeepEqual(m.Entries(), []string{"libdecord.so", "lib/extra.so"}) {
		t.Errorf("unexpected entries %v", m.Entries())
	}
	if got := m.Render("decord"); got != "include decord/libdecord.so\ninclude decord/lib/extra.so\n" {
		t.Errorf("unexpected rendering %q", got)
	}

	var empty *InclusionManifest
	if empty.Len() != 0 || empty.Entries() != nil {
		t.Error("expected nil manifest to be empty")
	}
}

func TestMaterializeCreatesAndRemoves(t *testing.T) {
	file := filepath.Join(t.TempDir(), ManifestFileName)
	m := NewInclusionManifest()
	m.Add("libdecord.so")

	release, err := m.Materialize(file, "decord")
	if err != nil {
		t.Fatalf("Materialize returned error: %v", err)
	}

	data, err := os.ReadFile(file)
	if err != nil {
		t.Fatalf("expected manifest to exist: %v", err)
	}
	if string(data) != "include decord/libdecord.so\n" {
		t.Errorf("unexpected manifest %q", data)
	}

	if err := release(); err != nil {
		t.Fatalf("release returned error: %v", err)
	}
	if _, err := os.Stat(file); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("expected manifest to be removed, stat returned %v", err)
	}
}

func TestMaterializeRestoresExisting(t *testing.T) {
	original := "include README.md\n"
	file := writeFile(t, filepath.Join(t.TempDir(), ManifestFileName), original)

	m := NewInclusionManifest()
	m.Add("libdecord.so")

	release, err := m.Materialize(file, "decord")
	if err != nil {
		t.Fatalf("Materialize returned error: %v", err)
	}

	data, _ := os.ReadFile(file)
	if string(data) != original+"\ninclude decord/libdecord.so\n" {
		t.Errorf("expected entries appended to the existing manifest, got %q", data)
	}

	if err := release(); err != nil {
		t.Fatalf("release returned error: %v", err)
	}
	data, _ = os.ReadFile(file)
	if string(data) != original {
		t.Errorf("expected original manifest restored, got %q", data)
	}
}

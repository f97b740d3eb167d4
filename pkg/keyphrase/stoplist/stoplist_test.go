package stoplist

import (
	"os"
	"path/filepath"
	"testing"
)

func TestRussianBundledList(t *testing.T) {
	m := Russian()
	if m.Len() < 100 {
		t.Fatalf("bundled list too small: %d", m.Len())
	}
	for _, w := range []string{"и", "в", "не", "что"} {
		if !m.IsStop(w) {
			t.Errorf("%q should be a stopword", w)
		}
	}
	for _, w := range []string{"кот", "алгоритм", "данные"} {
		if m.IsStop(w) {
			t.Errorf("%q should not be a stopword", w)
		}
	}
}

func TestManagerAddRemove(t *testing.T) {
	m := NewManager([]string{" Кот "})
	if !m.IsStop("кот") {
		t.Fatal("terms should be trimmed and lowercased")
	}

	m.Add("пёс")
	if !m.IsStop("пёс") {
		t.Error("added term should be a stopword")
	}

	m.Remove("КОТ")
	if m.IsStop("кот") {
		t.Error("removed term should not be a stopword")
	}

	m.Add("   ")
	if m.Len() != 1 {
		t.Errorf("Len() = %d, want 1", m.Len())
	}
}

func TestManagerMergeAndAll(t *testing.T) {
	m := NewManager([]string{"в", "а"})
	m.Merge(NewManager([]string{"и", "а"}))
	m.Merge(nil)

	got := m.All()
	want := []string{"а", "в", "и"}
	if len(got) != len(want) {
		t.Fatalf("All() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("All()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stop.yaml")
	if err := os.WriteFile(path, []byte("terms: [данные, модель]\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !m.IsStop("данные") || !m.IsStop("модель") || m.Len() != 2 {
		t.Errorf("unexpected stoplist: %v", m.All())
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	bad := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(bad, []byte("terms: [unclosed\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bad); err == nil {
		t.Error("expected error for malformed YAML")
	}
}

package exec_ops

import (
	"flag"
	"os"
	"path/filepath"
	"testing"
)

func TestPairLabelFiles(t *testing.T) {
	dir := t.TempDir()
	labelDir := filepath.Join(dir, "labelTxt")
	if err := os.MkdirAll(labelDir, 0755); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"P0002.txt", "P0001.txt", "readme.md"} {
		if err := os.WriteFile(filepath.Join(labelDir, name), nil, 0644); err != nil {
			t.Fatal(err)
		}
	}
	files, err := PairLabelFiles(labelDir, filepath.Join(dir, "images"), ".png")
	if err != nil {
		t.Fatal(err)
	}
	if len(files) != 2 {
		t.Fatalf("got %d files; want 2", len(files))
	}
	if files[0].LabelFname != filepath.Join(labelDir, "P0001.txt") || files[0].ImageFname != filepath.Join(dir, "images", "P0001.png") {
		t.Errorf("unexpected pair %+v", files[0])
	}

	if _, err := PairLabelFiles(filepath.Join(dir, "missing"), dir, ".png"); err == nil {
		t.Errorf("expected error for missing label directory")
	}
}

func TestDotExt(t *testing.T) {
	check := func(ext string, expected string) {
		if res := DotExt(ext); res != expected {
			t.Errorf("DotExt(%q) = %q; want %q", ext, res, expected)
		}
	}
	check("png", ".png")
	check(".jpg", ".jpg")
	check("", "")
}

func TestStringsFlag(t *testing.T) {
	var names StringsFlag
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.Var(&names, "c", "")
	if err := fs.Parse([]string{"-c", "plane", "-c", "ship", "rest"}); err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 || names[1] != "ship" || fs.Arg(0) != "rest" {
		t.Errorf("got %v, args %v", names, fs.Args())
	}
}

package aod2coco

import (
	"github.com/skyhookml/aerial2coco/skyhook"

	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
)

const ucasLine = "1\t2\t11\t2\t11\t12\t1\t12\t0.5\t6\t7\t10\t10\n"

func writeClassDir(t *testing.T, root string, className string, n int) {
	t.Helper()
	dir := filepath.Join(root, className)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	for i := 1; i <= n; i++ {
		stem := filepath.Join(dir, fmt.Sprintf("P%04d", i))
		file, err := os.Create(stem+".png")
		if err != nil {
			t.Fatal(err)
		}
		if err := png.Encode(file, image.NewGray(image.Rect(0, 0, 16+i, 16))); err != nil {
			t.Fatal(err)
		}
		file.Close()
		if err := os.WriteFile(stem+".txt", []byte(ucasLine+ucasLine), 0644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestRun(t *testing.T) {
	root := t.TempDir()
	writeClassDir(t, root, "PLANE", 5)

	params := DefaultParams()
	params.Root = root
	params.ClassName = "plane"
	params.TrainOutput = filepath.Join(root, "out", "train.json")
	params.ValOutput = filepath.Join(root, "out", "val.json")
	if err := params.Validate(); err != nil {
		t.Fatal(err)
	}
	if err := Run(params); err != nil {
		t.Fatal(err)
	}

	train, err := skyhook.ReadCocoJSON(params.TrainOutput)
	if err != nil {
		t.Fatal(err)
	}
	val, err := skyhook.ReadCocoJSON(params.ValOutput)
	if err != nil {
		t.Fatal(err)
	}
	if len(train.Images) != 4 || len(val.Images) != 1 {
		t.Errorf("got %d train and %d val images; want 4 and 1", len(train.Images), len(val.Images))
	}
	if len(train.Annotations) != 8 || len(val.Annotations) != 2 {
		t.Errorf("got %d train and %d val annotations; want 8 and 2", len(train.Annotations), len(val.Annotations))
	}
	for _, coco := range []skyhook.CocoJSON{train, val} {
		if len(coco.Categories) != 1 || coco.Categories[0].Name != "plane" || coco.Categories[0].ID != 1 {
			t.Errorf("unexpected categories %+v", coco.Categories)
		}
		// ids restart at 1 in each output
		if coco.Images[0].ID != 1 || coco.Annotations[0].ID != 1 {
			t.Errorf("ids do not start at 1: %+v", coco.Annotations[0])
		}
		if coco.Annotations[0].Bbox != ([4]float64{1, 2, 10, 10}) {
			t.Errorf("bbox = %v", coco.Annotations[0].Bbox)
		}
	}
}

func TestRunBadLine(t *testing.T) {
	root := t.TempDir()
	writeClassDir(t, root, "CAR", 2)
	bad := filepath.Join(root, "CAR", "P0002.txt")
	if err := os.WriteFile(bad, []byte("1\t2\t3\n"), 0644); err != nil {
		t.Fatal(err)
	}

	params := DefaultParams()
	params.Root = root
	params.ValRatio = 0
	params.TrainOutput = filepath.Join(root, "train.json")
	params.ValOutput = filepath.Join(root, "val.json")
	if err := Run(params); err == nil {
		t.Errorf("expected error for malformed label line")
	}
}

func TestOpParams(t *testing.T) {
	node := skyhook.ExecNode{Name: "aod", Op: "aod2coco", Params: "root: /data\n"}
	if err := skyhook.RunNode(context.Background(), node); err == nil {
		t.Errorf("expected error when outputs are missing")
	}
	node.Params = "root: /data\ntrain_output_path: a.json\nval_output_path: b.json\nval_ratio: 1\n"
	if err := skyhook.RunNode(context.Background(), node); err == nil {
		t.Errorf("expected error for val_ratio 1")
	}
}

package ops

import (
	_ "github.com/skyhookml/aerial2coco/exec_ops/aod2coco"
	_ "github.com/skyhookml/aerial2coco/exec_ops/coco2geojson"
	_ "github.com/skyhookml/aerial2coco/exec_ops/crop_dota"
	_ "github.com/skyhookml/aerial2coco/exec_ops/dota2coco"
)

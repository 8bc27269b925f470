package skyhook

import (
	"context"
	"flag"
	"fmt"
	"sort"
)

type ExecOpConfig struct {
	ID string
	Name string
	Description string
}

// A prepared op, ready to run.
type ExecOp interface {
	Apply(ctx context.Context) error
}

// Adapts a function to ExecOp.
type SimpleExecOp struct {
	ApplyFunc func(ctx context.Context) error
}

func (op SimpleExecOp) Apply(ctx context.Context) error {
	return op.ApplyFunc(ctx)
}

// An instance of an op with its parameters, e.g. one entry of a job file.
type ExecNode struct {
	Name string
	Op string
	// Encoded parameters (JSON or YAML), see DecodeParams.
	Params string
}

type ExecOpImpl struct {
	Config ExecOpConfig

	// Registers the op's command-line flags on fs.
	// The returned function is called after parsing with the positional
	// arguments and returns the parameters to store in ExecNode.Params.
	Flags func(fs *flag.FlagSet) func(args []string) (interface{}, error)

	Prepare func(node ExecNode) (ExecOp, error)
}

var ExecOpImpls = make(map[string]ExecOpImpl)

func AddExecOpImpl(impl ExecOpImpl) {
	if _, ok := ExecOpImpls[impl.Config.ID]; ok {
		panic(fmt.Errorf("duplicate exec op %s", impl.Config.ID))
	}
	ExecOpImpls[impl.Config.ID] = impl
}

func GetExecOpImpl(opName string) *ExecOpImpl {
	impl, ok := ExecOpImpls[opName]
	if !ok {
		return nil
	}
	return &impl
}

func ListExecOpConfigs() []ExecOpConfig {
	var configs []ExecOpConfig
	for _, impl := range ExecOpImpls {
		configs = append(configs, impl.Config)
	}
	sort.Slice(configs, func(i, j int) bool {
		return configs[i].ID < configs[j].ID
	})
	return configs
}

// Prepares and applies the node.
func RunNode(ctx context.Context, node ExecNode) error {
	impl := GetExecOpImpl(node.Op)
	if impl == nil {
		return fmt.Errorf("unknown op %s", node.Op)
	}
	op, err := impl.Prepare(node)
	if err != nil {
		return fmt.Errorf("error preparing %s: %v", node.Name, err)
	}
	return op.Apply(ctx)
}

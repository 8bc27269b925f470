package main

import (
	"github.com/skyhookml/aerial2coco/skyhook"

	_ "github.com/skyhookml/aerial2coco/ops"

	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: aerial2coco <op> [flags] [args]")
	fmt.Fprintln(os.Stderr, "       aerial2coco run job.yaml")
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "ops:")
	for _, config := range skyhook.ListExecOpConfigs() {
		fmt.Fprintf(os.Stderr, "  %-14s %s\n", config.ID, config.Description)
	}
	fmt.Fprintln(os.Stderr, "")
	fmt.Fprintln(os.Stderr, "run 'aerial2coco <op> -h' for the flags of an op")
}

// Parses the op's flags into an ExecNode.
func nodeFromArgs(opName string, args []string) (skyhook.ExecNode, error) {
	impl := skyhook.GetExecOpImpl(opName)
	if impl == nil {
		return skyhook.ExecNode{}, fmt.Errorf("unknown op %s", opName)
	}
	fs := flag.NewFlagSet(opName, flag.ContinueOnError)
	finish := impl.Flags(fs)
	if err := fs.Parse(args); err != nil {
		return skyhook.ExecNode{}, err
	}
	params, err := finish(fs.Args())
	if err != nil {
		return skyhook.ExecNode{}, fmt.Errorf("%s: %v", opName, err)
	}
	return skyhook.ExecNode{
		Name: opName,
		Op: opName,
		Params: string(skyhook.JsonMarshal(params)),
	}, nil
}

func run(ctx context.Context, args []string) error {
	if len(args) < 1 {
		usage()
		return fmt.Errorf("no op given")
	}
	var nodes []skyhook.ExecNode
	if args[0] == "run" {
		if len(args) != 2 {
			return fmt.Errorf("usage: aerial2coco run job.yaml")
		}
		var err error
		nodes, err = skyhook.ReadJobFile(args[1])
		if err != nil {
			return err
		}
	} else if args[0] == "-h" || args[0] == "-help" || args[0] == "help" {
		usage()
		return nil
	} else {
		node, err := nodeFromArgs(args[0], args[1:])
		if err == flag.ErrHelp {
			return nil
		} else if err != nil {
			return err
		}
		nodes = []skyhook.ExecNode{node}
	}

	for _, node := range nodes {
		log.Printf("[%s] running op %s", node.Name, node.Op)
		if err := skyhook.RunNode(ctx, node); err != nil {
			return fmt.Errorf("%s: %v", node.Name, err)
		}
		log.Printf("[%s] done", node.Name)
	}
	return nil
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		stop()
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

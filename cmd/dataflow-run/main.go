package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/alt-coder/dataflow-engine/engine"

	_ "github.com/alt-coder/dataflow-engine/nodes"
)

func main() {
	var (
		path    = flag.String("workflow", "", "path to a workflow description YAML file")
		timeout = flag.Float64("timeout", -1, "override the workflow's stream_timeout, in seconds (negative keeps the file's value; 0 is a valid override, meaning time out as soon as the run is cancelled)")
	)
	flag.Parse()

	if *path == "" {
		fmt.Println("Usage: dataflow-run -workflow path/to/workflow.yaml")
		fmt.Println("\nSetup Instructions:")
		fmt.Println("1. Write a workflow description (name, nodes, connections).")
		fmt.Println("2. Run: dataflow-run -workflow myflow.yaml")
		os.Exit(1)
	}

	data, err := os.ReadFile(*path)
	if err != nil {
		log.Fatalf("failed to read workflow file: %v", err)
	}

	desc, err := engine.ParseDescription(data)
	if err != nil {
		log.Fatalf("failed to parse workflow description: %v", err)
	}
	if *timeout >= 0 {
		desc.Config.StreamTimeoutSeconds = timeout
	}

	e := engine.New(nil)
	if err := e.Load(desc); err != nil {
		log.Fatalf("failed to load workflow %q: %v", desc.Name, err)
	}

	fmt.Printf("Running workflow %q (%d nodes)\n\n", desc.Name, len(desc.Nodes))

	ctx := context.Background()
	x, err := e.Start(ctx, nil)
	if err != nil {
		log.Fatalf("workflow run failed: %v", err)
	}

	fmt.Println("Run complete. Outputs:")
	for _, n := range desc.Nodes {
		if v, ok := x.GetOutput(n.ID, "$return"); ok {
			fmt.Printf("  %s.$return = %v\n", n.ID, v)
		}
	}
}

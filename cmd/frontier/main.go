package main

import (
	"fmt"
	"io"
	"os"

	"github.com/SeekSense-AI/seeksense-core/internal/monitoring"
	"github.com/SeekSense-AI/seeksense-core/internal/version"
)

func main() {
	monitoring.SetLogger(monitoring.NewPrefixedLogf(os.Stderr, "frontier"))
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "frontier: %v\n", err)
		os.Exit(1)
	}
}

// run dispatches to the subcommand named by args[0].
func run(args []string, stdout io.Writer) error {
	if len(args) < 1 {
		printUsage(stdout)
		return fmt.Errorf("missing command")
	}

	command, rest := args[0], args[1:]
	switch command {
	case "rank":
		return runRank(rest, stdout)
	case "ablation":
		return runAblation(rest, stdout)
	case "score":
		return runScore(rest, stdout)
	case "version":
		fmt.Fprintf(stdout, "frontier version %s\n", version.String())
		return nil
	case "help", "-h", "--help":
		printUsage(stdout)
		return nil
	default:
		printUsage(stdout)
		return fmt.Errorf("unknown command: %s", command)
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `frontier - frontier detection, value fusion and waypoint ranking

Usage: frontier <command> [options]

Commands:
  rank       Rank frontier waypoints on the synthetic room-and-corridor scene
  ablation   Compare rankings under low-confidence, high-confidence and fused value patches
  score      Score an image against a prompt and fuse it into a value map
  version    Show frontier version
  help       Show this help message

Examples:
  frontier rank --config config/exploration.defaults.json --out results --db results/frontier.db
  frontier ablation --seed 0 --out results/ablation
  frontier score --image snapshot.png --prompt "a chair" --seed 0

Run 'frontier <command> --help' for command flags.`)
}

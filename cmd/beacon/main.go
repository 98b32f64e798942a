package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"runtime"
	"strings"
)

// Version information - set via ldflags during build
var (
	version   = "1.0.0-dev"
	commit    = "unknown"
	buildDate = "unknown"
)

var quietMode bool

type startupOptions struct {
	quiet bool
	args  []string
}

func main() {
	opts := parseStartupOptions(os.Args[1:])
	quietMode = opts.quiet

	if handled, exitCode := dispatchSubcommand(opts.args); handled {
		os.Exit(exitCode)
	}

	printHelp()
}

func dispatchSubcommand(args []string) (bool, int) {
	if len(args) == 0 {
		return false, 0
	}
	switch args[0] {
	case "--version", "-v", "version":
		printVersion()
		return true, 0
	case "--help", "-h", "help":
		printHelp()
		return true, 0
	case "inspect":
		return true, runCommand(runInspectCommand, args[1:])
	case "archive":
		return true, runCommand(runArchiveCommand, args[1:])
	case "export":
		return true, runCommand(runExportCommand, args[1:])
	case "serve":
		return true, runCommand(runServeCommand, args[1:])
	default:
		if strings.HasPrefix(args[0], "-") {
			fmt.Fprintf(os.Stderr, "Error: unknown flag: %s\n", args[0])
		} else {
			fmt.Fprintf(os.Stderr, "Error: unknown command: %s\n", args[0])
		}
		fmt.Fprintln(os.Stderr, "Run 'beacon --help' for usage.")
		return true, 1
	}
}

func runCommand(handler func([]string) error, args []string) int {
	if err := handler(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func parseStartupOptions(raw []string) *startupOptions {
	opts := &startupOptions{}
	if val, ok := parseBoolEnv("BEACON_QUIET"); ok {
		opts.quiet = val
	}

	filtered := make([]string, 0, len(raw))
	for _, arg := range raw {
		switch arg {
		case "--quiet", "-q":
			opts.quiet = true
		default:
			filtered = append(filtered, arg)
		}
	}

	opts.args = filtered
	return opts
}

func parseBoolEnv(key string) (bool, bool) {
	val := strings.TrimSpace(strings.ToLower(os.Getenv(key)))
	if val == "" {
		return false, false
	}
	switch val {
	case "1", "true", "yes", "on":
		return true, true
	case "0", "false", "no", "off":
		return false, true
	default:
		return false, false
	}
}

func printVersion() {
	fmt.Printf("Beacon %s\n", version)
	if commit != "unknown" {
		fmt.Printf("  Commit:     %s\n", commit)
	}
	if buildDate != "unknown" {
		fmt.Printf("  Built:      %s\n", buildDate)
	}
	fmt.Printf("  Go version: %s\n", runtime.Version())
}

func printHelp() {
	fmt.Println("Beacon - page analysis flow toolkit")
	fmt.Println()
	fmt.Println("USAGE:")
	fmt.Println("  beacon [FLAGS] <COMMAND>")
	fmt.Println()
	fmt.Println("COMMANDS:")
	fmt.Println("  inspect <artifacts.json>...           Summarize exported flow artifacts files")
	fmt.Println("  archive save [-db path] <file>        Store an exported artifacts snapshot")
	fmt.Println("  archive list [-db path] [-limit n]    List archived flows (newest first)")
	fmt.Println("  archive show [-db path] [-json] <id>  Show one archived flow")
	fmt.Println("  archive delete [-db path] <id>        Delete an archived flow")
	fmt.Println("  export [-o flows.xlsx] <result.json>...")
	fmt.Println("                                        Write a spreadsheet summary of flow results")
	fmt.Println("  serve [-addr host:port] [-db path]    Run the local archive service")
	fmt.Println("  version                               Show version information")
	fmt.Println()
	fmt.Println("FLAGS:")
	fmt.Println("  -q, --quiet                           Suppress non-essential output")
	fmt.Println("  -v, --version                         Show version information")
	fmt.Println("  -h, --help                            Show this help")
	fmt.Println()
	fmt.Println("ENVIRONMENT:")
	fmt.Println("  BEACON_DB_PATH                        Override archive SQLite DB path")
	fmt.Println("  BEACON_DATA_DIR                       Directory containing beacon data files")
	fmt.Println("  BEACON_QUIET                          Suppress non-essential output")
	fmt.Println()
	fmt.Println("DOCUMENTATION:")
	fmt.Println("  https://github.com/odvcencio/beacon")
}

// cmd/tools/registry-check/main.go
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"loan-journey/internal/common/config"
	"loan-journey/pkg/registry"
)

func main() {
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)
	validatePath := validateCmd.String("path", "", "registry file (default: the embedded registry)")

	listCmd := flag.NewFlagSet("list", flag.ExitOnError)
	listPath := listCmd.String("path", "", "registry file (default: the embedded registry)")

	configCmd := flag.NewFlagSet("config", flag.ExitOnError)
	configPath := configCmd.String("config", "configs/config.yaml", "worker manager config file")

	if len(os.Args) < 2 {
		help(os.Stdout)
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "validate":
		validateCmd.Parse(os.Args[2:])
		err = runValidate(os.Stdout, *validatePath)
	case "list":
		listCmd.Parse(os.Args[2:])
		err = runList(os.Stdout, *listPath)
	case "config":
		configCmd.Parse(os.Args[2:])
		err = runConfig(os.Stdout, *configPath)
	default:
		help(os.Stdout)
		return
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func load(path string) (*registry.ActivityRegistry, error) {
	if path == "" {
		return registry.Default()
	}
	return registry.LoadRegistry(path)
}

func runValidate(out io.Writer, path string) error {
	reg, err := load(path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	if len(reg.Activities) == 0 {
		return fmt.Errorf("registry contains no activities")
	}
	if err := reg.Validate(); err != nil {
		return err
	}
	fmt.Fprintf(out, "Registry validation passed. Found %d activities.\n", len(reg.Activities))
	return nil
}

func runList(out io.Writer, path string) error {
	reg, err := load(path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TASK TYPE\tCATEGORY\tSTATUS\tTIMEOUT\tRETRIES")
	for _, a := range reg.Activities {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\n", a.TaskType, a.Category, a.ImplementationStatus, a.Timeout, a.Retries)
	}
	return tw.Flush()
}

// runConfig reports task types that are registered but not configured, and
// configured workers the registry does not know.
func runConfig(out io.Writer, path string) error {
	reg, err := registry.Default()
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	cfg, err := config.LoadFromFile(path)
	if err != nil {
		return err
	}

	missing, unknown := compare(reg, cfg.Workers)
	for _, t := range missing {
		fmt.Fprintf(out, "not configured (defaults apply): %s\n", t)
	}
	for _, t := range unknown {
		fmt.Fprintf(out, "unknown worker in config: %s\n", t)
	}
	if len(unknown) > 0 {
		return fmt.Errorf("%d configured workers have no registry entry", len(unknown))
	}
	fmt.Fprintln(out, "Config matches registry.")
	return nil
}

func compare(reg *registry.ActivityRegistry, workers map[string]config.WorkerConfig) (missing, unknown []string) {
	for _, a := range reg.Activities {
		if _, ok := workers[a.TaskType]; !ok {
			missing = append(missing, a.TaskType)
		}
	}
	for name := range workers {
		if _, ok := reg.Find(name); !ok {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(missing)
	sort.Strings(unknown)
	return missing, unknown
}

const usage = `
Usage: registry-check <command> [flags]

Commands:
  validate  Check ids, task types and schemas in the registry
  list      Print every registered activity
  config    Compare the worker config against the registry
  help      Show this help message

Examples:
  registry-check validate
  registry-check validate -path pkg/registry/activities.json
  registry-check config -config configs/config.yaml

Use 'registry-check <command> -h' for more information about a command.
`

func help(out io.Writer) {
	fmt.Fprint(out, usage)
}

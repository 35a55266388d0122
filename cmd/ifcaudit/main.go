package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/coolbeans/ifcaudit/internal/config"
	"github.com/coolbeans/ifcaudit/internal/export"
	"github.com/coolbeans/ifcaudit/internal/ifc"
	"github.com/coolbeans/ifcaudit/internal/step"
	"github.com/coolbeans/ifcaudit/internal/tui"
	"github.com/coolbeans/ifcaudit/internal/watch"
)

var version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:     "ifcaudit <FILE>",
		Short:   "Inspect an IFC model's element inventory",
		Version: version,
		Args:    cobra.ExactArgs(1),
		RunE:    run,
		// main prints the one diagnostic line itself.
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	rootCmd.Flags().String("csv", "", "Write a CSV inventory to this path (append .gz to compress)")
	rootCmd.Flags().String("json", "", "Write a structured JSON document to this path (append .gz to compress)")
	rootCmd.Flags().Bool("gzip", false, "Force gzip compression on --csv/--json outputs regardless of extension")
	rootCmd.Flags().Bool("watch", false, "Re-parse and refresh the dashboard when the source file changes")
	rootCmd.Flags().String("config", "", "Optional YAML config file (default export paths, theme, priority categories)")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	path := args[0]
	csvPath, _ := cmd.Flags().GetString("csv")
	jsonPath, _ := cmd.Flags().GetString("json")
	forceGzip, _ := cmd.Flags().GetBool("gzip")
	watchEnabled, _ := cmd.Flags().GetBool("watch")
	configPath, _ := cmd.Flags().GetString("config")

	if configPath != "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		if csvPath == "" {
			csvPath = cfg.DefaultCSVPath
		}
		if jsonPath == "" {
			jsonPath = cfg.DefaultJSONPath
		}
	}

	table, err := step.ParseFile(path)
	if err != nil {
		return err
	}
	project := ifc.Extract(table, path)

	if csvPath != "" {
		if err := exportTo(csvPath, forceGzip, project, export.WriteCSV); err != nil {
			return err
		}
	}
	if jsonPath != "" {
		if err := exportTo(jsonPath, forceGzip, project, export.WriteJSON); err != nil {
			return err
		}
	}
	if csvPath != "" || jsonPath != "" {
		return nil
	}

	return runDashboard(project, path, watchEnabled)
}

func exportTo(path string, forceGzip bool, p *ifc.Project, write func(w io.Writer, p *ifc.Project, path string) error) error {
	w, err := export.OpenWriter(path, forceGzip)
	if err != nil {
		return err
	}
	if err := write(w, p, path); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func runDashboard(project *ifc.Project, path string, watchEnabled bool) error {
	controller := tui.New(project)
	renderer := tui.PlainRenderer{Out: os.Stdout}

	if !watchEnabled {
		return tui.Run(controller, renderer)
	}

	w, err := watch.New(path)
	if err != nil {
		return err
	}
	defer w.Close()

	reload := make(chan *ifc.Project)
	go func() {
		for ev := range w.Events {
			if ev.Err != nil {
				fmt.Fprintln(os.Stderr, "watch: reload failed:", ev.Err)
				continue
			}
			reload <- ev.Project
		}
	}()

	return tui.RunWatched(controller, renderer, reload)
}

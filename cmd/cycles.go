package cmd

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/packsim/packsim/app/plugins"
	"github.com/packsim/packsim/core/telemetry"
)

var cyclesCmd = &cobra.Command{
	Use:   "cycles",
	Short: "List the registered drive cycles, missions and telemetry sinks",
	RunE:  listCycles,
}

func init() {
	rootCmd.AddCommand(cyclesCmd)
}

func listCycles(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	var cycleNames []string
	for name := range plugins.Cycles {
		cycleNames = append(cycleNames, name)
	}
	sort.Strings(cycleNames)
	fmt.Fprintln(out, "cycles:")
	for _, name := range cycleNames {
		fmt.Fprintf(out, "  %s\n", name)
	}

	var missionNames []string
	for name := range plugins.Missions {
		missionNames = append(missionNames, name)
	}
	sort.Strings(missionNames)
	fmt.Fprintln(out, "missions:")
	for _, name := range missionNames {
		fmt.Fprintf(out, "  %s\n", name)
	}

	sinks := telemetry.SinkTypes()
	sort.Strings(sinks)
	fmt.Fprintln(out, "telemetry sinks:")
	for _, name := range sinks {
		fmt.Fprintf(out, "  %s\n", name)
	}
	return nil
}

package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/arloliu/gstream/channel"
)

var portDetails bool

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List serial ports",
	Long: `List the serial ports present on this host.

When no port is found, SIMULATED is listed so a program can still be
streamed to the built-in simulator.`,
	Args: cobra.NoArgs,
	RunE: runPorts,
}

func init() {
	portsCmd.Flags().BoolVarP(&portDetails, "details", "d", false, "show USB vendor, product and serial number")
}

func runPorts(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()

	if !portDetails {
		ports, err := channel.ListPorts()
		if err != nil {
			fmt.Fprintln(cmd.ErrOrStderr(), errStyle.Render(err.Error()))
		}
		for _, p := range ports {
			fmt.Fprintln(out, p)
		}

		return nil
	}

	details, err := channel.ListPortDetails()
	if err != nil {
		return err
	}
	if len(details) == 0 {
		fmt.Fprintln(out, channel.SimulatedPort)
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PORT\tUSB\tVID:PID\tSERIAL\tPRODUCT")
	for _, d := range details {
		ids := "-"
		if d.IsUSB {
			ids = d.VID + ":" + d.PID
		}
		fmt.Fprintf(tw, "%s\t%t\t%s\t%s\t%s\n", d.Name, d.IsUSB, ids, d.SerialNumber, d.Product)
	}

	return tw.Flush()
}

package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/visiontools/gvnet/pkg/interfaces"
)

var withFakeLoopback bool

var interfacesCmd = &cobra.Command{
	Run:   runInterfaces,
	Use:   "interfaces",
	Short: "List active local network interfaces",
}

func init() {
	interfacesCmd.Flags().BoolVar(&withFakeLoopback, "fake-loopback", false,
		"append the synthetic loopback descriptor used for simulated devices")
	rootCmd.AddCommand(interfacesCmd)
}

func runInterfaces(cmd *cobra.Command, args []string) {
	ifaces := interfaces.Enumerate()
	if withFakeLoopback {
		ifaces = append(ifaces, interfaces.FakeLoopback())
	}
	if len(ifaces) == 0 {
		ll.Warn("no active network interfaces found")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tADDRESS\tNETMASK\tBROADCAST\tLOOPBACK")
	for _, iface := range ifaces {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%v\n",
			iface.Name, iface.Addr, iface.Netmask, iface.Broadcast, iface.IsLoopback())
	}
	w.Flush()
}

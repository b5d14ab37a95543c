package main

import (
	"net/netip"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/visiontools/gvnet/pkg/sockets"
)

var bindAddress, portRangeFlag string
var bindPort uint16
var bindCount, recvBuffer int
var allowReuse bool

var bindCmd = &cobra.Command{
	Run:   runBind,
	Use:   "bind",
	Short: "Exercise port-range-constrained UDP socket binding",
}

func init() {
	viper.BindEnv("port-range")

	bindCmd.Flags().StringVar(&bindAddress, "address", "127.0.0.1", "local address to bind")
	bindCmd.Flags().Uint16Var(&bindPort, "port", 0, "explicit port; 0 selects a port automatically")
	bindCmd.Flags().IntVar(&bindCount, "count", 1, "number of sockets to bind")
	bindCmd.Flags().StringVar(&portRangeFlag, "port-range", viper.GetString("port-range"),
		"restrict automatic ports to an inclusive min-max range; 0-0 disables")
	bindCmd.Flags().BoolVar(&allowReuse, "reuse", false, "set SO_REUSEADDR before binding")
	bindCmd.Flags().IntVar(&recvBuffer, "recv-buffer", 0, "receive buffer size to request, in bytes")

	rootCmd.AddCommand(bindCmd)
}

func runBind(cmd *cobra.Command, args []string) {
	addr, err := netip.ParseAddr(bindAddress)
	if err != nil {
		ll.WithError(err).Fatal("invalid bind address")
	}
	if portRangeFlag != "" {
		if err := sockets.SetPortRangeFromString(portRangeFlag); err != nil {
			ll.WithError(err).Fatal("invalid port range")
		}
	}

	for i := 0; i < bindCount; i++ {
		fd, err := sockets.NewUDPSocket(addr.Is6())
		if err != nil {
			ll.WithError(err).Fatal("creating socket")
		}
		defer sockets.Close(fd)

		bound, err := sockets.BindWithRange(fd, addr, bindPort, allowReuse)
		if err != nil {
			ll.WithError(err).Fatal("bind failed")
		}

		fields := log.Fields{"addr": bound.Addr.String()}
		if recvBuffer > 0 {
			fields["recv_buffer_ok"] = sockets.SetRecvBufferSize(fd, recvBuffer)
		}
		ll.WithFields(fields).Info("bound socket")
	}
}

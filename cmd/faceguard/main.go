// Command faceguard talks to a running faceguardd.
package main

import (
	"fmt"
	"net"
	"os"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/abihf/faceguard/protocol"
)

var socket string

var rootCmd = &cobra.Command{
	Use:          "faceguard",
	Short:        "Watch and steer the face framing daemon",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&socket, "socket", "s", "", "daemon socket (default $FACEGUARD_SOCKET or "+protocol.DefaultSocket+")")
}

func dial() (net.Conn, error) {
	addr := socket
	if addr == "" {
		addr = protocol.SocketAddress()
	}
	conn, err := net.Dial("unix", addr)
	if err != nil {
		return nil, errors.Wrap(err, "Can not connect to faceguardd")
	}
	return conn, nil
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

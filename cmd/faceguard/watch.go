package main

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/abihf/faceguard/face"
	"github.com/abihf/faceguard/protocol"
)

var watchChanges bool

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print the face state of every processed frame",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		conn, err := dial()
		if err != nil {
			return err
		}
		defer conn.Close()

		if err := protocol.WriteReq(conn, protocol.ActionWatch, nil); err != nil {
			return err
		}
		return printEvents(cmd.OutOrStdout(), protocol.NewReader(conn), watchChanges)
	},
}

func init() {
	watchCmd.Flags().BoolVar(&watchChanges, "changes", false, "only print when the state changes")
	rootCmd.AddCommand(watchCmd)
}

func printEvents(w io.Writer, r *protocol.Reader, changesOnly bool) error {
	last := face.State(-1)
	for {
		ev, err := r.ReadEvent()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if ev.Seq == 0 {
			continue
		}
		if changesOnly && ev.State == last {
			continue
		}
		last = ev.State

		desc := ev.Description
		if desc == "" {
			desc = "OK"
		}
		fmt.Fprintf(w, "%s #%d %-18s %s\n", ev.Time.Format("15:04:05.000"), ev.Seq, ev.State, desc)
	}
}

package main

import (
	"fmt"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/abihf/faceguard/protocol"
)

var checkTimeout time.Duration

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Wait until the face is correctly framed",
	Long:  "Wait until the daemon reports a correctly framed face. Exits non-zero with the last problem seen when the timeout passes.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		conn, err := dial()
		if err != nil {
			return err
		}
		defer conn.Close()

		params := map[string]string{protocol.ParamTimeout: checkTimeout.String()}
		if err := protocol.WriteReq(conn, protocol.ActionCheck, params); err != nil {
			return err
		}
		res, err := protocol.NewReader(conn).ReadRes()
		if err != nil {
			return err
		}
		if res.Status != protocol.StatusSuccess {
			return errors.New(res.Error)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "OK")
		return nil
	},
}

func init() {
	checkCmd.Flags().DurationVarP(&checkTimeout, "timeout", "t", 10*time.Second, "how long to wait")
	rootCmd.AddCommand(checkCmd)
}

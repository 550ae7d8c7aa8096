package main

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/abihf/faceguard/face"
	"github.com/abihf/faceguard/protocol"
)

var (
	regionClear      bool
	regionViewWidth  float64
	regionViewHeight float64
)

var regionCmd = &cobra.Command{
	Use:   "region [x y width height]",
	Short: "Set or clear the legal region, in view coordinates",
	Args: func(cmd *cobra.Command, args []string) error {
		if regionClear {
			return cobra.NoArgs(cmd, args)
		}
		return cobra.ExactArgs(4)(cmd, args)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		var rect *face.Rect
		if !regionClear {
			r, err := parseRect(args)
			if err != nil {
				return err
			}
			rect = &r
		}

		conn, err := dial()
		if err != nil {
			return err
		}
		defer conn.Close()

		params := protocol.RegionParams(rect, regionViewWidth, regionViewHeight)
		if err := protocol.WriteReq(conn, protocol.ActionRegion, params); err != nil {
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
	regionCmd.Flags().BoolVar(&regionClear, "clear", false, "remove the legal region")
	regionCmd.Flags().Float64Var(&regionViewWidth, "view-width", 0, "width of the view the region is expressed in")
	regionCmd.Flags().Float64Var(&regionViewHeight, "view-height", 0, "height of the view the region is expressed in")
	rootCmd.AddCommand(regionCmd)
}

// parseRect reads x, y, width and height through the same validation the
// daemon applies.
func parseRect(args []string) (face.Rect, error) {
	params := map[string]string{
		protocol.ParamX:      args[0],
		protocol.ParamY:      args[1],
		protocol.ParamWidth:  args[2],
		protocol.ParamHeight: args[3],
	}
	rect, _, err := protocol.ToRegion(&protocol.Req{Action: protocol.ActionRegion, Params: params})
	if err != nil {
		return face.Rect{}, err
	}
	return *rect, nil
}

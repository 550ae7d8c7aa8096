package main

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/abihf/faceguard/config"
	"github.com/abihf/faceguard/logging"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:           "faceguardd",
	Short:         "Report face framing of a camera stream over a unix socket",
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := config.Load(configFile)
		if err != nil {
			return err
		}
		log, err := logging.New(logging.Option{Level: conf.LogLevel, File: conf.LogFile})
		if err != nil {
			return err
		}
		return serve(cmd.Context(), conf, log)
	},
}

func init() {
	rootCmd.Flags().StringVarP(&configFile, "config", "c", config.DefaultFile, "config file")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logrus.WithError(err).Error("faceguardd failed")
		os.Exit(1)
	}
}

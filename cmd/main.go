package main

import (
	"fmt"
	"os"

	"github.com/kumarabd/gokit/logger"
	"github.com/kumarabd/log-archiver/internal/config"
	"github.com/spf13/cobra"
)

// main is the entry point of the application
func main() {
	// Initialize a new logger with the application name and syslog format
	log, err := logger.New(config.ApplicationName, logger.Options{
		Format: logger.SyslogLogFormat,
	})
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	root := &cobra.Command{
		Use:           config.ApplicationName,
		Short:         "Exports a day of analytics logs to object storage",
		Version:       config.ApplicationVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCommand(log), newExportCommand(log))

	if err := root.Execute(); err != nil {
		log.Error().Err(err).Msg("")
		os.Exit(1)
	}
}

package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Fetch one reading from the peer",
	Long: `Bring the radio up, join the Wi-Fi network, issue one HTTP GET to the
peer and print the status code and the decoded JSON payload.`,
	RunE: runFetch,
}

func init() {
	rootCmd.AddCommand(fetchCmd)
}

func runFetch(cmd *cobra.Command, args []string) error {
	config, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := config.validate(true); err != nil {
		return err
	}

	logger, closeLog, err := openLogger(config, os.Stderr)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := openSession(ctx, config, logger)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.connect(ctx); err != nil {
		return err
	}
	res, err := s.Fetch(ctx)
	if err != nil {
		return fmt.Errorf("fetch from %s:%d: %w", config.PeerHost, config.PeerPort, err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), formatResult(res))
	return nil
}

package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var joinCmd = &cobra.Command{
	Use:   "join",
	Short: "Join the Wi-Fi network and report the association",
	Long: `Bring the radio up, join the Wi-Fi network and print the network the
radio reports being associated with. Useful to check credentials and
signal before fetching.`,
	RunE: runJoin,
}

func init() {
	rootCmd.AddCommand(joinCmd)
}

func runJoin(cmd *cobra.Command, args []string) error {
	config, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := config.validate(false); err != nil {
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
	ssid, err := s.dev.QueryNetwork(ctx)
	if err != nil {
		return err
	}
	if ssid == "" {
		return fmt.Errorf("radio reports no association after joining %q", config.WifiSSID)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Joined %s\n", ssid)
	return nil
}

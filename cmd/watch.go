package cmd

import (
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Fetch readings periodically in a terminal UI",
	Long: `Bring the radio up, join the Wi-Fi network and fetch a reading from the
peer every --interval. Log output goes to --log-file when set.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)
	watchCmd.Flags().Duration("interval", 0, "Pause between fetches (default 5s)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	config, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := config.validate(true); err != nil {
		return err
	}
	if config.Interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", config.Interval)
	}

	// The terminal belongs to the UI
	logger, closeLog, err := openLogger(config, io.Discard)
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

	fmt.Fprintln(cmd.OutOrStdout(), "Joining", config.WifiSSID, "...")
	if err := s.connect(ctx); err != nil {
		return err
	}

	peer := net.JoinHostPort(config.PeerHost, strconv.Itoa(config.PeerPort)) + config.PeerPath
	m := newWatchModel(ctx, s, s.info, peer, config.Interval)

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return fmt.Errorf("terminal UI: %w", err)
	}
	return nil
}

package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"i4.energy/across/espfetch/at"
	"i4.energy/across/espfetch/diag"
)

var captureCmd = &cobra.Command{
	Use:   "capture <file>",
	Short: "Print the exchanges recorded in a capture file",
	Long: `Print the command exchanges recorded with --capture.

With --lines every response line is printed on its own and tagged with its
classification (final, urc, prompt or data).`,
	Args: cobra.ExactArgs(1),
	RunE: runCapture,
}

func init() {
	rootCmd.AddCommand(captureCmd)
	captureCmd.Flags().Bool("lines", false, "Split responses into classified lines")
	captureCmd.Flags().Bool("failed", false, "Only print exchanges that failed")
}

var (
	commandStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("12")).Bold(true)
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	urcStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

func runCapture(cmd *cobra.Command, args []string) error {
	lines, _ := cmd.Flags().GetBool("lines")
	failedOnly, _ := cmd.Flags().GetBool("failed")

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open capture: %w", err)
	}
	defer f.Close()

	exchanges, err := diag.ReadCapture(f)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	var shown, failed int
	for _, e := range exchanges {
		if !e.OK() {
			failed++
		} else if failedOnly {
			continue
		}
		shown++
		printExchange(out, e, lines)
	}
	fmt.Fprintln(out, dimStyle.Render(fmt.Sprintf("%d exchanges, %d failed, %d shown", len(exchanges), failed, shown)))
	return nil
}

func printExchange(w io.Writer, e diag.Exchange, lines bool) {
	status := okStyle.Render(e.Marker)
	if !e.OK() {
		status = failStyle.Render(e.Err)
	}
	fmt.Fprintf(w, "%s %s %s %s\n",
		dimStyle.Render(e.Time.Format("15:04:05.000")),
		commandStyle.Render("AT"+e.Command),
		status,
		dimStyle.Render(e.Duration.Round(time.Millisecond).String()),
	)

	if !lines {
		if e.Response != "" {
			fmt.Fprintln(w, e.Response)
		}
		return
	}
	for _, line := range at.Lines(e.Response) {
		kind := at.Classify(line)
		tag := fmt.Sprintf("%-6s", kind)
		switch kind {
		case at.TypeFinal:
			tag = okStyle.Render(tag)
		case at.TypeURC:
			tag = urcStyle.Render(tag)
		default:
			tag = dimStyle.Render(tag)
		}
		fmt.Fprintf(w, "  %s %s\n", tag, line)
	}
}

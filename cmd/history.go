package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/vedsharma/momentscli/internal/format"
	"github.com/vedsharma/momentscli/internal/storage"
)

func init() {
	historyCmd := &cobra.Command{
		Use:   "history",
		Short: "View request history",
		Long: `View requests sent with 'momentscli run'.

History is off by default. Enable it with history.enabled in the config file.
API keys and credential headers are redacted before they are stored.`,
		Run: runHistoryList,
	}

	historyCmd.Flags().IntP("limit", "n", 10, "Number of requests to show")

	showCmd := &cobra.Command{
		Use:   "show <id or index>",
		Short: "Show full details of a request",
		Args:  cobra.ExactArgs(1),
		Run:   runHistoryShow,
	}

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Clear all history",
		Run:   runHistoryClear,
	}

	historyCmd.AddCommand(showCmd, clearCmd)
	rootCmd.AddCommand(historyCmd)
}

func mustOpenHistory(action string) *storage.SQLiteStorage {
	store, err := storage.NewStorage(cfg.History.Limit)
	if err != nil {
		format.PrintError(fmt.Sprintf("Failed to %s history: %v", action, err))
		os.Exit(1)
	}
	return store
}

func runHistoryList(cmd *cobra.Command, args []string) {
	store := mustOpenHistory("load")
	defer store.Close()

	history, err := store.LoadHistory()
	if err != nil {
		format.PrintError(fmt.Sprintf("Failed to load history: %v", err))
		os.Exit(1)
	}

	if !cfg.History.Enabled {
		format.PrintWarning("History recording is disabled (history.enabled: false)")
	}
	limit, _ := cmd.Flags().GetInt("limit")
	format.PrintHistoryList(history, limit)
}

func runHistoryShow(cmd *cobra.Command, args []string) {
	store := mustOpenHistory("load")
	defer store.Close()

	identifier := args[0]

	// Try to parse as index first (1-based)
	if index, err := strconv.Atoi(identifier); err == nil {
		history, err := store.LoadHistory()
		if err != nil {
			format.PrintError(fmt.Sprintf("Failed to load history: %v", err))
			os.Exit(1)
		}
		if index > 0 && index <= len(history) {
			format.PrintRequestDetail(&history[index-1])
			return
		}
	}

	req, err := store.GetHistoryRequest(identifier)
	if err != nil {
		format.PrintError(fmt.Sprintf("Failed to load history: %v", err))
		os.Exit(1)
	}
	if req == nil {
		format.PrintError(fmt.Sprintf("Request not found: %s", identifier))
		os.Exit(1)
	}
	format.PrintRequestDetail(req)
}

func runHistoryClear(cmd *cobra.Command, args []string) {
	store := mustOpenHistory("clear")
	defer store.Close()

	if err := store.ClearHistory(); err != nil {
		format.PrintError(fmt.Sprintf("Failed to clear history: %v", err))
		os.Exit(1)
	}

	format.PrintSuccess("History cleared")
}

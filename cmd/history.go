package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"picup/internal/daemon"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var (
	historyN      int
	historyFailed bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "View upload history",
	RunE: func(cmd *cobra.Command, args []string) error {
		url := fmt.Sprintf("%s?n=%d&failed=%t", daemonURL("/history"), historyN, historyFailed)
		resp, err := http.Get(url)
		if err != nil {
			return fmt.Errorf("daemon not running: %w", err)
		}

		defer func(Body io.ReadCloser) {
			_ = Body.Close()
		}(resp.Body)

		if resp.StatusCode != http.StatusOK {
			var result map[string]string
			_ = json.NewDecoder(resp.Body).Decode(&result)
			return fmt.Errorf("history request failed: %s", result["error"])
		}

		var entries []daemon.HistoryEntry
		if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
			return err
		}

		if len(entries) == 0 {
			fmt.Println("no history yet")
			return nil
		}

		rows := make([][]string, 0, len(entries))
		for _, h := range entries {
			status := "✓"
			detail := strconv.Itoa(h.StatusCode)
			if h.Status == "FAILED" {
				status = "✗"
				detail = h.ErrMsg
			}

			rows = append(rows, []string{
				status,
				h.UploadedAt.Format("2006-01-02 15:04:05"),
				h.Path,
				humanize.Bytes(uint64(h.Size)),
				detail,
			})
		}

		fmt.Println(renderTable([]string{"", "TIME", "PATH", "SIZE", "RESULT"}, rows, 3))
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyN, "n", 20, "number of history entries to show")
	historyCmd.Flags().BoolVar(&historyFailed, "failed", false, "only show failed uploads")
	rootCmd.AddCommand(historyCmd)
}

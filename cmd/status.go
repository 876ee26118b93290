package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"picup/internal/model"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "View agent status",
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := http.Get(daemonURL("/status"))
		if err != nil {
			return fmt.Errorf("daemon not running: %w", err)
		}

		defer func(Body io.ReadCloser) {
			_ = Body.Close()
		}(resp.Body)

		var snap model.Snapshot
		if err := json.NewDecoder(resp.Body).Decode(&snap); err != nil {
			return fmt.Errorf("failed to decode status response: %w", err)
		}

		fmt.Println(renderTable(
			[]string{"STATE", "WATCHING", "UPTIME", "UPLOADED", "FAILED", "IN FLIGHT", "QUEUED", "LIFETIME", "LAST UPLOAD", "KEEPALIVE"},
			[][]string{{
				string(snap.State),
				orDash(snap.WatchPath),
				uptime(snap.StartedAt),
				strconv.Itoa(snap.Uploaded),
				strconv.Itoa(snap.Failed),
				strconv.Itoa(snap.InFlight),
				strconv.Itoa(snap.Queued),
				fmt.Sprintf("%s ok / %s failed", humanize.Comma(snap.TotalUploaded), humanize.Comma(snap.TotalFailed)),
				ago(snap.LastUpload),
				ago(snap.LastKeepAlive),
			}},
			3, 4, 5, 6, 7,
		))

		return nil
	},
}

func uptime(since *time.Time) string {
	if since == nil {
		return "-"
	}
	return time.Since(*since).Round(time.Second).String()
}

func ago(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return humanize.Time(*t)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

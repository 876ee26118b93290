package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"
)

var stopWait time.Duration

var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the agent; queued uploads are discarded and in-flight ones cancelled",
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := http.Post(daemonURL("/stop"), "application/json", nil)
		if err != nil {
			return fmt.Errorf("daemon not running: %w", err)
		}

		defer func(Body io.ReadCloser) {
			_ = Body.Close()
		}(resp.Body)

		var result map[string]string
		_ = json.NewDecoder(resp.Body).Decode(&result)

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("stop failed: %s", result["error"])
		}

		if stopWait <= 0 {
			fmt.Println("stop requested")
			return nil
		}

		if !waitForExit(stopWait) {
			return fmt.Errorf("agent still running after %s", stopWait)
		}

		fmt.Println("agent stopped")
		return nil
	},
}

// waitForExit polls /status until the control API stops answering.
func waitForExit(timeout time.Duration) bool {
	client := &http.Client{Timeout: time.Second}
	deadline := time.Now().Add(timeout)

	for time.Now().Before(deadline) {
		resp, err := client.Get(daemonURL("/status"))
		if err != nil {
			return true
		}
		_ = resp.Body.Close()
		time.Sleep(200 * time.Millisecond)
	}

	return false
}

func init() {
	stopCmd.Flags().DurationVar(&stopWait, "wait", 10*time.Second, "wait for the agent to exit (0 returns immediately)")
	rootCmd.AddCommand(stopCmd)
}

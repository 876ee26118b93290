package cmd

import (
	"fmt"
	"path/filepath"
	"picup/internal/logger"
	"picup/internal/model"
	"picup/internal/repository"
	"picup/internal/uploader"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var uploadCmd = &cobra.Command{
	Use:   "upload [file...]",
	Short: "Upload files once without starting the agent",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		defer logger.Sync()

		up := uploader.New(cfg.EndpointURL, uploader.WithTimeout(cfg.UploadTimeout))
		repo := repository.NewHistoryRepository()

		var synced, failed int
		for _, arg := range args {
			path, err := filepath.Abs(arg)
			if err != nil {
				return fmt.Errorf("invalid path %s: %w", arg, err)
			}

			ev := model.FileEvent{ID: uuid.NewString(), Path: path, ObservedAt: time.Now()}
			result := up.Upload(cmd.Context(), path)
			result.Event = ev
			repo.Record(result)

			if result.Success {
				synced++
				fmt.Printf("✓ %s (%s, %s)\n", path, humanize.Bytes(uint64(result.Size)), result.Duration.Round(time.Millisecond))
				continue
			}

			failed++
			logger.Log.Debug("upload failed",
				zap.String("path", path),
				zap.Error(result.Err))
			fmt.Printf("✗ %s: %v\n", path, result.Err)
		}

		fmt.Printf("done: %d uploaded, %d failed\n", synced, failed)
		if failed > 0 {
			return fmt.Errorf("%d upload(s) failed", failed)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(uploadCmd)
}

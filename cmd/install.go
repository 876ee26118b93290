package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"picup/internal/autostart"

	"github.com/spf13/cobra"
)

var installForce bool

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Start the agent automatically on login",
	RunE: func(cmd *cobra.Command, args []string) error {
		as := autostart.New()

		installed, err := as.IsInstalled()
		if err != nil {
			return fmt.Errorf("failed to check autostart: %w", err)
		}
		if installed && !installForce {
			fmt.Println("picup agent already registered for autostart (use --force to reinstall)")
			return nil
		}

		execPath, err := os.Executable()
		if err != nil {
			return fmt.Errorf("failed to get executable path: %w", err)
		}
		if resolved, err := filepath.EvalSymlinks(execPath); err == nil {
			execPath = resolved
		}

		if err := as.Install(execPath); err != nil {
			return err
		}

		fmt.Printf("picup agent registered for autostart (%s watch)\n", execPath)
		return nil
	},
}

func init() {
	installCmd.Flags().BoolVar(&installForce, "force", false, "reinstall even if already registered")
	rootCmd.AddCommand(installCmd)
}

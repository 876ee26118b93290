package cmd

import (
	"fmt"
	"picup/internal/autostart"

	"github.com/spf13/cobra"
)

var uninstallCmd = &cobra.Command{
	Use:   "uninstall",
	Short: "Stop starting the agent on login",
	RunE: func(cmd *cobra.Command, args []string) error {
		as := autostart.New()

		installed, err := as.IsInstalled()
		if err == nil && !installed {
			fmt.Println("picup agent is not registered for autostart")
			return nil
		}

		if err := as.Uninstall(); err != nil {
			return err
		}

		fmt.Println("picup agent autostart removed")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(uninstallCmd)
}

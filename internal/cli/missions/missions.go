package missions

import "github.com/spf13/cobra"

// MissionsCmd groups the mission catalog administration commands
var MissionsCmd = &cobra.Command{
	Use:   "missions",
	Short: "Mission catalog administration",
	Long:  "List, create and delete mission definitions on the server",
}

func init() {
	MissionsCmd.AddCommand(listCmd)
	MissionsCmd.AddCommand(createCmd)
	MissionsCmd.AddCommand(deleteCmd)
}

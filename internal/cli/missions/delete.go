package missions

import (
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var deleteCmd = &cobra.Command{
	Use:   "delete <mission-id>",
	Short: "Delete a mission definition and its progress",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		token := viper.GetString("admin.token")
		if token == "" {
			return fmt.Errorf("admin token not configured. Set admin.token in ~/.missionhub.yaml")
		}

		url := fmt.Sprintf("http://%s:%d/api/v1/admin/missions/%s",
			viper.GetString("server.host"),
			viper.GetInt("server.port"),
			args[0])

		req, err := http.NewRequest("DELETE", url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return fmt.Errorf("failed to delete mission: %w", err)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != 200 {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
		}

		fmt.Printf("Deleted mission %s\n", args[0])
		return nil
	},
}

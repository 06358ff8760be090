package missions

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"missionhub/pkg/models"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List mission definitions",
	RunE: func(cmd *cobra.Command, args []string) error {
		token := viper.GetString("admin.token")
		if token == "" {
			return fmt.Errorf("admin token not configured. Set admin.token in ~/.missionhub.yaml")
		}

		url := fmt.Sprintf("http://%s:%d/api/v1/admin/missions",
			viper.GetString("server.host"),
			viper.GetInt("server.port"))

		req, err := http.NewRequest("GET", url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return fmt.Errorf("failed to list missions: %w", err)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != 200 {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
		}

		var result struct {
			Data []models.MissionDefinition `json:"data"`
			Meta models.PaginationMeta      `json:"meta"`
		}
		if err := json.Unmarshal(body, &result); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}

		if len(result.Data) == 0 {
			fmt.Println("No missions configured.")
			return nil
		}

		fmt.Printf("%-38s %-28s %-10s %-8s %-7s %s\n", "ID", "TITLE", "KIND", "TARGET", "REWARD", "TRIGGER")
		for _, m := range result.Data {
			status := ""
			if !m.IsActive {
				status = " (inactive)"
			}
			fmt.Printf("%-38s %-28s %-10s %-8d %-7d %s%s\n",
				m.ID, m.Title, m.MissionKind, m.TargetCount, m.RewardPoints, m.TriggerActionType, status)
		}
		fmt.Printf("\n%d of %d missions\n", len(result.Data), result.Meta.Total)
		return nil
	},
}

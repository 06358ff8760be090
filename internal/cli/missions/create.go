package missions

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a mission definition",
	RunE: func(cmd *cobra.Command, args []string) error {
		title, _ := cmd.Flags().GetString("title")
		trigger, _ := cmd.Flags().GetString("trigger")
		kind, _ := cmd.Flags().GetString("kind")
		target, _ := cmd.Flags().GetInt("target")
		reward, _ := cmd.Flags().GetInt("reward")
		minLevel, _ := cmd.Flags().GetString("min-level")
		minPoints, _ := cmd.Flags().GetInt("min-points")
		premiumOnly, _ := cmd.Flags().GetBool("premium-only")
		usageLimit, _ := cmd.Flags().GetInt("usage-limit")

		if title == "" || trigger == "" {
			return fmt.Errorf("--title and --trigger are required")
		}

		token := viper.GetString("admin.token")
		if token == "" {
			return fmt.Errorf("admin token not configured. Set admin.token in ~/.missionhub.yaml")
		}

		body := map[string]interface{}{
			"title":               title,
			"trigger_action_type": trigger,
			"mission_kind":        kind,
			"target_count":        target,
			"reward_points":       reward,
			"min_level":           minLevel,
			"min_points":          minPoints,
			"premium_only":        premiumOnly,
			"usage_limit":         usageLimit,
		}
		jsonBody, _ := json.Marshal(body)

		url := fmt.Sprintf("http://%s:%d/api/v1/admin/missions",
			viper.GetString("server.host"),
			viper.GetInt("server.port"))

		req, err := http.NewRequest("POST", url, bytes.NewReader(jsonBody))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return fmt.Errorf("failed to create mission: %w", err)
		}
		defer resp.Body.Close()

		respBody, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != 201 {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(respBody))
		}

		var created struct {
			ID string `json:"id"`
		}
		json.Unmarshal(respBody, &created)
		fmt.Printf("Created mission %s\n", created.ID)
		return nil
	},
}

func init() {
	createCmd.Flags().String("title", "", "Mission title")
	createCmd.Flags().String("trigger", "", "Trigger action type (e.g. video_watched)")
	createCmd.Flags().String("kind", "achievement", "Mission kind: daily, weekly, monthly, achievement, permanent")
	createCmd.Flags().Int("target", 1, "Target action count")
	createCmd.Flags().Int("reward", 0, "Reward points on completion")
	createCmd.Flags().String("min-level", "bronze", "Minimum level: bronze, silver, gold, diamond")
	createCmd.Flags().Int("min-points", 0, "Minimum total points")
	createCmd.Flags().Bool("premium-only", false, "Restrict to premium users")
	createCmd.Flags().Int("usage-limit", 0, "Lifetime completion cap (0 = unlimited)")
}

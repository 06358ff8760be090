package sweep

import (
	"fmt"
	"io"
	"net/http"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// SweepCmd triggers the maintenance sweeps on the server
var SweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run the maintenance sweeps now",
	Long:  "Purge expired mission progress and reset completed periodic missions immediately",
	RunE: func(cmd *cobra.Command, args []string) error {
		token := viper.GetString("admin.token")
		if token == "" {
			return fmt.Errorf("admin token not configured. Set admin.token in ~/.missionhub.yaml")
		}

		url := fmt.Sprintf("http://%s:%d/api/v1/admin/sweep",
			viper.GetString("server.host"),
			viper.GetInt("server.port"))

		req, err := http.NewRequest("POST", url, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)

		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return fmt.Errorf("failed to run sweep: %w", err)
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != 200 {
			return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
		}

		fmt.Println(string(body))
		return nil
	},
}

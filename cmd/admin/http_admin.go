package main

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

var saveCmd = &cobra.Command{
	Use:   "save",
	Short: "Ask a running server to write its world file now",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		baseURL, _ := cmd.Flags().GetString("url")
		u := strings.TrimRight(strings.TrimSpace(baseURL), "/") + "/admin/v1/save"
		cl := &http.Client{Timeout: 30 * time.Second}
		resp, err := cl.Post(u, "application/json", nil)
		if err != nil {
			return fmt.Errorf("request: %w", err)
		}
		defer resp.Body.Close()
		b, _ := io.ReadAll(resp.Body)
		fmt.Println(strings.TrimSpace(string(b)))
		if resp.StatusCode/100 != 2 {
			return fmt.Errorf("server returned %s", resp.Status)
		}
		return nil
	},
}

func init() {
	saveCmd.Flags().String("url", "http://127.0.0.1:8080", "server base url")
}

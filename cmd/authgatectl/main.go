package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

type client struct {
	BaseURL   string
	Token     string
	OutFormat string // "json" | "text"
	HTTP      *http.Client
}

func (c *client) do(method, path string, body []byte) (int, []byte, error) {
	url := strings.TrimRight(c.BaseURL, "/") + path
	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b, nil
}

func (c *client) print(status int, body []byte) {
	if c.OutFormat == "json" {
		var v any
		if json.Unmarshal(body, &v) == nil {
			p, _ := json.MarshalIndent(v, "", "  ")
			fmt.Println(string(p))
			return
		}
	}
	if len(body) > 0 {
		fmt.Println(string(body))
	} else {
		fmt.Printf("status=%d\n", status)
	}
}

func main() {
	var (
		baseURL = envOr("AUTHGATE_URL", "http://localhost:8080")
		token   = envOr("AUTHGATE_TOKEN", "")
		out     = envOr("AUTHGATE_OUT", "text")
	)

	root := &cobra.Command{
		Use:   "authgatectl",
		Short: "CLI client for the authgate API",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				return fmt.Errorf("missing bearer token (flag --token or env AUTHGATE_TOKEN)")
			}
			return nil
		},
	}

	root.PersistentFlags().StringVar(&baseURL, "base-url", baseURL, "API base URL (env AUTHGATE_URL)")
	root.PersistentFlags().StringVar(&token, "token", token, "bearer identity token (env AUTHGATE_TOKEN)")
	root.PersistentFlags().StringVar(&out, "out", out, "output format: json|text")

	cl := &client{HTTP: &http.Client{Timeout: 30 * time.Second}}
	cobra.OnInitialize(func() {
		cl.BaseURL = baseURL
		cl.Token = token
		cl.OutFormat = out
	})

	whoamiCmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the identity the server resolves for the token",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := cl.do("GET", "/v1/me", nil)
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return fmt.Errorf("whoami failed: status=%d body=%s", status, string(body))
			}
			cl.print(status, body)
			return nil
		},
	}

	adminCmd := &cobra.Command{
		Use:   "admin",
		Short: "Admin operations (via /v1/admin)",
	}

	pingCmd := &cobra.Command{
		Use:   "ping",
		Short: "Check the token clears the admin gate",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := cl.do("GET", "/v1/admin/ping", nil)
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return fmt.Errorf("ping failed: status=%d body=%s", status, string(body))
			}
			if cl.OutFormat == "text" {
				fmt.Println("ok")
				return nil
			}
			cl.print(status, body)
			return nil
		},
	}

	getUserCmd := &cobra.Command{
		Use:   "get-user <uid>",
		Short: "Fetch a user record by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := cl.do("GET", "/v1/admin/users/"+args[0], nil)
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return fmt.Errorf("get-user failed: status=%d body=%s", status, string(body))
			}
			cl.print(status, body)
			return nil
		},
	}

	var annTitle, annBody string
	announceCmd := &cobra.Command{
		Use:   "announce",
		Short: "Post an announcement",
		RunE: func(cmd *cobra.Command, args []string) error {
			if annTitle == "" || annBody == "" {
				return fmt.Errorf("both --title and --body are required")
			}
			payload, _ := json.Marshal(map[string]string{"title": annTitle, "body": annBody})
			status, body, err := cl.do("POST", "/v1/admin/announcements", payload)
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return fmt.Errorf("announce failed: status=%d body=%s", status, string(body))
			}
			cl.print(status, body)
			return nil
		},
	}
	announceCmd.Flags().StringVar(&annTitle, "title", "", "announcement title")
	announceCmd.Flags().StringVar(&annBody, "body", "", "announcement body")

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Show the running server configuration (superadmin)",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := cl.do("GET", "/v1/superadmin/config", nil)
			if err != nil {
				return err
			}
			if status/100 != 2 {
				return fmt.Errorf("config failed: status=%d body=%s", status, string(body))
			}
			cl.print(status, body)
			return nil
		},
	}

	adminCmd.AddCommand(pingCmd, getUserCmd, announceCmd)
	root.AddCommand(whoamiCmd, adminCmd, configCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

// indieauthctl is a small operations CLI for an indieauthd instance:
// fetch server metadata, introspect and revoke access tokens.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

type client struct {
	BaseURL string
	HTTP    *http.Client
}

func (c *client) do(method, path string, form url.Values, bearer string) (int, []byte, error) {
	u := strings.TrimRight(c.BaseURL, "/") + path

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequest(method, u, body)
	if err != nil {
		return 0, nil, err
	}
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, b, nil
}

func (c *client) print(body []byte) {
	var v any
	if json.Unmarshal(body, &v) == nil {
		p, _ := json.MarshalIndent(v, "", "  ")
		fmt.Println(string(p))
		return
	}
	fmt.Println(string(body))
}

func main() {
	var (
		baseURL = envOr("INDIEAUTH_URL", "http://localhost:8080")
		timeout = 30 * time.Second
	)

	root := &cobra.Command{
		Use:   "indieauthctl",
		Short: "Operations CLI for an indieauthd server",
	}
	root.PersistentFlags().StringVar(&baseURL, "url", baseURL, "server base URL (env INDIEAUTH_URL)")

	cl := &client{HTTP: &http.Client{Timeout: timeout}}
	root.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		cl.BaseURL = baseURL
	}

	metadataCmd := &cobra.Command{
		Use:   "metadata",
		Short: "Fetch the server metadata document",
		RunE: func(cmd *cobra.Command, args []string) error {
			status, body, err := cl.do("GET", "/indieauth/metadata", nil, "")
			if err != nil {
				return err
			}
			if status != http.StatusOK {
				return fmt.Errorf("metadata failed: status=%d body=%s", status, string(body))
			}
			cl.print(body)
			return nil
		},
	}

	var introspectToken string
	introspectCmd := &cobra.Command{
		Use:   "introspect",
		Short: "Verify an access token and show its owner and scopes",
		RunE: func(cmd *cobra.Command, args []string) error {
			if introspectToken == "" {
				return fmt.Errorf("--token is required")
			}
			status, body, err := cl.do("GET", "/indieauth/token", nil, introspectToken)
			if err != nil {
				return err
			}
			if status != http.StatusOK {
				return fmt.Errorf("introspection failed: status=%d body=%s", status, string(body))
			}
			cl.print(body)
			return nil
		},
	}
	introspectCmd.Flags().StringVar(&introspectToken, "token", "", "access token to introspect")

	var revokeToken string
	revokeCmd := &cobra.Command{
		Use:   "revoke",
		Short: "Revoke an access token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if revokeToken == "" {
				return fmt.Errorf("--token is required")
			}
			form := url.Values{"token": {revokeToken}}
			status, body, err := cl.do("POST", "/indieauth/token/revocation", form, "")
			if err != nil {
				return err
			}
			if status != http.StatusOK {
				return fmt.Errorf("revocation failed: status=%d body=%s", status, string(body))
			}
			fmt.Println("ok")
			return nil
		},
	}
	revokeCmd.Flags().StringVar(&revokeToken, "token", "", "access token to revoke")

	root.AddCommand(metadataCmd, introspectCmd, revokeCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

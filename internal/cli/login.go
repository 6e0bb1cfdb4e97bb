package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
)

const credentialsFileName = "credentials.json"

type credentials struct {
	Server string `json:"server"`
	Token  string `json:"token"`
}

func newLoginCmd() *cobra.Command {
	var password string

	cmd := &cobra.Command{
		Use:   "login <email>",
		Short: "Log in and store a token",
		Long:  "Exchange email and password for a bearer token and store it for later commands.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				var err error
				if password, err = prompt(cmd, "Password: "); err != nil {
					return err
				}
			}

			res, err := client.Login(args[0], password)
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}
			credPath, err := saveCredentials(credentials{Server: flagServer, Token: res.Token})
			if err != nil {
				return err
			}
			printf(cmd, "Logged in as %s (%s) until %s\n", res.User.Email, res.User.ID,
				res.ExpiresAt.Format("2006-01-02 15:04"))
			printf(cmd, "Credentials saved to %s\n", credPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&password, "password", "", "Password (prompted if omitted)")
	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the stored token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if client.Token == "" {
				return fmt.Errorf("not logged in")
			}
			if err := client.Logout(); err != nil {
				return fmt.Errorf("logout: %w", err)
			}
			credPath, err := credentialsPath()
			if err != nil {
				return err
			}
			if err := os.Remove(credPath); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("remove credentials: %w", err)
			}
			printf(cmd, "Logged out.\n")
			return nil
		},
	}
}

// prompt reads one line from the command's stdin.
func prompt(cmd *cobra.Command, label string) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), label)
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read input: %w", err)
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", fmt.Errorf("input cannot be empty")
	}
	return line, nil
}

// credentialsPath returns the path to the credentials file
// (~/.chorewheel/credentials.json).
func credentialsPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("find home directory: %w", err)
	}
	return filepath.Join(home, ".chorewheel", credentialsFileName), nil
}

func saveCredentials(creds credentials) (string, error) {
	credPath, err := credentialsPath()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(credPath), 0700); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}
	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal credentials: %w", err)
	}
	if err := os.WriteFile(credPath, data, 0600); err != nil {
		return "", fmt.Errorf("write credentials: %w", err)
	}
	return credPath, nil
}

// LoadToken reads the stored token for server, returning "" if none is
// stored or it was issued by a different server.
func LoadToken(server string) string {
	p, err := credentialsPath()
	if err != nil {
		return ""
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return ""
	}
	var creds credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return ""
	}
	if creds.Server != "" && creds.Server != server {
		return ""
	}
	return creds.Token
}

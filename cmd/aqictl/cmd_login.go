package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/yanqian/aqi-advisor/internal/infra/aqiapi"
)

func newLoginCmd(g *globals) *cobra.Command {
	var (
		email      string
		printToken bool
	)
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and save the session token",
		RunE: func(cmd *cobra.Command, args []string) error {
			reader := bufio.NewReader(cmd.InOrStdin())
			out := cmd.OutOrStdout()

			if strings.TrimSpace(email) == "" {
				fmt.Fprint(out, "Email: ")
				line, err := reader.ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("failed to read email: %w", err)
				}
				email = strings.TrimSpace(line)
			}
			if email == "" {
				return fmt.Errorf("email cannot be empty")
			}

			fmt.Fprint(out, "Password: ")
			password, err := readPassword(cmd.InOrStdin(), reader)
			fmt.Fprintln(out)
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}
			if password == "" {
				return fmt.Errorf("password cannot be empty")
			}

			client, err := aqiapi.NewClient(g.apiURL, "", g.timeout)
			if err != nil {
				return err
			}
			resp, err := client.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			if printToken {
				fmt.Fprintln(out, resp.Token)
				return nil
			}
			if err := saveToken(g.tokenPath(), resp.Token); err != nil {
				return err
			}
			name := resp.User.Name
			if name == "" {
				name = resp.User.Email
			}
			fmt.Fprintf(out, "Logged in as %s\n", name)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().BoolVar(&printToken, "print", false, "print the token instead of saving it")
	return cmd
}

// readPassword hides the input on a terminal and reads a plain line otherwise.
func readPassword(in io.Reader, buffered *bufio.Reader) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		raw, err := term.ReadPassword(int(f.Fd()))
		return string(raw), err
	}
	line, err := buffered.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func newLogoutCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := removeToken(g.tokenPath()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func newWhoamiCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged in user and their health profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := g.client()
			if err != nil {
				return err
			}
			info, err := client.CheckSession(cmd.Context())
			if err != nil {
				return err
			}
			if g.jsonOut {
				return printJSON(cmd.OutOrStdout(), info)
			}
			out := cmd.OutOrStdout()
			if !info.LoggedIn {
				fmt.Fprintln(out, "Not logged in")
				return nil
			}
			fmt.Fprintf(out, "Name: %s\n", info.Name)
			if info.City != "" {
				fmt.Fprintf(out, "City: %s\n", info.City)
			}
			if info.Age > 0 {
				fmt.Fprintf(out, "Age: %d\n", info.Age)
			}
			if info.Gender != "" {
				fmt.Fprintf(out, "Gender: %s\n", info.Gender)
			}
			if len(info.HealthConditions) > 0 {
				fmt.Fprintf(out, "Health conditions: %s\n", strings.Join(info.HealthConditions, ", "))
			}
			return nil
		},
	}
}

// Command keychainctl reads and writes entries of a keychain server.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/atinyakov/keychain/internal/client"
)

const defaultURL = "http://localhost:8080"

type rootOptions struct {
	url     string
	timeout time.Duration
}

func (o *rootOptions) client() *client.Client {
	return client.New(o.url, o.timeout)
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "keychainctl",
		Short:         "Manage entries of a keychain server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	url := defaultURL
	if env := os.Getenv("KEYCHAIN_URL"); env != "" {
		url = env
	}
	cmd.PersistentFlags().StringVar(&opts.url, "url", url, "keychain server base URL (env KEYCHAIN_URL)")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "request timeout")

	cmd.AddCommand(
		newGetCmd(opts),
		newSetCmd(opts),
		newHasCmd(opts),
		newDeleteCmd(opts),
		newInfoCmd(opts),
	)
	return cmd
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

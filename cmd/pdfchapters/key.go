package main

import (
	"bufio"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thywilljoshua/pdf-chapters/internal/ai"
	"github.com/thywilljoshua/pdf-chapters/internal/app"
)

func keyCmd(rt *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "key",
		Short: "Manage the stored Gemini API key",
	}
	cmd.AddCommand(keySetCmd(rt), keyClearCmd(rt), keyStatusCmd(rt))
	return cmd
}

// keyController builds a controller for credential commands only. It never
// analyzes, so no analyzer is wired.
func keyController(rt *rootOptions) (*app.Controller, string, func(), error) {
	cfg, log, err := rt.load()
	if err != nil {
		return nil, "", nil, err
	}
	store := newFileStore(cfg)
	return app.New(store, nil, log), store.Path(), func() { log.Sync() }, nil
}

func keySetCmd(rt *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set",
		Short: "Read an API key from stdin and store it",
		Long: "Read an API key from stdin and store it.\n\n" +
			"The key is never accepted as an argument so it stays out of shell history.\n" +
			"Get one at https://aistudio.google.com/app/apikey",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, path, done, err := keyController(rt)
			if err != nil {
				return err
			}
			defer done()

			fmt.Fprintln(cmd.ErrOrStderr(), "Paste your Gemini API key and press Enter:")
			sc := bufio.NewScanner(cmd.InOrStdin())
			var line string
			if sc.Scan() {
				line = sc.Text()
			}
			if err := sc.Err(); err != nil {
				return fmt.Errorf("reading key: %w", err)
			}
			if err := ctrl.SetCredential(line); err != nil {
				if errors.Is(err, ai.ErrMissingCredential) {
					return errors.New("no key entered")
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "API key stored in %s\n", path)
			return nil
		},
	}
}

func keyClearCmd(rt *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove the stored API key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, _, done, err := keyController(rt)
			if err != nil {
				return err
			}
			defer done()

			if err := ctrl.ClearCredential(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "API key removed")
			return nil
		},
	}
}

func keyStatusCmd(rt *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Report whether an API key is stored",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, path, done, err := keyController(rt)
			if err != nil {
				return err
			}
			defer done()

			if ctrl.HasCredential() {
				fmt.Fprintf(cmd.OutOrStdout(), "API key stored in %s\n", path)
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "no API key stored")
			}
			return nil
		},
	}
}

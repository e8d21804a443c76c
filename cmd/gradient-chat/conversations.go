// ABOUTME: Non-interactive subcommands for listing, creating, renaming, deleting and exporting conversations
// ABOUTME: Share the same config, token and state database as the interactive chat

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/HarshalVankudre/digitalocean/internal/api"
	"github.com/HarshalVankudre/digitalocean/internal/messages"
	"github.com/HarshalVankudre/digitalocean/internal/render"
)

func newConversationsCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "conversations",
		Aliases: []string{"conv"},
		Short:   "Manage conversations",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List conversations, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(flags)
			if err != nil {
				return err
			}
			defer a.Close()

			convs, err := a.dir.List(cmd.Context())
			if err != nil {
				return err
			}
			active, _ := a.mgr.State().Load(cmd.Context())
			printConversations(cmd.OutOrStdout(), convs, active)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "create [title]",
		Short: "Create a conversation",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(flags)
			if err != nil {
				return err
			}
			defer a.Close()

			title := ""
			if len(args) == 1 {
				title = args[0]
			}
			conv, err := a.dir.Create(cmd.Context(), title)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), conv.ID)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "rename <id> <title>",
		Short: "Rename a conversation",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(flags)
			if err != nil {
				return err
			}
			defer a.Close()

			conv, err := a.dir.Rename(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed %s to %q\n", conv.ID, conv.DisplayTitle())
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(flags)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			id := args[0]
			if err := a.dir.Delete(ctx, id); err != nil {
				return err
			}
			// the next chat resolves a different conversation
			if active, _ := a.mgr.State().Load(ctx); active == id {
				if err := a.mgr.State().Clear(ctx); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", id)
			return nil
		},
	})

	return cmd
}

func newExportCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "export <id> <file>",
		Short: "Export a conversation as HTML (file - for stdout)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(flags)
			if err != nil {
				return err
			}
			defer a.Close()

			detail, err := a.client.GetConversation(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeTranscript(args[1], detail.Conversation, messages.FromAPIList(detail.Messages))
		},
	}
}

func writeTranscript(path string, conv api.Conversation, msgs []messages.Message) (err error) {
	out, err := openOutput(path)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, out.Close())
	}()
	return render.NewHTML().Transcript(out, conv, msgs)
}

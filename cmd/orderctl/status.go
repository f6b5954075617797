package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status <orderId> <status>",
	Short: "Set an order's status (chef or admin)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := newSession(cmd)
		if err != nil {
			return err
		}
		if !sess.authenticated() {
			return errors.New("status changes need --token or --email")
		}
		if err := sess.api.UpdateStatus(cmd.Context(), args[0], args[1]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "order %s -> %s\n", args[0], args[1])
		return nil
	},
}

package main

import (
	"fmt"

	"smartorder/client"

	"github.com/spf13/cobra"
)

var (
	fbRating  float64
	fbMessage string
)

var feedbackCmd = &cobra.Command{
	Use:   "feedback <orderId>",
	Short: "Leave feedback for a completed order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := newSession(cmd)
		if err != nil {
			return err
		}
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		var rating *float64
		if cmd.Flags().Changed("rating") {
			rating = &fbRating
		}
		gate := client.NewGate(sess.api, store, sess.authenticated())
		if err := gate.Submit(cmd.Context(), args[0], rating, fbMessage); err != nil {
			return err
		}
		where := "on the server"
		if !sess.authenticated() {
			where = "on this device"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "feedback for %s saved %s\n", args[0], where)
		return nil
	},
}

func init() {
	feedbackCmd.Flags().Float64Var(&fbRating, "rating", 0, "rating between 0 and 5 (required)")
	feedbackCmd.Flags().StringVar(&fbMessage, "message", "", "optional message")
}

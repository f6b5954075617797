package main

import (
	"fmt"
	"io"
	"strconv"

	"smartorder/client"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var (
	reportDays int
	reportTZ   string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print revenue, peak hours and top sellers (admin)",
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := newSession(cmd)
		if err != nil {
			return err
		}
		a, err := sess.api.Analytics(cmd.Context(), reportDays, reportTZ)
		if err != nil {
			return err
		}
		return renderReport(cmd.OutOrStdout(), a)
	},
}

func money(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }

func renderReport(w io.Writer, a *client.Analytics) error {
	fmt.Fprintf(w, "Last %d days (%s): %d orders, revenue %s\n\n", a.Days, a.Timezone, a.Orders, money(a.Revenue))

	sections := []struct {
		title  string
		header []string
		rows   [][]string
	}{
		{"Daily", []string{"Day", "Orders", "Revenue"}, bucketRows(a.Daily)},
		{"Weekly", []string{"Week of", "Orders", "Revenue"}, bucketRows(a.Weekly)},
		{"Peak hours", []string{"Hour", "Orders", "Revenue"}, hourRows(a.PeakHours)},
		{"Top items", []string{"Item", "Qty", "Revenue"}, topRows(a.TopItems)},
	}
	for _, s := range sections {
		fmt.Fprintln(w, s.title)
		table := tablewriter.NewWriter(w)
		table.Header(s.header)
		for _, r := range s.rows {
			if err := table.Append(r); err != nil {
				return err
			}
		}
		if err := table.Render(); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}
	return nil
}

func bucketRows(bs []client.Bucket) [][]string {
	rows := make([][]string, 0, len(bs))
	for _, b := range bs {
		rows = append(rows, []string{b.Start, strconv.Itoa(b.Orders), money(b.Revenue)})
	}
	return rows
}

// hourRows skips empty hours.
func hourRows(hs []client.HourBucket) [][]string {
	var rows [][]string
	for _, h := range hs {
		if h.Orders == 0 {
			continue
		}
		rows = append(rows, []string{fmt.Sprintf("%02d:00", h.Hour), strconv.Itoa(h.Orders), money(h.Revenue)})
	}
	return rows
}

func topRows(items []client.TopItem) [][]string {
	rows := make([][]string, 0, len(items))
	for _, it := range items {
		rows = append(rows, []string{it.Name, strconv.FormatInt(it.Quantity, 10), money(it.Revenue)})
	}
	return rows
}

func init() {
	reportCmd.Flags().IntVar(&reportDays, "days", 7, "number of days to cover")
	reportCmd.Flags().StringVar(&reportTZ, "tz", "", "IANA timezone for bucketing (server default if empty)")
}

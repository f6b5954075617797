package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"smartorder/client"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var (
	orderTable   string
	orderItems   []string
	orderCharges float64
	orderNote    string
	orderWatch   bool
)

var orderCmd = &cobra.Command{
	Use:   "order",
	Short: "Place an order and remember it as the last order",
	Long: `Looks the items up on the menu, places the order and stores it as the
last order so "orderctl watch" picks it up. Items are given as
<productId>[:quantity], e.g. --item 1:2 --item 5.`,
	Example: "  orderctl order --table T5 --item 1 --charges 50 --watch",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		sess, err := newSession(cmd)
		if err != nil {
			return err
		}
		menu, err := sess.api.Menu(ctx)
		if err != nil {
			return fmt.Errorf("load menu: %w", err)
		}
		in, err := buildOrder(menu, orderItems, orderTable, orderCharges, orderNote)
		if err != nil {
			return err
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		w := newWatcher(cmd, sess, store)
		o, saveErr := w.agent.Checkout(ctx, in)
		if o == nil {
			return saveErr
		}
		if saveErr != nil {
			// the order exists on the server; only the local copy failed
			logger.WithError(saveErr).Warn("order placed but not saved locally")
		}
		if err := renderOrder(cmd.OutOrStdout(), o); err != nil {
			return err
		}
		if !orderWatch {
			fmt.Fprintf(cmd.OutOrStdout(), "follow it with: orderctl watch %s\n", o.ID)
			return nil
		}
		return w.run(ctx)
	},
}

func init() {
	orderCmd.Flags().StringVar(&orderTable, "table", "", "table number (required)")
	orderCmd.Flags().StringArrayVar(&orderItems, "item", nil, "menu item as <productId>[:quantity] (repeatable)")
	orderCmd.Flags().Float64Var(&orderCharges, "charges", 0, "additional charges added to the subtotal")
	orderCmd.Flags().StringVar(&orderNote, "note", "", "special instructions for the kitchen")
	orderCmd.Flags().BoolVar(&orderWatch, "watch", false, "keep following the order after placing it")
	_ = orderCmd.MarkFlagRequired("table")
	_ = orderCmd.MarkFlagRequired("item")
}

// buildOrder resolves item arguments against the menu and computes the totals
// the server stores as given.
func buildOrder(menu []client.MenuItem, args []string, table string, charges float64, note string) (*client.NewOrder, error) {
	table = strings.TrimSpace(table)
	if table == "" {
		return nil, fmt.Errorf("--table is required")
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("at least one --item is required")
	}
	if charges < 0 {
		return nil, fmt.Errorf("--charges must not be negative")
	}

	byID := make(map[uint]client.MenuItem, len(menu))
	for _, m := range menu {
		byID[m.ID] = m
	}

	in := &client.NewOrder{TableNumber: table, AdditionalCharges: charges, SpecialInstructions: strings.TrimSpace(note)}
	for _, arg := range args {
		id, qty, err := parseItem(arg)
		if err != nil {
			return nil, err
		}
		m, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("item %q: no product %d on the menu", arg, id)
		}
		if !m.Available {
			return nil, fmt.Errorf("item %q: %s is unavailable", arg, m.Name)
		}
		in.Items = append(in.Items, client.OrderItem{
			ProductID: m.ID,
			Name:      m.Name,
			Price:     m.Price,
			Image:     m.Image,
			Quantity:  qty,
		})
		in.Subtotal += m.Price * float64(qty)
	}
	in.Total = in.Subtotal + in.AdditionalCharges
	return in, nil
}

func parseItem(arg string) (id uint, qty int, err error) {
	idPart, qtyPart, hasQty := strings.Cut(strings.TrimSpace(arg), ":")
	n, err := strconv.ParseUint(idPart, 10, 64)
	if err != nil || n == 0 {
		return 0, 0, fmt.Errorf("item %q: product id must be a positive number", arg)
	}
	qty = 1
	if hasQty {
		qty, err = strconv.Atoi(qtyPart)
		if err != nil || qty < 1 {
			return 0, 0, fmt.Errorf("item %q: quantity must be at least 1", arg)
		}
	}
	return uint(n), qty, nil
}

func renderOrder(w io.Writer, o *client.Order) error {
	fmt.Fprintf(w, "order %s  table %s  %s\n", o.ID, o.TableNumber, o.Status)
	t := tablewriter.NewWriter(w)
	t.Header([]string{"Item", "Qty", "Price"})
	for _, it := range o.Items {
		if err := t.Append([]string{it.Name, strconv.Itoa(it.Quantity), money(it.Price * float64(it.Quantity))}); err != nil {
			return err
		}
	}
	if err := t.Render(); err != nil {
		return err
	}
	fmt.Fprintf(w, "subtotal %s  charges %s  total %s\n", money(o.Subtotal), money(o.AdditionalCharges), money(o.Total))
	return nil
}

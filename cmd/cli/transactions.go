package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/dvloznov/smartpause/internal/app"
	"github.com/spf13/cobra"
)

func newTransactionsCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "transactions",
		Short: "Print the transaction store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := g.validateFormat(); err != nil {
				return err
			}
			cfg, _, err := g.load(cmd)
			if err != nil {
				return err
			}
			txs, err := app.LoadTransactions(commandContext(cmd), cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if g.jsonOutput() {
				return writeJSON(out, txs.All())
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tDATE\tMERCHANT\tAMOUNT\tCATEGORY")
			for _, tx := range txs.All() {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", tx.ID, tx.Date, tx.Merchant, tx.Amount.StringFixed(2), tx.Category)
			}
			fmt.Fprintf(tw, "\n%d transactions, %d merchants\n", txs.Len(), len(txs.Merchants()))
			return tw.Flush()
		},
	}
}

package main

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"avocado/internal/format"
	"avocado/internal/price"
)

func newPricesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prices [symbol...]",
		Short: "Show USD prices for token symbols",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, a, err := setup(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			symbols := args
			if len(symbols) == 0 {
				symbols = a.cfg.Symbols
			}
			if len(symbols) == 0 {
				symbols = price.SupportedSymbols()
			}

			res := a.prices.Fetch(ctx, symbols)
			if res.Err != nil {
				a.logger.Warn("showing fallback prices", zap.Error(res.Err))
			}

			keys := make([]string, 0, len(res.Prices))
			for k := range res.Prices {
				keys = append(keys, k)
			}
			sort.Strings(keys)

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "SYMBOL\tPRICE\t24H\tMARKET CAP\tVOLUME")
			for _, k := range keys {
				p := res.Prices[k]
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", k, format.USDValue(p.Price),
					format.Percentage(p.Change24hPct), format.USDValue(p.MarketCap), format.USDValue(p.Volume24h))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(os.Stdout, "\nsource=%s\n", res.Source)
			return nil
		},
	}
	cmd.Flags().StringSlice("symbols", nil, "symbols to price when no arguments are given")
	return cmd
}

func newMarketCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "market",
		Short: "Show market-wide metrics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, a, err := setup(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			res := a.market.Fetch(ctx)
			m := res.Metrics
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "crypto market cap\t%s\n", format.USDValue(m.CryptoMarketCap))
			fmt.Fprintf(w, "crypto volume 24h\t%s\n", format.USDValue(m.CryptoVolume24h))
			fmt.Fprintf(w, "defi market cap\t%s\n", format.USDValue(m.DefiMarketCap))
			fmt.Fprintf(w, "defi volume 24h\t%s\n", format.USDValue(m.DefiVolume24h))
			fmt.Fprintf(w, "fear & greed\t%d\n", m.FearGreedIndex)
			fmt.Fprintf(w, "altcoin season\t%d\n", m.AltcoinSeasonIndex)
			fmt.Fprintf(w, "source\t%s\n", res.Source)
			return w.Flush()
		},
	}
}

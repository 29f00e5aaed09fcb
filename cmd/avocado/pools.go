package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"avocado/internal/analytics"
	"avocado/internal/chain"
	"avocado/internal/dashboard"
	"avocado/internal/dex"
	"avocado/internal/format"
	"avocado/internal/model"
	"avocado/internal/storage"
)

func newPoolsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pools",
		Short: "List pools with filters and paging",
		RunE:  runPools,
	}
	cmd.Flags().String("search", "", "match token symbol or name")
	cmd.Flags().Float64("min-tvl", 0, "minimum TVL in USD")
	cmd.Flags().Float64("max-tvl", 0, "maximum TVL in USD, 0 means unbounded")
	cmd.Flags().StringSlice("fee-tier", nil, "fee tiers to include (100, 500, 3000, 10000)")
	cmd.Flags().String("sort-by", "tvl", "sort field (tvl, volume, apr)")
	cmd.Flags().String("sort-dir", "desc", "sort direction (asc, desc)")
	cmd.Flags().Int("pages", 1, "number of pages to load")
	cmd.Flags().String("out", "", "append fetched pools to this JSONL file")
	return cmd
}

func runPools(cmd *cobra.Command, _ []string) error {
	ctx, a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	filters, err := filtersFromFlags(cmd)
	if err != nil {
		return err
	}
	pages, _ := cmd.Flags().GetInt("pages")
	if pages < 1 {
		pages = 1
	}

	page := a.pools.FetchPage(ctx, filters, true)
	for i := 1; i < pages && page.HasMore; i++ {
		page = a.pools.LoadMore(ctx)
	}
	if page.Err != nil {
		a.logger.Warn("showing fallback pools", zap.Error(page.Err))
	}

	var sink storage.PoolSink = a.archive
	if a.cfg.Out != "" {
		sink = storage.NewJsonlStorage(a.cfg.Out)
	}
	if sink != nil && page.Source == model.SourceFresh {
		if err := sink.PutPools(ctx, time.Now().Unix(), page.Pools); err != nil {
			return fmt.Errorf("archive pools: %w", err)
		}
	}

	prices := a.prices.Fetch(ctx, dashboard.Symbols(page.Pools))
	views := dashboard.BuildViews(page.Pools, prices.Prices, filters, time.Now())
	printPools(os.Stdout, views)
	fmt.Fprintf(os.Stdout, "\n%d pools, page %d, more=%t, source=%s\n", len(views), page.Page, page.HasMore, page.Source)
	return nil
}

func newSearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <term>",
		Short: "Search pools by token symbol or name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, a, err := setup(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			res := a.pools.Search(ctx, args[0])
			if res.Err != nil {
				a.logger.Warn("search degraded to local match", zap.Error(res.Err))
			}
			views := dashboard.BuildViews(res.Pools, nil, model.DefaultFilters(), time.Now())
			printPools(os.Stdout, views)
			fmt.Fprintf(os.Stdout, "\n%d matches, source=%s\n", len(views), res.Source)
			return nil
		},
	}
}

func newPoolCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pool <address>",
		Short: "Show one pool with its daily history",
		Args:  cobra.ExactArgs(1),
		RunE:  runPool,
	}
	cmd.Flags().Bool("live", false, "also read slot0 and liquidity over JSON-RPC")
	cmd.Flags().String("rpc", "", "Ethereum RPC URL for --live")
	return cmd
}

func runPool(cmd *cobra.Command, args []string) error {
	ctx, a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	pool, source, err := a.pools.Pool(ctx, args[0])
	if err != nil {
		return err
	}

	now := time.Now()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "pool\t%s\n", pool.ID)
	fmt.Fprintf(w, "pair\t%s (%s)\n", format.PairName(pool), format.FeeTierLabel(pool.FeeTier))
	fmt.Fprintf(w, "tvl\t%s\n", format.USD(pool.TotalValueLockedUSD))
	fmt.Fprintf(w, "volume\t%s\n", format.USD(pool.VolumeUSD))
	fmt.Fprintf(w, "apr\t%s\n", format.Percentage(analytics.EstimateAPR(pool)))
	fmt.Fprintf(w, "fees 24h\t%s\n", format.USDValue(analytics.Fees24h(pool)))
	fmt.Fprintf(w, "age\t%s\n", format.PoolAge(pool.CreatedAtTimestamp, now))
	fmt.Fprintf(w, "source\t%s\n", source)
	_ = w.Flush()

	history := analytics.HistoricalAPR(pool, len(pool.PoolDayData))
	if len(history) > 0 {
		fmt.Fprintln(os.Stdout, "\ndaily apr (oldest first)")
		for i, apr := range history {
			fmt.Fprintf(os.Stdout, "  %2d  %s\n", i+1, format.Percentage(apr))
		}
	}

	live, _ := cmd.Flags().GetBool("live")
	if !live {
		return nil
	}
	if a.cfg.RPCURL == "" {
		return fmt.Errorf("rpc url is required for --live")
	}
	chainClient, err := chain.NewClient(ctx, a.cfg.RPCURL)
	if err != nil {
		return fmt.Errorf("connect rpc: %w", err)
	}
	defer chainClient.Close()

	state, err := dex.NewReader(chainClient, a.logger).ReadPool(ctx, pool.ID)
	if err != nil {
		return fmt.Errorf("read live pool: %w", err)
	}
	w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "\nchain id\t%s\n", chainClient.ChainID())
	fmt.Fprintf(w, "block\t%d\n", state.Block)
	fmt.Fprintf(w, "live tick\t%d\n", state.Tick)
	fmt.Fprintf(w, "live liquidity\t%s\n", state.Liquidity)
	fmt.Fprintf(w, "live price\t%s %s per %s\n", state.Price, state.Token1.Symbol, state.Token0.Symbol)
	return w.Flush()
}

func filtersFromFlags(cmd *cobra.Command) (model.Filters, error) {
	filters := model.DefaultFilters()
	flags := cmd.Flags()
	filters.Search, _ = flags.GetString("search")
	filters.MinTVL, _ = flags.GetFloat64("min-tvl")
	filters.MaxTVL, _ = flags.GetFloat64("max-tvl")
	if err := filters.Validate(); err != nil {
		return model.Filters{}, err
	}

	tiers, _ := flags.GetStringSlice("fee-tier")
	for _, tier := range tiers {
		tier = strings.TrimSpace(tier)
		if !model.FeeTier(tier).Known() {
			return model.Filters{}, fmt.Errorf("invalid fee tier: %s", tier)
		}
		filters.FeeTiers = append(filters.FeeTiers, tier)
	}

	sortBy, _ := flags.GetString("sort-by")
	var err error
	if filters.SortBy, err = model.ParseSortField(sortBy); err != nil {
		return model.Filters{}, err
	}
	sortDir, _ := flags.GetString("sort-dir")
	if filters.SortDirection, err = model.ParseSortDirection(sortDir); err != nil {
		return model.Filters{}, err
	}
	return filters, nil
}

func printPools(out io.Writer, views []dashboard.PoolView) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PAIR\tFEE\tTVL\tVOLUME\tAPR\tFEES 24H\tAGE\tPOOL")
	for _, v := range views {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			v.Pair, v.FeeTier, v.TVL, v.Volume, v.APRLabel, v.Fees24h, v.Age, v.Pool.ID)
	}
	_ = w.Flush()
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"avocado/internal/chain"
	"avocado/internal/dashboard"
	"avocado/internal/dex"
	"avocado/internal/server"
)

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll pools and prices and print the dashboard",
		RunE:  runWatch,
	}
	cmd.Flags().Duration("price-interval", 2*time.Minute, "price refresh interval")
	cmd.Flags().Duration("pool-interval", 30*time.Second, "pool refresh interval")
	return cmd
}

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard JSON API",
		RunE:  runServe,
	}
	cmd.Flags().String("addr", ":8080", "listen address")
	cmd.Flags().String("rpc", "", "Ethereum RPC URL for live pool reads")
	cmd.Flags().Duration("price-interval", 2*time.Minute, "price refresh interval")
	cmd.Flags().Duration("pool-interval", 30*time.Second, "pool refresh interval")
	return cmd
}

func (a *app) newDashboard() (*dashboard.Service, error) {
	return dashboard.NewService(a.pools, a.prices, dashboard.Options{
		Market:        a.market,
		PriceInterval: a.cfg.PriceInterval,
		PoolInterval:  a.cfg.PoolInterval,
		Logger:        a.logger,
	})
}

func runWatch(cmd *cobra.Command, _ []string) error {
	ctx, a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	svc, err := a.newDashboard()
	if err != nil {
		return err
	}
	svc.Start(ctx)
	defer svc.Stop()

	ticker := time.NewTicker(a.cfg.PoolInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			printState(svc.State())
		}
	}
}

func printState(state dashboard.State) {
	fmt.Fprintf(os.Stdout, "\n%s  pools=%s prices=%s market=%s  fear&greed=%d altseason=%d\n",
		state.UpdatedAt.Format(time.RFC3339), state.PoolSource, state.PriceSource, state.MarketSource,
		state.Market.FearGreedIndex, state.Market.AltcoinSeasonIndex)
	printPools(os.Stdout, state.Pools)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	svc, err := a.newDashboard()
	if err != nil {
		return err
	}

	opts := server.Options{Market: a.market, Dashboard: svc, Logger: a.logger}
	if a.cfg.RPCURL != "" {
		chainClient, err := chain.NewClient(ctx, a.cfg.RPCURL)
		if err != nil {
			return fmt.Errorf("connect rpc: %w", err)
		}
		defer chainClient.Close()
		a.logger.Info("rpc connected", zap.String("chain_id", chainClient.ChainID().String()))
		opts.Live = dex.NewReader(chainClient, a.logger)
	}

	handler, err := server.New(a.pools, a.prices, opts)
	if err != nil {
		return err
	}
	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              a.cfg.Addr,
		Handler:           server.NewRouter(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	svc.Start(ctx)
	defer svc.Stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("http listen", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

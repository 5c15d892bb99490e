package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/quant/backtest"
	"github.com/rustyeddy/quant/config"
	"github.com/rustyeddy/quant/data"
	"github.com/rustyeddy/quant/internal/id"
	"github.com/rustyeddy/quant/journal"
	"github.com/rustyeddy/quant/runner"
	"github.com/rustyeddy/quant/strategies"
)

const cliDateLayout = "20060102"

func newBacktestCmd() *cobra.Command {
	var (
		configPath string
		dbPath     string
		table      string
		symbol     string
		start, end string
		cash       float64
		stratName  string
		logTrades  bool
	)

	cmd := &cobra.Command{
		Use:   "backtest",
		Short: "Run a backtest over the daily bar store",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if configPath != "" {
				loaded, err := config.LoadFromFile(configPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			// Flags override the file.
			if cmd.Flags().Changed("db") {
				cfg.Data.DB = dbPath
			}
			if cmd.Flags().Changed("table") {
				cfg.Data.Table = table
			}
			if cmd.Flags().Changed("symbol") {
				cfg.Run.Symbol = symbol
			}
			if cmd.Flags().Changed("start") {
				cfg.Run.Start = start
			}
			if cmd.Flags().Changed("end") {
				cfg.Run.End = end
			}
			if cmd.Flags().Changed("cash") {
				cfg.Run.Cash = cash
			}
			if cmd.Flags().Changed("strategy") {
				cfg.Strategy.Name = stratName
			}
			if cmd.Flags().Changed("log-trades") {
				cfg.Run.TradeLog = logTrades
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			return runBacktest(cfg)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to YAML/JSON config file")
	cmd.Flags().StringVar(&dbPath, "db", "./data/data.sqlite", "Daily bar SQLite database")
	cmd.Flags().StringVar(&table, "table", data.DefaultTable, "Daily bar table")
	cmd.Flags().StringVar(&symbol, "symbol", "", "Symbol for single-symbol strategies")
	cmd.Flags().StringVar(&start, "start", "20200101", "Start date (yyyymmdd)")
	cmd.Flags().StringVar(&end, "end", "", "End date (yyyymmdd, empty = open)")
	cmd.Flags().Float64Var(&cash, "cash", runner.DefaultInitialCash, "Initial cash")
	cmd.Flags().StringVar(&stratName, "strategy", "momentum", "Strategy: noop|momentum|sma-cross|equal-weight")
	cmd.Flags().BoolVar(&logTrades, "log-trades", false, "Echo every fill to stdout")

	return cmd
}

func runBacktest(cfg *config.Config) error {
	store, err := data.Open(cfg.Data.DB, cfg.Data.Table)
	if err != nil {
		return err
	}
	defer store.Close()

	startDate, endDate, err := parseWindow(cfg.Run.Start, cfg.Run.End)
	if err != nil {
		return err
	}

	strat, err := strategyByName(cfg, store)
	if err != nil {
		return err
	}

	var bars []backtest.Bar
	if cfg.Strategy.Name == "equal-weight" {
		bars, err = store.Calendar(cfg.Strategy.Symbols, startDate, endDate)
	} else {
		bars, err = store.Bars(cfg.Run.Symbol, startDate, endDate)
	}
	if err != nil {
		return err
	}
	if len(bars) == 0 {
		return fmt.Errorf("no bars in range %s..%s", cfg.Run.Start, cfg.Run.End)
	}

	res, err := runner.Run(bars, strat, runner.Options{
		InitialCash: cfg.Run.Cash,
		Symbol:      cfg.Run.Symbol,
		Costs:       cfg.Costs,
		TradeLog:    cfg.Run.TradeLog,
	})
	if err != nil {
		return err
	}

	printSummary(bars, res)
	return persist(cfg, bars, res)
}

func strategyByName(cfg *config.Config, store *data.Store) (backtest.Strategy, error) {
	switch cfg.Strategy.Name {
	case "noop":
		return strategies.Noop{}, nil
	case "momentum":
		return strategies.NewPriorDayMomentum(cfg.Run.Symbol, cfg.Strategy.Up, cfg.Strategy.Down), nil
	case "sma-cross":
		return strategies.NewSMACross(cfg.Run.Symbol, cfg.Strategy.Fast, cfg.Strategy.Slow)
	case "equal-weight":
		return strategies.NewEqualWeight(store, cfg.Strategy.Symbols, cfg.Strategy.Years)
	}
	return nil, fmt.Errorf("unknown strategy: %q", cfg.Strategy.Name)
}

func parseWindow(start, end string) (time.Time, time.Time, error) {
	startDate, err := time.Parse(cliDateLayout, start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("bad start date %q: %w", start, err)
	}
	var endDate time.Time
	if end != "" {
		endDate, err = time.Parse(cliDateLayout, end)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("bad end date %q: %w", end, err)
		}
	}
	return startDate, endDate, nil
}

func printSummary(bars []backtest.Bar, res *runner.Result) {
	fmt.Printf("Bars: %d  Final Equity: %.2f  Return: %.2f%%  Total Fees: %.2f\n",
		len(bars), res.FinalEquity, (res.FinalEquity/res.InitialCash-1)*100, res.TotalFees)
	if len(res.AnnualReturns) > 0 {
		fmt.Println("Annual Returns:")
		for _, yr := range res.AnnualReturns {
			fmt.Printf("  %d: %.2f%%\n", yr.Year, yr.Return*100)
		}
	}
	fmt.Printf("Max Drawdown: %.2f%%  Period: %s -> %s\n",
		res.MaxDrawdown*100,
		res.DrawdownPeak.Format(cliDateLayout),
		res.DrawdownTrough.Format(cliDateLayout))
	fmt.Printf("CAGR: %.2f%%  AnnVol: %.2f%%  Sharpe: %.2f  WinRate: %.2f%%\n",
		res.CAGR*100, res.Volatility*100, res.Sharpe, res.WinRate*100)
}

func persist(cfg *config.Config, bars []backtest.Bar, res *runner.Result) error {
	if cfg.Journal.EquityCSV != "" {
		if err := journal.WriteEquityCSV(res.Curve, cfg.Journal.EquityCSV); err != nil {
			return err
		}
		fmt.Println("Saved:", cfg.Journal.EquityCSV)
	}
	if cfg.Journal.TradesCSV != "" {
		if err := journal.WriteTradesCSV(res.Trades, cfg.Journal.TradesCSV); err != nil {
			return err
		}
		fmt.Println("Saved:", cfg.Journal.TradesCSV)
	}
	if cfg.Journal.DB == "" {
		return nil
	}

	j, err := journal.NewSQLite(cfg.Journal.DB)
	if err != nil {
		return err
	}
	defer j.Close()

	run := journal.Run{
		RunID:       id.New(),
		Created:     time.Now().UTC(),
		Strategy:    cfg.Strategy.Name,
		Symbol:      cfg.Run.Symbol,
		Start:       bars[0].Date,
		End:         bars[len(bars)-1].Date,
		Bars:        len(bars),
		InitialCash: res.InitialCash,
		FinalEquity: res.FinalEquity,
		CAGR:        res.CAGR,
		MaxDrawdown: res.MaxDrawdown,
		Volatility:  res.Volatility,
		Sharpe:      res.Sharpe,
		WinRate:     res.WinRate,
		TotalFees:   res.TotalFees,
	}
	if err := j.RecordRun(run); err != nil {
		return err
	}
	for _, t := range res.Trades {
		if err := j.RecordTrade(run.RunID, t); err != nil {
			return err
		}
	}
	for _, p := range res.Curve {
		if err := j.RecordEquity(run.RunID, p); err != nil {
			return err
		}
	}
	fmt.Println("Journaled run:", run.RunID)
	return nil
}

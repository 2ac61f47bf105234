package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"shopledger/internal/backend"
	"shopledger/internal/catalog"
	"shopledger/internal/config"
	"shopledger/internal/core"
	"shopledger/internal/export"
	"shopledger/internal/log"
)

// app carries what the commands share. openStore and now are replaced in
// tests.
type app struct {
	logger    *log.Logger
	cfg       *config.Config
	now       func() time.Time
	openStore func(ctx context.Context) (backend.Backend, func() error, error)
}

func newApp(logger *log.Logger) *app {
	a := &app{logger: logger, now: time.Now}
	a.openStore = a.backendFromConfig
	return a
}

func (a *app) config() (*config.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a.cfg = cfg
	return cfg, nil
}

func (a *app) backendFromConfig(ctx context.Context) (backend.Backend, func() error, error) {
	cfg, err := a.config()
	if err != nil {
		return nil, nil, err
	}
	bc, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, nil, err
	}
	res, err := backend.NewFactory(a.logger).CreateBackend(ctx, bc)
	if err != nil {
		return nil, nil, err
	}
	cleanup := res.Cleanup
	if cleanup == nil {
		cleanup = func() error { return nil }
	}
	return res.Backend, cleanup, nil
}

// currentPeriod is the period owning today in the configured time zone.
func (a *app) currentPeriod() string {
	loc := time.Local
	if cfg, err := a.config(); err == nil {
		loc = cfg.Location()
	}
	return core.PeriodKey(a.now().In(loc))
}

// withStore opens the backend for the duration of fn.
func (a *app) withStore(ctx context.Context, fn func(backend.Backend) error) error {
	store, cleanup, err := a.openStore(ctx)
	if err != nil {
		return fmt.Errorf("open backend: %w", err)
	}
	defer func() {
		if err := cleanup(); err != nil {
			a.logger.Warn("Backend cleanup failed", log.FieldError, err)
		}
	}()
	return fn(store)
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "shopledgerctl",
		Short:         "Inspect and maintain the shop ledger",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newTotalsCmd(a),
		newPeriodsCmd(a),
		newExportCmd(a),
		newImportCmd(a),
		newCatalogCmd(a),
	)
	return root
}

func newTotalsCmd(a *app) *cobra.Command {
	var period string
	cmd := &cobra.Command{
		Use:   "totals",
		Short: "Print the month total and the per-day table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, err := resolvePeriod(a, period)
			if err != nil {
				return err
			}
			return a.withStore(cmd.Context(), func(store backend.Backend) error {
				rows, err := store.ReadPeriod(cmd.Context(), key)
				if err != nil {
					return err
				}
				return printTotals(cmd.OutOrStdout(), key, rows)
			})
		},
	}
	cmd.Flags().StringVar(&period, "period", "", "period key such as Jan_2026 (default: current month)")
	return cmd
}

func printTotals(out io.Writer, period string, rows []core.Transaction) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "Date\tจำนวน/ชิ้น\tรวม/บาท\t\n")
	for _, d := range core.GroupedByDate(rows) {
		fmt.Fprintf(tw, "%s\t%d\t%s\t\n", d.Date, d.Quantity, d.Total)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(out, "%s: %d rows, total %s บาท\n", period, len(rows), core.TotalForPeriod(rows))
	return err
}

func newPeriodsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "periods",
		Short: "List the periods present in the backend, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withStore(cmd.Context(), func(store backend.Backend) error {
				keys, err := store.ListPeriods(cmd.Context())
				if err != nil {
					return err
				}
				for _, k := range core.SortPeriodKeys(keys) {
					fmt.Fprintln(cmd.OutOrStdout(), k)
				}
				return nil
			})
		},
	}
}

func newExportCmd(a *app) *cobra.Command {
	var period, out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a period to an XLSX workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			key, err := resolvePeriod(a, period)
			if err != nil {
				return err
			}
			if out == "" {
				out = "shopledger_" + key + ".xlsx"
			}
			return a.withStore(cmd.Context(), func(store backend.Backend) error {
				rows, err := store.ReadPeriod(cmd.Context(), key)
				if err != nil {
					return err
				}
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				if err := export.WriteXLSX(f, key, rows); err != nil {
					f.Close()
					return err
				}
				if err := f.Close(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "wrote %d rows of %s to %s\n", len(rows), key, out)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&period, "period", "", "period key such as Jan_2026 (default: current month)")
	cmd.Flags().StringVar(&out, "out", "", "output file (default: shopledger_<period>.xlsx)")
	return cmd
}

func newImportCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file.xlsx>",
		Short: "Replace a period with the rows of an exported workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			key, rows, err := export.ReadXLSX(f)
			if err != nil {
				return err
			}
			if _, err := core.ParsePeriodKey(key); err != nil {
				return fmt.Errorf("workbook sheet %q is not a period", key)
			}
			for i := range rows {
				if err := rows[i].ValidateIn(key); err != nil {
					return core.AtRow(err, i)
				}
				if rows[i], err = rows[i].Recalculate(); err != nil {
					return core.AtRow(err, i)
				}
			}
			return a.withStore(cmd.Context(), func(store backend.Backend) error {
				if err := store.WritePeriod(cmd.Context(), key, rows); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "imported %d rows into %s\n", len(rows), key)
				return nil
			})
		},
	}
	return cmd
}

func newCatalogCmd(a *app) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "List the menu entries and their default prices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if file == "" {
				if cfg, err := a.config(); err == nil {
					file = cfg.CatalogFile
				}
			}
			cat := catalog.Starter()
			if file != "" {
				var err error
				if cat, err = catalog.Load(file); err != nil {
					return err
				}
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, e := range cat.Entries() {
				fmt.Fprintf(tw, "%s\t%s\n", e.Name, e.Price)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "catalog file (.csv, .tsv, .xlsx, .yaml); default CATALOG_FILE or the built-in menu")
	return cmd
}

func resolvePeriod(a *app, period string) (string, error) {
	if period == "" {
		return a.currentPeriod(), nil
	}
	d, err := core.ParsePeriodKey(period)
	if err != nil {
		return "", err
	}
	return d.Period(), nil
}

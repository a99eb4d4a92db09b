package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/username/holiday-api/internal/api"
	"github.com/username/holiday-api/internal/calendar"
	"github.com/username/holiday-api/internal/config"
	"github.com/username/holiday-api/internal/resolver"
	"github.com/username/holiday-api/internal/source"
	"github.com/username/holiday-api/pkg/dateutil"
)

const loadTimeout = 2 * time.Minute

// parseRange reads --start/--end, defaulting to the current year
func parseRange(start, end string, loc *time.Location) (time.Time, time.Time, error) {
	today := dateutil.Today(loc)
	from, to := dateutil.StartOfYear(today.Year()), dateutil.EndOfYear(today.Year())

	var err error
	if start != "" {
		if from, err = dateutil.ParseDate(start); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --start: %w", err)
		}
	}
	if end != "" {
		if to, err = dateutil.ParseDate(end); err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --end: %w", err)
		}
	}
	return from, to, nil
}

func loadForCLI() (*components, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	c, err := initializeComponents(cfg)
	if err != nil {
		return nil, err
	}
	if err := loadSnapshot(c, loadTimeout); err != nil {
		c.Close()
		return nil, err
	}
	return c, nil
}

func rangeCmd() *cobra.Command {
	var country, start, end, audience, typ, lang string

	cmd := &cobra.Command{
		Use:   "range",
		Short: "List holidays of a country in a date range",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadForCLI()
			if err != nil {
				return err
			}
			defer c.Close()

			loc, _ := c.cfg.Calendar.GetLocation()
			from, to, err := parseRange(start, end, loc)
			if err != nil {
				return err
			}

			views, err := c.resolver.Range(resolver.Query{
				Country:  country,
				Start:    from,
				End:      to,
				Audience: audience,
				Type:     typ,
				Language: lang,
			})
			if err != nil {
				return err
			}

			fmt.Printf("\n📅 %s holidays %s .. %s\n", strings.ToUpper(country),
				dateutil.FormatDate(from), dateutil.FormatDate(to))
			fmt.Println("═══════════════════════════════════════════════════════")
			if len(views) == 0 {
				fmt.Println("  (none)")
				return nil
			}
			for _, v := range views {
				scope := "all"
				if len(v.Audiences) > 0 {
					scope = strings.Join(v.Audiences, ",")
				}
				fmt.Printf("  %s | %-40s | %-20s | %s\n", v.Date, v.Name, v.TypeName, scope)
			}
			fmt.Printf("\nTotal: %d\n", len(views))
			return nil
		},
	}

	cmd.Flags().StringVar(&country, "country", "TR", "ISO 3166-1 alpha-2 country code")
	cmd.Flags().StringVar(&start, "start", "", "Start date YYYY-MM-DD (default: Jan 1 of this year)")
	cmd.Flags().StringVar(&end, "end", "", "End date YYYY-MM-DD (default: Dec 31 of this year)")
	cmd.Flags().StringVar(&audience, "audience", "", "Audience code")
	cmd.Flags().StringVar(&typ, "type", "", "Holiday type code")
	cmd.Flags().StringVar(&lang, "language", "en", "Output language")

	return cmd
}

func workdaysCmd() *cobra.Command {
	var country, start, end, audience string
	var excludeEnd, perDay bool

	cmd := &cobra.Command{
		Use:   "workdays",
		Short: "Count working days of a country in a date range",
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := loadForCLI()
			if err != nil {
				return err
			}
			defer c.Close()

			loc, _ := c.cfg.Calendar.GetLocation()
			from, to, err := parseRange(start, end, loc)
			if err != nil {
				return err
			}

			summary, err := c.calendar.WorkingDays(calendar.Request{
				Country:        country,
				Start:          from,
				End:            to,
				Audience:       audience,
				IncludeEndDate: !excludeEnd,
				WithDays:       perDay,
			})
			if err != nil {
				return err
			}

			fmt.Printf("\n📊 %s %s .. %s\n", strings.ToUpper(country),
				dateutil.FormatDate(from), dateutil.FormatDate(to))
			fmt.Println("═══════════════════════════════════════════════════════")
			fmt.Printf("  Total days:     %d\n", summary.TotalDays)
			fmt.Printf("  Working days:   %d\n", summary.WorkingDays)
			fmt.Printf("  Holiday days:   %d\n", summary.HolidayDays)
			fmt.Printf("  Weekend days:   %d\n", summary.WeekendDays)

			if perDay && len(summary.Days) > 0 {
				fmt.Println("\n📅 Per-day breakdown:")
				fmt.Println("  Date         | Day       | Type     | Holidays")
				fmt.Println("---------------+-----------+----------+----------------")
				for _, d := range summary.Days {
					names := make([]string, 0, len(d.Holidays))
					for _, h := range d.Holidays {
						names = append(names, h.Name)
					}
					fmt.Printf("  %s | %-9s | %-8s | %s\n",
						dateutil.FormatDate(d.Date), d.Date.Weekday(), d.Type, strings.Join(names, ", "))
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&country, "country", "TR", "ISO 3166-1 alpha-2 country code")
	cmd.Flags().StringVar(&start, "start", "", "Start date YYYY-MM-DD (default: Jan 1 of this year)")
	cmd.Flags().StringVar(&end, "end", "", "End date YYYY-MM-DD (default: Dec 31 of this year)")
	cmd.Flags().StringVar(&audience, "audience", "", "Audience code")
	cmd.Flags().BoolVar(&excludeEnd, "exclude-end", false, "Do not count the end date")
	cmd.Flags().BoolVar(&perDay, "days", false, "Print a per-day breakdown")

	return cmd
}

func importCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load the configured sources and store the dataset in SQLite",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if dbPath == "" {
				dbPath = cfg.Data.SQLitePath
			}
			for _, sc := range cfg.Data.Sources {
				if sc.Type == config.SourceSQLite && dbPath == cfg.Data.SQLitePath {
					return fmt.Errorf("refusing to import into %s: it is also a configured source", dbPath)
				}
			}

			c, err := initializeComponents(cfg)
			if err != nil {
				return err
			}
			defer c.Close()

			ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
			defer cancel()

			ds, err := c.source.Load(ctx)
			if err != nil {
				return fmt.Errorf("failed to load dataset: %w", err)
			}

			db, err := source.OpenSQLite(dbPath)
			if err != nil {
				return err
			}
			defer db.Close()

			// Save refuses datasets that would not load back
			if err := source.NewSQLiteSource(db, logger).Save(ctx, ds); err != nil {
				return err
			}

			logger.Info("Dataset imported",
				zap.String("source", c.source.Name()),
				zap.String("database", dbPath),
				zap.Int("holidays", len(ds.Holidays)))
			fmt.Printf("✅ Imported %d holidays, %d countries, %d audiences into %s\n",
				len(ds.Holidays), len(ds.Countries), len(ds.Audiences), dbPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "Target database (default: data.sqlite_path)")

	return cmd
}

func hashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password",
		Short: "Generate an Argon2id hash for admin.password_hash",
		Long:  "Reads a password from the terminal and prints its Argon2id hash for use in the config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(os.Stderr, "Enter password: ")
			password, err := term.ReadPassword(int(syscall.Stdin))
			fmt.Fprintln(os.Stderr)
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}

			fmt.Fprint(os.Stderr, "Confirm password: ")
			confirm, err := term.ReadPassword(int(syscall.Stdin))
			fmt.Fprintln(os.Stderr)
			if err != nil {
				return fmt.Errorf("failed to read password: %w", err)
			}

			if string(password) != string(confirm) {
				return fmt.Errorf("passwords do not match")
			}
			if len(password) < 8 {
				return fmt.Errorf("password must be at least 8 characters")
			}

			hash, err := api.HashPassword(string(password))
			if err != nil {
				return err
			}

			fmt.Println(hash)
			return nil
		},
	}
}

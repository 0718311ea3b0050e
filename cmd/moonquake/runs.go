package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/banshee-data/moonquake.report/internal/db"
	"github.com/banshee-data/moonquake.report/internal/export"
)

// storeFlags parses the flags shared by the run store subcommands.
func storeFlags(name string, args []string, extra func(*flag.FlagSet)) (*flag.FlagSet, string, error) {
	flags := flag.NewFlagSet(name, flag.ContinueOnError)
	dbPath := flags.String("db", "", "SQLite run store (required)")
	if extra != nil {
		extra(flags)
	}
	if err := flags.Parse(args); err != nil {
		return nil, "", err
	}
	if *dbPath == "" {
		flags.Usage()
		return nil, "", errors.New("-db is required")
	}
	return flags, *dbPath, nil
}

func runRuns(args []string, stdout io.Writer) error {
	_, dbPath, err := storeFlags("runs", args, nil)
	if err != nil {
		return err
	}
	store, err := db.NewDB(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.Runs()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(stdout, "no runs recorded")
		return nil
	}

	fmt.Fprintf(stdout, "%-36s  %-20s  %-24s  %-6s  %10s  %-13s  %8s  %5s\n",
		"RUN ID", "CREATED", "SOURCE", "FORMAT", "THRESHOLD", "BAND (Hz)", "SAMPLES", "RUNS")
	for _, r := range runs {
		band := "-"
		if r.MinFreq != 0 || r.MaxFreq != 0 {
			band = fmt.Sprintf("%g-%g", r.MinFreq, r.MaxFreq)
		}
		fmt.Fprintf(stdout, "%-36s  %-20s  %-24s  %-6s  %10g  %-13s  %8d  %5d\n",
			r.RunID, r.CreatedAt.UTC().Format(time.RFC3339), r.SourceID, r.InputFormat,
			r.Threshold, band, r.SampleCount, r.RunCount)
	}
	return nil
}

func runEvents(args []string, stdout io.Writer) error {
	var out string
	flags, dbPath, err := storeFlags("events", args, func(fs *flag.FlagSet) {
		fs.StringVar(&out, "out", "", "Write to this file instead of stdout (.csv or .parquet)")
	})
	if err != nil {
		return err
	}
	if flags.NArg() != 1 {
		return errors.New("events needs exactly one run id")
	}

	store, err := db.NewDB(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	set, err := store.Events(flags.Arg(0))
	if err != nil {
		return err
	}
	if out == "" {
		return export.WriteCSV(stdout, set)
	}
	if export.KindFromPath(out) == export.KindSQLite {
		return fmt.Errorf("cannot copy a run into another store: %s", out)
	}
	return export.Export(set, out)
}

func runDelete(args []string, stdout io.Writer) error {
	flags, dbPath, err := storeFlags("delete", args, nil)
	if err != nil {
		return err
	}
	if flags.NArg() < 1 {
		return errors.New("delete needs at least one run id")
	}

	store, err := db.NewDB(dbPath)
	if err != nil {
		return err
	}
	defer store.Close()

	for _, id := range flags.Args() {
		if err := store.DeleteRun(id); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "deleted %s\n", id)
	}
	return nil
}

func runMigrate(args []string, stdout io.Writer) error {
	flags, dbPath, err := storeFlags("migrate", args, nil)
	if err != nil {
		return err
	}
	return db.RunMigrateCommand(flags.Args(), dbPath, stdout)
}

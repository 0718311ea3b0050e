// Command moonquake scans lunar seismometer recordings for candidate
// moonquakes and writes the flagged samples, plots and a run history.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/banshee-data/moonquake.report/internal/monitoring"
	"github.com/banshee-data/moonquake.report/internal/version"
)

var (
	debug = flag.Bool("debug", false, "Enable debug logging")
	quiet = flag.Bool("quiet", false, "Suppress diagnostic logging")
)

func main() {
	flag.Usage = func() { printUsage(os.Stderr) }
	flag.Parse()

	if err := setupLogging(*debug, *quiet); err != nil {
		log.Fatalf("failed to set up logging: %v", err)
	}

	if err := run(flag.Args(), os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatalf("moonquake: %v", err)
	}
}

// run dispatches one subcommand. A bare input path is shorthand for
// "detect <path>".
func run(args []string, stdout io.Writer) error {
	if len(args) < 1 {
		printUsage(stdout)
		return errors.New("no command given")
	}

	command, rest := args[0], args[1:]
	switch command {
	case "detect":
		return runDetect(rest, stdout)
	case "runs":
		return runRuns(rest, stdout)
	case "events":
		return runEvents(rest, stdout)
	case "delete":
		return runDelete(rest, stdout)
	case "migrate":
		return runMigrate(rest, stdout)
	case "version":
		fmt.Fprintf(stdout, "moonquake %s\n", version.String())
		return nil
	case "help":
		printUsage(stdout)
		return nil
	}

	if _, err := os.Stat(command); err == nil {
		return runDetect(args, stdout)
	}
	printUsage(stdout)
	return fmt.Errorf("unknown command: %s", command)
}

func setupLogging(debug, quiet bool) error {
	switch {
	case quiet:
		monitoring.SetLogger(nil)
	case debug:
		l, err := zap.NewDevelopment()
		if err != nil {
			return err
		}
		monitoring.UseZap(l)
	}
	return nil
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `moonquake - threshold detection for lunar seismic recordings

Usage: moonquake [-debug|-quiet] <command> [options]

Commands:
  detect     Filter a waveform and flag samples above the threshold
  runs       List runs recorded in a SQLite store
  events     Write the events of a recorded run as CSV
  delete     Remove a recorded run and its events
  migrate    Manage the SQLite store schema
  version    Show moonquake version
  help       Show this help message

Detect Flags:
  -config <file>       Detection settings JSON (default config/detection.defaults.json when present)
  -env <file>          .env file with MOONQUAKE_* overrides (default .env)
  -format <name>       Input format: csv or mseed (default from extension)
  -threshold <m/s>     Velocity threshold
  -min-freq <Hz>       Lower band edge
  -max-freq <Hz>       Upper band edge
  -no-filter           Detect on the unfiltered waveform
  -trace <sel>         miniSEED trace: first, an index, or NET.STA.LOC.CHA
  -out-dir <dir>       Directory for every written file (default .)
  -out <file>          Events file: .csv, .parquet, .db or .sqlite
  -png, -html          Also write a plot and an interactive report
  -db <file>           Record the run in a SQLite store

Examples:
  # Detect with the default band and threshold
  moonquake detect xa.s12.00.mhz.1970-01-19HR00_evid00002.csv

  # Pick a trace from a miniSEED volume and keep a run history
  moonquake detect -trace XA.S12.00.MHZ -db runs.db -png s12.mseed

  # List recorded runs
  moonquake runs -db runs.db`)
}

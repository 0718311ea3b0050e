package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/banshee-data/moonquake.report/internal/config"
	"github.com/banshee-data/moonquake.report/internal/db"
	"github.com/banshee-data/moonquake.report/internal/export"
	"github.com/banshee-data/moonquake.report/internal/monitoring"
	"github.com/banshee-data/moonquake.report/internal/pipeline"
	"github.com/banshee-data/moonquake.report/internal/report"
	"github.com/banshee-data/moonquake.report/internal/security"
	"github.com/banshee-data/moonquake.report/internal/source"
)

// detectFlags holds the detect subcommand's options. Detection settings
// are pointers into the flag set and only override the file and
// environment when given on the command line.
type detectFlags struct {
	configPath string
	envPath    string
	format     string
	outDir     string
	out        string
	dbPath     string
	png        bool
	html       bool

	threshold   *float64
	sensitivity *float64
	minFreq     *float64
	maxFreq     *float64
	corners     *int
	noFilter    *bool
	detectOn    *string
	trace       *string
	clusterGap  *int
}

func newDetectFlagSet(o *detectFlags) *flag.FlagSet {
	flags := flag.NewFlagSet("detect", flag.ContinueOnError)
	flags.StringVar(&o.configPath, "config", "", "Detection settings JSON file")
	flags.StringVar(&o.envPath, "env", ".env", ".env file with MOONQUAKE_* overrides")
	flags.StringVar(&o.format, "format", "", "Input format: csv or mseed (default from extension)")
	flags.StringVar(&o.outDir, "out-dir", ".", "Directory for exported events and reports")
	flags.StringVar(&o.out, "out", "", "Events file: .csv, .parquet, .db or .sqlite (default <source>_events.csv)")
	flags.StringVar(&o.dbPath, "db", "", "Also record the run in this SQLite store")
	flags.BoolVar(&o.png, "png", false, "Write <source>.png")
	flags.BoolVar(&o.html, "html", false, "Write <source>.html")

	o.threshold = flags.Float64("threshold", 0, "Velocity threshold in m/s")
	o.sensitivity = flags.Float64("sensitivity", 0, "Detection sensitivity (recorded only)")
	o.minFreq = flags.Float64("min-freq", 0, "Lower band edge in Hz")
	o.maxFreq = flags.Float64("max-freq", 0, "Upper band edge in Hz")
	o.corners = flags.Int("corners", 0, "Filter order per band edge")
	o.noFilter = flags.Bool("no-filter", false, "Detect on the unfiltered waveform")
	o.detectOn = flags.String("detect-on", "", "Waveform to scan: auto, raw or filtered")
	o.trace = flags.String("trace", "", "miniSEED trace: first, an index, or NET.STA.LOC.CHA")
	o.clusterGap = flags.Int("cluster-gap", 0, "Samples between events that still join one run")
	return flags
}

func runDetect(args []string, stdout io.Writer) error {
	var o detectFlags
	flags := newDetectFlagSet(&o)
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 1 {
		flags.Usage()
		return errors.New("detect needs exactly one input file")
	}
	input := flags.Arg(0)

	settings, err := loadSettings(o.configPath, o.envPath)
	if err != nil {
		return err
	}
	settings.Merge(flagOverrides(flags, &o))
	cfg, err := settings.DetectionConfig()
	if err != nil {
		return err
	}

	res, err := runPipeline(input, o.format, cfg)
	if err != nil {
		return err
	}
	summary := res.Summary()
	fmt.Fprintln(stdout, summary)

	stem := outputStem(res)
	eventsName := o.out
	if eventsName == "" {
		eventsName = stem + "_events.csv"
	}
	eventsPath, err := artifactPath(o.outDir, eventsName)
	if err != nil {
		return err
	}

	rec := runRecord(res, summary)
	rec.RunID = uuid.NewString()
	if err := (export.Exporter{Run: rec}).Export(res.Events, eventsPath); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "events: %s\n", eventsPath)

	if o.png {
		p, err := artifactPath(o.outDir, stem+".png")
		if err != nil {
			return err
		}
		if err := report.WritePNG(p, res.Raw, res.Filtered, res.Events); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "plot: %s\n", p)
	}
	if o.html {
		p, err := artifactPath(o.outDir, stem+".html")
		if err != nil {
			return err
		}
		if err := writeHTML(p, res); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "report: %s\n", p)
	}

	// an SQLite events file already holds this run
	if o.dbPath != "" && filepath.Clean(o.dbPath) != filepath.Clean(eventsPath) {
		store, err := db.NewDB(o.dbPath)
		if err != nil {
			return err
		}
		defer store.Close()
		id, err := store.RecordRun(rec, res.Events)
		if err != nil {
			return err
		}
		fmt.Fprintf(stdout, "run: %s\n", id)
	}
	return nil
}

// loadSettings layers the defaults file, the -config file, the .env file
// and the process environment, later sources winning.
func loadSettings(configPath, envPath string) (*config.DetectionFile, error) {
	settings, err := config.LoadDetectionConfig(config.DefaultConfigPath)
	if errors.Is(err, fs.ErrNotExist) {
		settings, err = config.EmptyDetectionFile(), nil
	}
	if err != nil {
		return nil, err
	}
	if configPath != "" {
		file, err := config.LoadDetectionConfig(configPath)
		if err != nil {
			return nil, err
		}
		settings.Merge(file)
	}

	dotenv, err := config.EnvFromFile(envPath)
	if err != nil {
		return nil, err
	}
	if err := settings.ApplyEnv(config.LookupEnv(dotenv)); err != nil {
		return nil, err
	}
	return settings, nil
}

// flagOverrides collects the detection flags that were set explicitly.
func flagOverrides(flags *flag.FlagSet, o *detectFlags) *config.DetectionFile {
	set := config.EmptyDetectionFile()
	flags.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "threshold":
			set.Threshold = o.threshold
		case "sensitivity":
			set.Sensitivity = o.sensitivity
		case "min-freq":
			set.MinFreq = o.minFreq
		case "max-freq":
			set.MaxFreq = o.maxFreq
		case "corners":
			set.Corners = o.corners
		case "no-filter":
			enabled := !*o.noFilter
			set.Filter = &enabled
		case "detect-on":
			set.DetectOn = o.detectOn
		case "trace":
			set.Trace = o.trace
		case "cluster-gap":
			set.ClusterGap = o.clusterGap
		}
	})
	return set
}

func runPipeline(input, format string, cfg pipeline.DetectionConfig) (pipeline.Result, error) {
	if format == "" {
		return pipeline.RunFile(input, cfg)
	}
	f, err := source.ParseFormat(format)
	if err != nil {
		return pipeline.Result{}, err
	}
	in, err := os.Open(filepath.Clean(input))
	if err != nil {
		return pipeline.Result{}, fmt.Errorf("failed to open input: %w", err)
	}
	defer in.Close()

	if cfg.Label == "" {
		cfg.Label = filepath.Base(input)
	}
	return pipeline.Run(in, f, cfg)
}

// outputStem names written files after the scanned source. Tabular input
// is labelled with its file name, whose extension is dropped.
func outputStem(res pipeline.Result) string {
	id := res.Raw.ID()
	if res.Format == source.FormatCSV {
		id = strings.TrimSuffix(id, filepath.Ext(id))
	}
	return security.SanitizeFilename(id)
}

// artifactPath places name under outDir and refuses paths that resolve
// outside it.
func artifactPath(outDir, name string) (string, error) {
	p := name
	if !filepath.IsAbs(p) {
		p = filepath.Join(outDir, name)
	}
	if err := security.ValidateOutputPath(p, outDir); err != nil {
		return "", err
	}
	return p, nil
}

func runRecord(res pipeline.Result, s pipeline.Summary) db.RunRecord {
	rec := db.RunRecord{
		SourceID:    s.SourceID,
		InputFormat: res.Format.String(),
		Threshold:   res.Config.Threshold,
		Sensitivity: res.Config.Sensitivity,
		DetectOn:    "raw",
		SampleCount: s.Samples,
		SampleRate:  s.SampleRate,
		RunCount:    s.Runs,
	}
	if res.Filtered != nil {
		rec.MinFreq, rec.MaxFreq = res.Config.MinFreq, res.Config.MaxFreq
		if res.Scanned() == res.Filtered {
			rec.DetectOn = "filtered"
		}
	}
	return rec
}

func writeHTML(path string, res pipeline.Result) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()
	if err := report.WriteHTML(f, res.Raw, res.Filtered, res.Events); err != nil {
		return err
	}
	monitoring.Logf("wrote %s", path)
	return nil
}

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/alecthomas/kingpin"

	"certgen-server-go/config"
	"certgen-server-go/convert"
	"certgen-server-go/fields"
	"certgen-server-go/generator"
	"certgen-server-go/logger"
	"certgen-server-go/metrics"
	"certgen-server-go/models"
	"certgen-server-go/render"
	"certgen-server-go/sheet"
)

var previewColumns = []string{
	models.KeyNameZh, models.KeyNameEn, models.KeyGenderEn, models.KeyStudentID,
	models.KeyDOBEn, models.KeyAdmitYear, models.KeyAdmitMonthEn, models.KeyGradeEn,
}

func main() {
	log.SetOutput(os.Stderr)
	log.SetFlags(0)

	configPath := kingpin.Flag("config", "Path to a YAML config file").Envar("CERTGEN_CONFIG").String()
	verbose := kingpin.Flag("verbose", "Log debug output").Short('v').Bool()

	cmdPreview := kingpin.Command("preview", "Load a spreadsheet and show the derived records")
	previewData := cmdPreview.Flag("data", "Spreadsheet (.xlsx) or delimited text (.csv, .tsv, .txt)").Required().ExistingFile()
	previewExport := cmdPreview.Flag("export", "Write the records as an editable xlsx grid").String()

	cmdGenerate := kingpin.Command("generate", "Render one document per record")
	genTemplate := cmdGenerate.Flag("template", "Document template (.docx or .xlsx)").Required().ExistingFile()
	genData := cmdGenerate.Flag("data", "Spreadsheet or exported grid").Required().ExistingFile()
	genOut := cmdGenerate.Flag("out", "Output directory").String()
	genPDF := cmdGenerate.Flag("pdf", "Convert every document to PDF").Bool()
	genMerge := cmdGenerate.Flag("merge", "Merge all PDFs into one file (implies --pdf)").Bool()
	genZip := cmdGenerate.Flag("zip", "Package the output into a zip archive").Bool()
	genConcurrency := cmdGenerate.Flag("concurrency", "Parallel PDF conversions (default from config)").Int()
	genTimeout := cmdGenerate.Flag("timeout", "Timeout of one PDF conversion (default from config)").Duration()

	cmd := kingpin.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	level := "warn"
	if *verbose {
		level = "debug"
	}
	if err := logger.InitializeLogger(level, true); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	switch cmd {
	case cmdPreview.FullCommand():
		records := load(*previewData)
		printRecords(records)
		if *previewExport != "" {
			export(*previewExport, records)
		}

	case cmdGenerate.FullCommand():
		err := cfg.Override(config.Config{
			Output:  config.OutputConfig{Dir: *genOut},
			Convert: config.ConvertConfig{Concurrency: *genConcurrency, Timeout: *genTimeout},
		})
		if err != nil {
			log.Fatalf("Invalid flags: %v", err)
		}
		generate(cfg, *genTemplate, load(*genData), generator.Options{
			OutputDir:          cfg.Output.Dir,
			PDF:                *genPDF,
			Merge:              *genMerge,
			Archive:            *genZip,
			MergedName:         cfg.Output.MergedName,
			ArchiveName:        cfg.Output.ArchiveName,
			Concurrency:        cfg.Convert.Concurrency,
			ExpectedConversion: cfg.Convert.ExpectedDuration,
		})
	}
}

func load(path string) []models.Record {
	table, err := sheet.ReadFile(path)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", path, err)
	}
	res, err := fields.LoadRecords(table, time.Now())
	if err != nil {
		log.Fatalf("Failed to load records: %v", err)
	}
	metrics.BatchesLoaded.WithLabelValues("file").Inc()
	if res.Skipped > 0 {
		log.Printf("Skipped %d rows without a name", res.Skipped)
	}
	log.Printf("Loaded %d records from %s", len(res.Records), path)
	return res.Records
}

func printRecords(records []models.Record) {
	tw := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\t"+strings.Join(previewColumns, "\t"))
	for i := range records {
		values := make([]string, len(previewColumns))
		for j, key := range previewColumns {
			values[j] = records[i].Get(key)
		}
		fmt.Fprintf(tw, "%d\t%s\n", i, strings.Join(values, "\t"))
	}
	tw.Flush()
}

func export(path string, records []models.Record) {
	data, err := sheet.WriteWorkbook(models.RecordKeys(), records)
	if err != nil {
		log.Fatalf("Failed to export grid: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		log.Fatalf("Failed to write %s: %v", path, err)
	}
	log.Printf("Exported grid to %s", path)
}

func generate(cfg *config.Config, templatePath string, records []models.Record, opts generator.Options) {
	renderer, err := render.Open(templatePath)
	if err != nil {
		log.Fatalf("Failed to load template: %v", err)
	}

	var converter convert.Converter
	var merger convert.Merger
	if opts.PDF || opts.Merge {
		sc := convert.NewSofficeConverter(cfg.Convert.Command, cfg.Convert.Timeout)
		sc.Isolated = opts.Concurrency > 1
		converter = sc
		merger = convert.NewPDFMerger()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	res, err := generator.New(renderer, converter, merger).Run(ctx, records, opts, func(p generator.Progress) {
		fmt.Fprintf(os.Stderr, "\r[%3.0f%%] %-60s", p.Fraction*100, p.Message)
		if p.Stage == generator.StageDone {
			fmt.Fprintln(os.Stderr)
		}
	})
	if err != nil {
		fmt.Fprintln(os.Stderr)
		log.Fatalf("Generation failed: %v", err)
	}

	fmt.Printf("%d documents in %s\n", len(res.Documents), res.OutputDir)
	if len(res.PDFs) > 0 {
		fmt.Printf("%d PDFs\n", len(res.PDFs))
	}
	if res.Merged != "" {
		fmt.Printf("Merged PDF: %s\n", res.Merged)
	}
	if res.Archive != "" {
		fmt.Printf("Archive: %s\n", res.Archive)
	}
}

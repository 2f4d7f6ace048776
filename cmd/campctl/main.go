package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"

	"vozhatapp/internal/app"
	"vozhatapp/internal/config"
	"vozhatapp/internal/export"
	"vozhatapp/internal/logging"
	"vozhatapp/internal/models"
)

func main() {
	migrateCmd := flag.NewFlagSet("migrate", flag.ExitOnError)
	resetCmd := flag.NewFlagSet("reset", flag.ExitOnError)
	seedCmd := flag.NewFlagSet("seed", flag.ExitOnError)
	exportCmd := flag.NewFlagSet("export", flag.ExitOnError)
	importCmd := flag.NewFlagSet("import", flag.ExitOnError)
	reportCmd := flag.NewFlagSet("report", flag.ExitOnError)
	rankingCmd := flag.NewFlagSet("ranking", flag.ExitOnError)

	exportOutput := exportCmd.String("output", "", "Output file path (default: backup_YYYYMMDD_HHMMSS.json)")

	importInput := importCmd.String("input", "", "Input file path (required)")
	importClear := importCmd.Bool("clear", false, "Clear existing data before import (WARNING: destructive)")

	reportFrom := reportCmd.String("from", "", "First day, YYYY-MM-DD (default: 7 days ago)")
	reportTo := reportCmd.String("to", "", "Last day, YYYY-MM-DD (default: today)")
	reportOutput := reportCmd.String("output", "", "Output workbook path")

	rankingSquad := rankingCmd.String("squad", "", "Only rank this squad")
	rankingOutput := rankingCmd.String("output", "", "Write an Excel workbook instead of printing")

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var fs *flag.FlagSet
	switch os.Args[1] {
	case "migrate":
		fs = migrateCmd
	case "reset":
		fs = resetCmd
	case "seed":
		fs = seedCmd
	case "export":
		fs = exportCmd
	case "import":
		fs = importCmd
	case "report":
		fs = reportCmd
	case "ranking":
		fs = rankingCmd
	default:
		printUsage()
		os.Exit(1)
	}
	_ = fs.Parse(os.Args[2:])

	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
		os.Exit(1)
	}
	cfg := config.Load()
	// The CLI seeds only on request.
	cfg.SeedGames = false

	lg, err := logging.Init(cfg.LogLevel, cfg.Env)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer lg.Closer()
	log := lg.Sugar

	ctx := context.Background()
	a, err := app.New(ctx, cfg, lg.Base)
	if err != nil {
		log.Fatalf("Failed to start: %v", err)
	}
	defer a.Close()

	switch os.Args[1] {
	case "migrate":
		version, err := a.DB.SchemaVersion(ctx)
		if err != nil {
			log.Fatalf("Failed to read schema version: %v", err)
		}
		log.Infof("Schema is at version %d", version)

	case "reset":
		if !confirm("WARNING: This will drop and recreate every table. Type 'yes' to confirm: ") {
			log.Info("Reset cancelled")
			return
		}
		if err := a.DB.ResetSchema(ctx, lg.Base); err != nil {
			log.Fatalf("Reset failed: %v", err)
		}
		log.Info("Schema recreated")

	case "seed":
		if err := a.DB.SeedDefaultGames(ctx, lg.Base); err != nil {
			log.Fatalf("Seeding failed: %v", err)
		}

	case "export":
		handleExport(ctx, a, log, *exportOutput)

	case "import":
		if *importInput == "" {
			fmt.Println("Error: -input flag is required")
			importCmd.PrintDefaults()
			os.Exit(1)
		}
		handleImport(ctx, a, log, *importInput, *importClear)

	case "report":
		handleReport(ctx, a, log, *reportFrom, *reportTo, *reportOutput)

	case "ranking":
		handleRanking(ctx, a, log, *rankingSquad, *rankingOutput)
	}
}

// confirm asks on stdin and accepts only "yes"
func confirm(prompt string) bool {
	fmt.Print(prompt)
	line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
	return strings.TrimSpace(line) == "yes"
}

func create(path string) (*os.File, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	return os.Create(path)
}

// handleExport writes a JSON backup to outputPath, or to a timestamped file when empty
func handleExport(ctx context.Context, a *app.App, log *zap.SugaredLogger, outputPath string) {
	if outputPath == "" {
		outputPath = fmt.Sprintf("backup_%s.json", time.Now().Format("20060102_150405"))
	}
	f, err := create(outputPath)
	if err != nil {
		log.Fatalf("Failed to create output file: %v", err)
	}
	defer f.Close()

	log.Infof("Exporting database to: %s", outputPath)
	backup, err := a.Backup.Export(ctx, f)
	if err != nil {
		log.Fatalf("Export failed: %v", err)
	}
	info, _ := f.Stat()
	log.Infof("Export %s complete! File size: %.2f MB", backup.ID, float64(info.Size())/1024/1024)
}

// handleImport restores a JSON backup, optionally clearing the tables first
func handleImport(ctx context.Context, a *app.App, log *zap.SugaredLogger, inputPath string, clearData bool) {
	f, err := os.Open(inputPath)
	if err != nil {
		log.Fatalf("Failed to open input file: %v", err)
	}
	defer f.Close()

	if clearData && !confirm("WARNING: This will delete all existing data. Type 'yes' to confirm: ") {
		log.Info("Import cancelled")
		return
	}

	log.Infof("Importing database from: %s", inputPath)
	if _, err := a.Backup.Import(ctx, f, clearData); err != nil {
		log.Fatalf("Import failed: %v", err)
	}
	log.Info("Import complete!")
}

// parseDay reads a YYYY-MM-DD date in loc; empty yields fallback
func parseDay(raw string, fallback time.Time, loc *time.Location) (time.Time, error) {
	if raw == "" {
		y, m, d := fallback.In(loc).Date()
		return time.Date(y, m, d, 0, 0, 0, 0, loc), nil
	}
	return time.ParseInLocation("2006-01-02", raw, loc)
}

// handleReport writes the attendance workbook of events between from and to
func handleReport(ctx context.Context, a *app.App, log *zap.SugaredLogger, fromRaw, toRaw, outputPath string) {
	loc := a.Config.Location
	now := time.Now()
	from, err := parseDay(fromRaw, now.AddDate(0, 0, -7), loc)
	if err != nil {
		log.Fatalf("Invalid -from: %v", err)
	}
	to, err := parseDay(toRaw, now, loc)
	if err != nil {
		log.Fatalf("Invalid -to: %v", err)
	}
	if to.Before(from) {
		log.Fatal("-to is before -from")
	}

	events, err := a.Events.Range(ctx, from, to.AddDate(0, 0, 1).Add(-time.Millisecond))
	if err != nil {
		log.Fatalf("Failed to load events: %v", err)
	}
	children, err := a.Children.List(ctx)
	if err != nil {
		log.Fatalf("Failed to load children: %v", err)
	}
	var marks []models.Attendance
	for _, e := range events {
		m, err := a.Attendance.ForEvent(ctx, e.ID)
		if err != nil {
			log.Fatalf("Failed to load attendance of %q: %v", e.Title, err)
		}
		marks = append(marks, m...)
	}

	if outputPath == "" {
		outputPath = export.AttendanceFilename(from, to)
	}
	f, err := create(outputPath)
	if err != nil {
		log.Fatalf("Failed to create output file: %v", err)
	}
	defer f.Close()

	report := export.AttendanceReport{Events: events, Children: children, Marks: marks, Location: loc}
	if err := export.WriteAttendance(f, report); err != nil {
		log.Fatalf("Report failed: %v", err)
	}
	log.Infof("Attendance of %d children over %d events written to %s", len(children), len(events), outputPath)
}

// handleRanking prints the leaderboard, or writes a workbook when outputPath is set
func handleRanking(ctx context.Context, a *app.App, log *zap.SugaredLogger, squad, outputPath string) {
	var (
		ranking []models.ChildRanking
		err     error
	)
	if squad == "" {
		ranking, err = a.Achievements.Ranking(ctx)
	} else {
		ranking, err = a.Achievements.RankingBySquad(ctx, squad)
	}
	if err != nil {
		log.Fatalf("Failed to load ranking: %v", err)
	}

	if outputPath == "" {
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "#\tCHILD\tSQUAD\tPOINTS")
		for i, r := range ranking {
			fmt.Fprintf(w, "%d\t%s %s\t%s\t%d\n", i+1, r.Name, r.LastName, r.SquadName, r.TotalPoints)
		}
		_ = w.Flush()
		return
	}

	f, err := create(outputPath)
	if err != nil {
		log.Fatalf("Failed to create output file: %v", err)
	}
	defer f.Close()
	if err := export.WriteRanking(f, ranking); err != nil {
		log.Fatalf("Ranking export failed: %v", err)
	}
	log.Infof("Ranking of %d children written to %s", len(ranking), outputPath)
}

func printUsage() {
	fmt.Println("Camp data tool")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  campctl migrate                                 Apply pending migrations")
	fmt.Println("  campctl reset                                   Drop and recreate the schema")
	fmt.Println("  campctl seed                                    Add the default games to an empty catalogue")
	fmt.Println("  campctl export [-output file.json]              Export the database as JSON")
	fmt.Println("  campctl import -input file.json [-clear]        Import a JSON backup")
	fmt.Println("  campctl report [-from day] [-to day] [-output]  Attendance workbook")
	fmt.Println("  campctl ranking [-squad name] [-output]         Points leaderboard")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  DATABASE_TYPE    Database type (sqlite, postgres, mysql)")
	fmt.Println("  DB_PATH          Path to SQLite database")
	fmt.Println("  DATABASE_URL     Connection string for postgres/mysql")
}

// Command vocoimport loads a spreadsheet of lesson words into the catalog
// database used by the bot.
//
// Flags:
//
//	-file    path to an .xlsx or .csv word list (required)
//	-sheet   sheet to read from a workbook (default: first sheet)
//	-lesson  lesson for rows without a lesson cell (default: Lektion 1)
//	-replace comma-separated lessons to clear before importing
//
// The database is configured by DB_DRIVER and DB_DSN, as for the bot.
// Exit codes: 0 = success, 1 = error.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/example/vocolatin/internal/config"
	"github.com/example/vocolatin/internal/database"
	"github.com/example/vocolatin/internal/excel"
	"github.com/example/vocolatin/internal/logger"
)

func main() {
	fileFlag := flag.String("file", "", "path to an .xlsx or .csv word list")
	sheetFlag := flag.String("sheet", "", "sheet to read (default: first sheet)")
	lessonFlag := flag.String("lesson", "Lektion 1", "lesson for rows without a lesson cell")
	replaceFlag := flag.String("replace", "", "comma-separated lessons to clear before importing")
	flag.Parse()

	if *fileFlag == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.LoadTool(".env")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	lg := logger.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		lg.Error("connect database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	words := database.NewWordRepository(db)

	for _, lesson := range strings.Split(*replaceFlag, ",") {
		lesson = strings.TrimSpace(lesson)
		if lesson == "" {
			continue
		}
		n, err := words.DeleteLesson(ctx, lesson)
		if err != nil {
			lg.Error("clear lesson", "lesson", lesson, "error", err)
			os.Exit(1)
		}
		lg.Info("lesson cleared", "lesson", lesson, "deleted", n)
	}

	importCfg := excel.DefaultImportConfig()
	importCfg.SheetName = *sheetFlag
	importCfg.DefaultLesson = *lessonFlag

	result, err := excel.NewImporter(words, lg).ImportFile(ctx, *fileFlag, importCfg)
	if err != nil {
		lg.Error("import", "file", *fileFlag, "error", err)
		os.Exit(1)
	}

	fmt.Printf("Processed: %d\nCreated: %d\nUpdated: %d\nSkipped: %d\n",
		result.TotalProcessed, result.Created, result.Updated, result.Skipped)
	if len(result.Lessons) > 0 {
		fmt.Printf("Lessons: %s\n", strings.Join(result.Lessons, ", "))
	}
	for _, e := range result.Errors {
		fmt.Println("  " + e)
	}
}

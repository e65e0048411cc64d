// Copyright 2025 The WordServe Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main implements the wordpilot build tools, suggestion CLI, and
MessagePack IPC server.

wordpilot turns a raw corpus into memory-mappable bigram and trigram
artifacts, then serves next-word suggestions from them plus a per-user
adaptive model. It can operate as an interactive CLI for debugging, a
one-shot suggest/validate tool, or a long-running MessagePack server for
editor integrations.

# Subcommands

	build-bigram  <vocab> <corpus> <out.bgrm>  [--top N] [--shards S]
	build-trigram <vocab> <corpus> <out.trgc>  [--pairs K] [--top N]
	suggest       <vocab> <bigram> [trigram] "<prefix>"
	validate      <kind> <path>
	learn         <history> <vocab> "<text>"
	serve         [--data-dir DIR] [-c]

# Data Files

For serve, the --data-dir directory holds the plain-text vocabulary
vocab.txt, the bigram artifact bigram.bgrm, and optionally a trigram cache
trigram.trgc. These fixed names are joined onto the directory exactly as
given; no other location is searched.

# Config

Runtime configuration is managed via a config.toml file supporting
server, builder, suggest, history, and CLI sections. A default
configuration is created automatically if one does not exist.
*/
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/arvindr/wordpilot/internal/cli"
	"github.com/arvindr/wordpilot/pkg/config"
	"github.com/arvindr/wordpilot/pkg/ngram"
	"github.com/arvindr/wordpilot/pkg/server"
	"github.com/arvindr/wordpilot/pkg/suggest"
	"github.com/arvindr/wordpilot/pkg/userhistory"
	"github.com/arvindr/wordpilot/pkg/vocab"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

const (
	Version = "0.1.0-beta"
	AppName = "wordpilot"
	gh      = "https://github.com/arvindr/wordpilot"
)

// Exit codes per §6-7: 0 success, 1 validation/IO failure, 2 usage error.
const (
	exitOK    = 0
	exitFail  = 1
	exitUsage = 2
)

// sigHandler is a simple handler for OS signals to exit normally.
func sigHandler() {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		os.Exit(exitOK)
	}()
}

// main dispatches to a subcommand. main() does not implement business
// logic, only flow: each runXxx function owns its own flag parsing.
func main() {
	sigHandler()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(exitUsage)
	}

	switch os.Args[1] {
	case "--version":
		printVersion()
		return
	case "build-bigram":
		os.Exit(runBuildBigram(os.Args[2:]))
	case "build-trigram":
		os.Exit(runBuildTrigram(os.Args[2:]))
	case "suggest":
		os.Exit(runSuggest(os.Args[2:]))
	case "validate":
		os.Exit(runValidate(os.Args[2:]))
	case "learn":
		os.Exit(runLearn(os.Args[2:]))
	case "serve":
		os.Exit(runServe(os.Args[2:]))
	case "-h", "--help", "help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown subcommand: %s\n", os.Args[1])
		printUsage()
		os.Exit(exitUsage)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `wordpilot subcommands:
  build-bigram  <vocab> <corpus> <out.bgrm>  [--top N] [--shards S]
  build-trigram <vocab> <corpus> <out.trgc>  [--pairs K] [--top N]
  suggest       <vocab> <bigram> [trigram] "<prefix>"
  validate      <kind> <path>
  learn         <history> <vocab> "<text>"
  serve         [--config PATH] [--data-dir DIR] [-c] [-v]
  --version`)
}

func printVersion() {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportCaller:    false,
		ReportTimestamp: false,
		Prefix:          "",
	})

	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Background(lipgloss.AdaptiveColor{Light: "#f2e9e1", Dark: "#26233a"}).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	logger.SetStyles(styles)

	logger.Print("")
	logger.Print("[wordpilot] next-word suggestions from memory-mapped n-gram artifacts")
	logger.Print("", "version", Version)
	logger.Print("")
	logger.Print("use --help to see available subcommands")
	logger.Print("")
	logger.Print("Find out more at", "gh", gh)
}

// loadVocabFile loads a vocabulary from either layout by file extension,
// defaulting to plain text.
func loadVocabFile(path string) (*vocab.Map, error) {
	if strings.HasSuffix(path, ".packed") || strings.HasSuffix(path, ".bin") {
		return vocab.BuildFromPacked(path)
	}
	return vocab.BuildFromPlainText(path)
}

func runBuildBigram(args []string) int {
	fs := flag.NewFlagSet("build-bigram", flag.ContinueOnError)
	topN := fs.Int("top", 8, "max successors per previous token")
	shards := fs.Int("shards", 0, "shard count for the sharded builder (0 selects streaming)")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	rest := fs.Args()
	if len(rest) != 3 {
		fmt.Fprintln(os.Stderr, "usage: build-bigram <vocab> <corpus> <out.bgrm> [--top N] [--shards S]")
		return exitUsage
	}
	vocabPath, corpusPath, outPath := rest[0], rest[1], rest[2]

	vmap, err := loadVocabFile(vocabPath)
	if err != nil {
		log.Errorf("loading vocab: %v", err)
		return exitFail
	}
	corpus, err := os.Open(corpusPath)
	if err != nil {
		log.Errorf("opening corpus: %v", err)
		return exitFail
	}
	defer corpus.Close()

	builder := ngram.NewBigramBuilder(vmap, *topN)
	if *shards > 0 {
		err = builder.BuildSharded(corpus, outPath, *shards)
	} else {
		err = builder.BuildStreaming(corpus, outPath)
	}
	if err != nil {
		log.Errorf("building bigram artifact: %v", err)
		return exitFail
	}
	log.Infof("wrote bigram artifact to %s", outPath)
	return exitOK
}

func runBuildTrigram(args []string) int {
	fs := flag.NewFlagSet("build-trigram", flag.ContinueOnError)
	topN := fs.Int("top", 8, "max successors per pair")
	maxPairs := fs.Int("pairs", 20000, "max number of selected pairs (K)")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	rest := fs.Args()
	if len(rest) != 3 {
		fmt.Fprintln(os.Stderr, "usage: build-trigram <vocab> <corpus> <out.trgc> [--pairs K] [--top N]")
		return exitUsage
	}
	vocabPath, corpusPath, outPath := rest[0], rest[1], rest[2]

	vmap, err := loadVocabFile(vocabPath)
	if err != nil {
		log.Errorf("loading vocab: %v", err)
		return exitFail
	}

	builder := ngram.NewTrigramBuilder(vmap, *topN, *maxPairs)
	if err := builder.Build(ngram.OpenFile(corpusPath), outPath); err != nil {
		log.Errorf("building trigram artifact: %v", err)
		return exitFail
	}
	log.Infof("wrote trigram artifact to %s", outPath)
	return exitOK
}

func runSuggest(args []string) int {
	if len(args) < 3 {
		fmt.Fprintln(os.Stderr, `usage: suggest <vocab> <bigram> [trigram] "<prefix>"`)
		return exitUsage
	}
	vocabPath, bigramPath := args[0], args[1]
	var trigramPath, prefix string
	if len(args) == 3 {
		prefix = args[2]
	} else {
		trigramPath, prefix = args[2], args[3]
	}

	vmap, err := loadVocabFile(vocabPath)
	if err != nil {
		log.Errorf("loading vocab: %v", err)
		return exitFail
	}
	bigram, err := ngram.OpenBigram(bigramPath)
	if err != nil {
		log.Errorf("opening bigram artifact: %v", err)
		return exitFail
	}
	defer bigram.Close()

	var trigram *ngram.TrigramFile
	if trigramPath != "" {
		trigram, err = ngram.OpenTrigram(trigramPath)
		if err != nil {
			log.Errorf("opening trigram artifact: %v", err)
			return exitFail
		}
		defer trigram.Close()
	}

	engine := suggest.NewEngine(vmap, bigram, trigram)
	result := engine.Suggest(prefix, nil, 0)
	if len(result.Suggestions) == 0 {
		fmt.Println("no suggestions")
		return exitOK
	}
	fmt.Printf("source: %s\n", result.Source)
	for i, s := range result.Suggestions {
		fmt.Printf("%2d. %-24s weight=%d\n", i+1, s.Word, s.Weight)
	}
	return exitOK
}

func runValidate(args []string) int {
	if len(args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: validate <bigram|trigram> <path>")
		return exitUsage
	}
	kind, path := args[0], args[1]

	switch kind {
	case "bigram":
		f, err := ngram.OpenBigram(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open failed: %v\n", err)
			return exitFail
		}
		defer f.Close()
		if err := f.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "validation failed: %v\n", err)
			return exitFail
		}
	case "trigram":
		f, err := ngram.OpenTrigram(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "open failed: %v\n", err)
			return exitFail
		}
		defer f.Close()
		if err := f.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "validation failed: %v\n", err)
			return exitFail
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown artifact kind: %s\n", kind)
		return exitUsage
	}
	fmt.Println("ok")
	return exitOK
}

func runLearn(args []string) int {
	if len(args) != 3 {
		fmt.Fprintln(os.Stderr, `usage: learn <history.json> <vocab> "<text>"`)
		return exitUsage
	}
	historyPath, vocabPath, text := args[0], args[1], args[2]

	vmap, err := loadVocabFile(vocabPath)
	if err != nil {
		log.Errorf("loading vocab: %v", err)
		return exitFail
	}

	hist := userhistory.Load(historyPath, 8, userhistory.RealClock{})
	if err := hist.Learn(text, vmap.Lookup); err != nil {
		log.Errorf("learn failed: %v", err)
		return exitFail
	}
	if err := hist.Save(historyPath); err != nil {
		log.Errorf("saving history: %v", err)
		return exitFail
	}
	log.Infof("learned from %q, saved to %s", text, historyPath)
	return exitOK
}

func runServe(args []string) int {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	defaultConfig := config.DefaultConfig()

	configFile := fs.String("config", "", "Path to custom config.toml file")
	dataDir := fs.String("data-dir", "data/", "Directory containing vocab/bigram/trigram artifacts")
	debugMode := fs.Bool("v", false, "Toggle verbose mode")
	cliMode := fs.Bool("c", false, "Run interactive CLI instead of the IPC server")
	limit := fs.Int("limit", defaultConfig.CLI.DefaultLimit, "Number of suggestions to return")
	minPrefix := fs.Int("prmin", defaultConfig.CLI.DefaultMinLen, "Minimum prefix length for suggestions")
	maxPrefix := fs.Int("prmax", defaultConfig.CLI.DefaultMaxLen, "Maximum prefix length for suggestions")
	noFilter := fs.Bool("no-filter", defaultConfig.CLI.DefaultNoFilter, "Disable input filtering (DBG only)")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	if *debugMode {
		log.SetLevel(log.DebugLevel)
		log.SetReportTimestamp(true)
	} else {
		log.SetLevel(log.WarnLevel)
	}

	appConfig, configPath, err := config.LoadConfigWithPriority(*configFile)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
		return exitFail
	}
	log.Debugf("Using config file: %s", configPath)

	vocabPath := filepath.Join(*dataDir, "vocab.txt")
	bigramPath := filepath.Join(*dataDir, "bigram.bgrm")
	trigramPath := filepath.Join(*dataDir, "trigram.trgc")

	vmap, err := loadVocabFile(vocabPath)
	if err != nil {
		log.Fatalf("Failed to load vocab: %v", err)
		return exitFail
	}

	bigram, err := ngram.OpenBigram(bigramPath)
	if err != nil {
		log.Fatalf("Failed to open bigram artifact: %v", err)
		return exitFail
	}
	defer bigram.Close()

	var trigram *ngram.TrigramFile
	if f, err := ngram.OpenTrigram(trigramPath); err == nil {
		trigram = f
		defer trigram.Close()
	} else {
		log.Debugf("No trigram artifact loaded: %v", err)
	}

	engine := suggest.NewEngine(vmap, bigram, trigram)
	engine.MergeThreshold = uint16(appConfig.Suggest.MergeThreshold)
	engine.DefaultLimit = appConfig.Suggest.DefaultLimit
	if appConfig.Suggest.GatingWordsPath != "" {
		if words, err := suggest.LoadFunctionWords(appConfig.Suggest.GatingWordsPath); err == nil {
			engine.FunctionWords = words
		} else {
			log.Warnf("Failed to load gating words, using defaults: %v", err)
		}
	}

	historyPath := appConfig.History.PersistPath
	hist := userhistory.Load(historyPath, appConfig.History.TopN, userhistory.RealClock{})
	service := suggest.NewService(engine, hist)

	if *cliMode {
		log.SetReportTimestamp(false)
		log.Debug("Input info:", "minPrefix", *minPrefix, "maxPrefix", *maxPrefix, "limit", *limit, "noFilter", *noFilter)
		inputHandler := cli.NewInputHandler(service, *minPrefix, *maxPrefix, *limit, *noFilter)
		if err := inputHandler.Start(); err != nil {
			if saveErr := hist.Save(historyPath); saveErr != nil {
				log.Errorf("failed to persist history on exit: %v", saveErr)
			}
			log.Fatalf("CLI error: %v", err)
			return exitFail
		}
		return exitOK
	}

	log.Debug("spawning IPC")
	srv := server.NewServer(service, appConfig, configPath)
	showStartupInfo(*dataDir)

	err = srv.Start()
	if saveErr := hist.Save(historyPath); saveErr != nil {
		log.Errorf("failed to persist history on exit: %v", saveErr)
	}
	if err != nil {
		log.Fatalf("Failed to start server: %v", err)
		return exitFail
	}
	return exitOK
}

// showStartupInfo displays some basic info about the init process.
func showStartupInfo(dataDir string) {
	pid := os.Getpid()
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)

	println("===========")
	println(" wordpilot ")
	println("===========")
	log.Infof("Version: %s", Version)
	log.Infof("Process ID: [ %d ]", pid)
	log.Info("init: OK")
	log.Infof("data dir: ( %s )", dataDir)
	log.Info("status: ready")
	println("===========")
	println("Press Ctrl+C to exit")

	log.SetLevel(currentLevel)
}

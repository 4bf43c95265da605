// Copyright 2019 Tomas Machalek <tomas.machalek@gmail.com>
// Copyright 2019 Charles University, Faculty of Arts,
//                Institute of the Czech National Corpus
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command lemm is a command line tool for working with lemmatization
// models and for lemmatizing corpus vertical files.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/czcorpus/rdrlemm/cnf"
	"github.com/czcorpus/rdrlemm/db/factory"
	"github.com/czcorpus/rdrlemm/fs"
	"github.com/czcorpus/rdrlemm/langs"
	"github.com/czcorpus/rdrlemm/vertlemm"
)

func setupLog(level string) {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	lev, err := zerolog.ParseLevel(level)
	if err != nil {
		lev = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lev)
}

func newFlagSet(name, args, descr string) *flag.FlagSet {
	cmd := flag.NewFlagSet(name, flag.ExitOnError)
	cmd.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s %s [options] %s\n\n", os.Args[0], name, args)
		fmt.Fprintf(os.Stderr, "%s\n\n", descr)
		fmt.Fprintf(os.Stderr, "Options:\n")
		cmd.PrintDefaults()
	}
	return cmd
}

func runLemmatize(args []string) {
	cmd := newFlagSet("lemmatize", "<lang|model-file> [word...|file...]",
		"Lemmatize words from arguments or (if none) from stdin, one word per line.")
	modelsDir := cmd.String("models-dir", ".", "a directory with language models")
	fromFiles := cmd.Bool("files", false, "read words from files listed as arguments ('-' for stdin)")
	logLevel := cmd.String("log-level", "warn", "logging level")
	cmd.Parse(args)
	setupLog(*logLevel)
	if cmd.NArg() < 1 {
		cmd.Usage()
		os.Exit(1)
	}
	lm, err := openLemmatizer(cmd.Arg(0), *modelsDir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load model")
	}
	words := cmd.Args()[1:]
	var input lineScanner = bufio.NewScanner(os.Stdin)
	if *fromFiles && len(words) > 0 {
		mfs, err := fs.NewMultiFileScanner(words...)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to lemmatize")
		}
		defer mfs.Close()
		input = mfs
		words = nil
	}
	if err := lemmatizeWords(lm, words, input, os.Stdout); err != nil {
		log.Fatal().Err(err).Msg("failed to lemmatize")
	}
}

func runLangs(args []string) {
	cmd := newFlagSet("langs", "", "List languages with a model available.")
	modelsDir := cmd.String("models-dir", ".", "a directory with language models")
	cmd.Parse(args)
	setupLog("warn")
	codes, err := langs.NewRegistry(*modelsDir).SupportedLanguages()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to list languages")
	}
	for _, c := range codes {
		fmt.Println(c)
	}
}

func runInfo(args []string) {
	cmd := newFlagSet("info", "<lang|model-file>", "Show information about a model.")
	modelsDir := cmd.String("models-dir", ".", "a directory with language models")
	cmd.Parse(args)
	setupLog("warn")
	if cmd.NArg() < 1 {
		cmd.Usage()
		os.Exit(1)
	}
	lm, err := openLemmatizer(cmd.Arg(0), *modelsDir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load model")
	}
	info, err := lm.ModelInfo()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to get model info")
	}
	if err := printJSON(info); err != nil {
		log.Fatal().Err(err).Msg("failed to print model info")
	}
}

func runDump(args []string) {
	cmd := newFlagSet("dump", "<lang|model-file>", "Print all the suffix rules of a model.")
	modelsDir := cmd.String("models-dir", ".", "a directory with language models")
	cmd.Parse(args)
	setupLog("warn")
	if cmd.NArg() < 1 {
		cmd.Usage()
		os.Exit(1)
	}
	lm, err := openLemmatizer(cmd.Arg(0), *modelsDir)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load model")
	}
	tree, err := lm.Tree()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to dump model")
	}
	out := bufio.NewWriter(os.Stdout)
	if err := tree.Dump(out); err != nil {
		log.Fatal().Err(err).Msg("failed to dump model")
	}
	if err := out.Flush(); err != nil {
		log.Fatal().Err(err).Msg("failed to dump model")
	}
}

func runConvert(args []string) {
	cmd := newFlagSet("convert", "<src-model> <dst-model>",
		"Convert a model (e.g. a legacy lemmagen one) into the native format.")
	charset := cmd.String("charset", "", "charset of the model (legacy models do not store it)")
	cmd.Parse(args)
	setupLog("info")
	if cmd.NArg() < 2 {
		cmd.Usage()
		os.Exit(1)
	}
	tree, err := convertModel(cmd.Arg(0), cmd.Arg(1), *charset)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to convert model")
	}
	stats := tree.Stats()
	log.Info().
		Str("output", cmd.Arg(1)).
		Int("nodes", stats.NumNodes).
		Int("rules", stats.NumRules).
		Msg("model converted")
}

func runCompile(args []string) {
	cmd := newFlagSet("compile", "<rules.tsv> <dst-model>",
		"Compile a tab separated rule listing into a model.")
	cmd.Parse(args)
	setupLog("info")
	if cmd.NArg() < 2 {
		cmd.Usage()
		os.Exit(1)
	}
	tree, err := compileRules(cmd.Arg(0), cmd.Arg(1))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to compile rules")
	}
	stats := tree.Stats()
	log.Info().
		Str("output", cmd.Arg(1)).
		Int("nodes", stats.NumNodes).
		Int("rules", stats.NumRules).
		Int("maxDepth", stats.MaxDepth).
		Msg("rules compiled")
}

func runVert(args []string) {
	cmd := newFlagSet("vert", "<config-file>",
		"Lemmatize words of a vertical file and store word-lemma frequencies.")
	vertFile := cmd.String("vert-file", "", "a custom path to vertical file or directory (normally, it is defined in the config)")
	appendData := cmd.Bool("append", false, "add data to existing database")
	calcARF := cmd.Bool("arf", false, "calculate ARF of word forms (the vertical is read twice)")
	cmd.Parse(args)
	if cmd.NArg() < 1 {
		cmd.Usage()
		os.Exit(1)
	}
	conf, err := cnf.LoadConf(cmd.Arg(0))
	if err != nil {
		setupLog("info")
		log.Fatal().Err(err).Msg("failed to run")
	}
	setupLog(conf.LogLevel)
	if *vertFile != "" {
		conf.Vert.VerticalFile = *vertFile
		conf.Vert.VerticalFiles = nil
	}
	if *appendData {
		conf.Vert.AppendData = true
	}
	if *calcARF {
		conf.Vert.CalcARF = true
	}
	if !conf.Vert.IsConfigured() {
		log.Fatal().Msg("no vertical file configured")
	}
	if err := conf.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	lm, err := vertlemm.LoadLemmatizer(conf)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to run")
	}
	writer, err := factory.NewDatabaseWriter(&conf.Vert)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to run")
	}
	proc, err := vertlemm.Run(ctx, &conf.Vert, lm, writer)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to run")
	}
	log.Info().
		Str("corpus", conf.Vert.CorpusID).
		Int("numTokens", proc.NumTokens()).
		Int("numWordForms", proc.NumWordForms()).
		Msg("lemmas stored")
}

func runNewConf(args []string) {
	if err := printJSON(newConf()); err != nil {
		setupLog("info")
		log.Fatal().Err(err).Msg("failed to dump a new config")
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [options]\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  lemmatize  Lemmatize words using a language model\n")
	fmt.Fprintf(os.Stderr, "  langs      List available languages\n")
	fmt.Fprintf(os.Stderr, "  info       Show model information\n")
	fmt.Fprintf(os.Stderr, "  dump       Print model rules\n")
	fmt.Fprintf(os.Stderr, "  convert    Convert a model into the native format\n")
	fmt.Fprintf(os.Stderr, "  compile    Compile a rule listing into a model\n")
	fmt.Fprintf(os.Stderr, "  vert       Lemmatize a vertical file into a database\n")
	fmt.Fprintf(os.Stderr, "  newconf    Print a configuration template\n")
	fmt.Fprintf(os.Stderr, "\nRun '%s <command> -h' for more information about a command.\n", os.Args[0])
}

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "lemmatize":
		runLemmatize(os.Args[2:])
	case "langs":
		runLangs(os.Args[2:])
	case "info":
		runInfo(os.Args[2:])
	case "dump":
		runDump(os.Args[2:])
	case "convert":
		runConvert(os.Args[2:])
	case "compile":
		runCompile(os.Args[2:])
	case "vert":
		runVert(os.Args[2:])
	case "newconf":
		runNewConf(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

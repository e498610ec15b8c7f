// judgecheck builds the execution engine from the server's configuration,
// runs the backend health probe, and optionally executes a source file.
//
// Usage:
//
//	go run ./cmd/judgecheck
//	go run ./cmd/judgecheck -lang python -stdin "3 4" solution.py
//	go run ./cmd/judgecheck -lang go -cases cases.json main.go
//
// The cases file is a JSON array of {"input": ..., "expected_output": ...}.
// Exit status is 1 when the probe fails or the submission does not pass.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/gsarma/judgekit/internal/code"
	"github.com/gsarma/judgekit/internal/config"
)

func main() {
	var (
		configPath = flag.String("config", config.Path(), "path to YAML config")
		lang       = flag.String("lang", "", "language key for the file argument")
		stdin      = flag.String("stdin", "", "stdin passed to the program")
		casesPath  = flag.String("cases", "", "JSON file with test cases")
		timeout    = flag.Duration("timeout", 2*time.Minute, "overall deadline")
		skipProbe  = flag.Bool("skip-probe", false, "do not run the health probe")
	)
	flag.Parse()

	os.Exit(run(*configPath, *lang, *stdin, *casesPath, *timeout, *skipProbe, flag.Args()))
}

func run(configPath, lang, stdin, casesPath string, timeout time.Duration, skipProbe bool, args []string) int {
	cfg, err := config.Load(configPath)
	if err == nil {
		err = cfg.ValidateEngine()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		return 2
	}
	logger := cfg.NewLogger(os.Stderr)

	eng, err := cfg.NewEngine(logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "engine:", err)
		return 2
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if !skipProbe {
		if !eng.TestConnection(ctx) {
			fmt.Fprintf(os.Stderr, "%s: health probe failed\n", eng.Backend())
			return 1
		}
		fmt.Fprintf(os.Stderr, "%s: health probe ok\n", eng.Backend())
	}

	if len(args) == 0 {
		return 0
	}
	if lang == "" {
		fmt.Fprintln(os.Stderr, "-lang is required when a file is given")
		return 2
	}

	src, err := os.ReadFile(args[0])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	req := code.Request{Language: lang, Code: string(src), Stdin: stdin}
	if casesPath != "" {
		raw, err := os.ReadFile(casesPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 2
		}
		if err := json.Unmarshal(raw, &req.TestCases); err != nil {
			fmt.Fprintln(os.Stderr, "cases:", err)
			return 2
		}
	}

	res := eng.ExecuteWithTestCases(ctx, req)
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(res)
	if !res.Success {
		return 1
	}
	return 0
}

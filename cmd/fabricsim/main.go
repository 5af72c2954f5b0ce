package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/fabricsim/fabricsim/internal/api"
	"github.com/fabricsim/fabricsim/internal/runner"
	"github.com/fabricsim/fabricsim/internal/store"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "run":
		runCmd(os.Args[2:])
	case "serve":
		serveCmd(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: fabricsim run   --config <path> [--db <sqlite-path>] [--serve-after]")
	fmt.Fprintln(os.Stderr, "       fabricsim serve --db <sqlite-path> [--addr :8080]")
}

func runCmd(args []string) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", "", "path to simulation config YAML")
	dbPath := fs.String("db", "", "path to SQLite database file for history recording")
	seed := fs.Int64("seed", 1, "PRNG seed")
	serveAfter := fs.Bool("serve-after", false, "start the reporting server after the run completes")
	addr := fs.String("addr", ":8080", "address for --serve-after")
	fs.Parse(args)

	if *configPath == "" {
		log.Fatal("fabricsim run: --config is required")
	}

	log.Printf("starting simulation run from %s", *configPath)
	start := time.Now()

	result, err := runner.Run(runner.Options{
		ConfigPath: *configPath,
		DBPath:     *dbPath,
		Seed:       *seed,
	})
	if err != nil {
		log.Fatalf("simulation failed: %v", err)
	}

	log.Printf("simulation completed in %v", time.Since(start))
	runner.PrintSummary(os.Stdout, result.Summary)

	if *serveAfter {
		if *dbPath == "" {
			log.Fatal("fabricsim run: --serve-after requires --db")
		}
		serveFrom(*dbPath, *addr)
	}
}

func serveCmd(args []string) {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	dbPath := fs.String("db", "", "path to SQLite database file")
	addr := fs.String("addr", ":8080", "listen address")
	fs.Parse(args)

	if *dbPath == "" {
		log.Fatal("fabricsim serve: --db is required")
	}
	serveFrom(*dbPath, *addr)
}

func serveFrom(dbPath, addr string) {
	st, err := store.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer st.Close()

	log.Printf("serving reporting API on %s against %s", addr, dbPath)
	srv := api.NewServer(st)
	if err := srv.Run(addr); err != nil {
		log.Fatalf("reporting server failed: %v", err)
	}
}

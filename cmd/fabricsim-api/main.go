package main

import (
	"flag"
	"log"

	"github.com/fabricsim/fabricsim/internal/api"
	"github.com/fabricsim/fabricsim/internal/store"
)

func main() {
	dbPath := flag.String("db", "analytics.db", "path to SQLite database file")
	addr := flag.String("addr", ":8080", "listen address")
	flag.Parse()

	log.Printf("connecting to store at %s", *dbPath)
	st, err := store.Open(*dbPath)
	if err != nil {
		log.Fatalf("failed to open store: %v", err)
	}
	defer st.Close()

	srv := api.NewServer(st)
	log.Printf("starting reporting server on %s", *addr)
	if err := srv.Run(*addr); err != nil {
		log.Fatalf("reporting server failed: %v", err)
	}
}

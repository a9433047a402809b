// Command adesql-mcp is an MCP stdio server exposing SQL tools over the
// OnSIDES adverse-drug-event database. The chat service spawns it as a
// subprocess, but any MCP client can run it directly:
//
//	DB_URL=sqlite://onsides.db adesql-mcp
package main

import (
	"flag"
	"log"
	"os"

	"medoryx/internal/config"
	"medoryx/internal/database"
	"medoryx/internal/sqltool"
)

func main() {
	maxChars := flag.Int("max-chars", sqltool.DefaultMaxChars, "character budget for execute_query output")
	flag.Parse()

	url := os.Getenv(config.EnvDatabaseURL)
	if url == "" {
		log.Fatalf("%s is not set", config.EnvDatabaseURL)
	}

	db, err := database.Open(url)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	if err := sqltool.New(db, *maxChars).ServeStdio(); err != nil {
		log.Fatalf("serve: %v", err)
	}
}

// Command docstore is a query shell for the document database. It runs
// against a remote endpoint or an embedded local store, reads wire-format
// query expressions, and renders the resulting values as tables.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/wbrown/janus-docstore/docstore"
	"github.com/wbrown/janus-docstore/docstore/client"
	"github.com/wbrown/janus-docstore/docstore/local"
	"github.com/wbrown/janus-docstore/docstore/wire"
)

// runner is the shape shared by client.Client and local.Store.
type runner interface {
	Query(ctx context.Context, expr docstore.Value) (docstore.Value, error)
}

func main() {
	var endpoint string
	var secret string
	var dbPath string
	var queryStr string
	var interactive bool
	var help bool

	flag.StringVar(&endpoint, "endpoint", "", "server endpoint URL")
	flag.StringVar(&secret, "secret", "", "server access secret")
	flag.StringVar(&dbPath, "db", "", "local store path (instead of an endpoint)")
	flag.StringVar(&queryStr, "query", "", "run a single query expression and exit")
	flag.BoolVar(&interactive, "i", false, "interactive mode")
	flag.BoolVar(&help, "h", false, "show help")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "A query shell for the document database.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s -db spells.db -i\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -db spells.db -query '{\"get\": {\"@ref\": {\"id\": \"101\", \"parent\": {\"@ref\": {\"id\": \"spells\", \"parent\": {\"@ref\": {\"id\": \"classes\"}}}}}}}'\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -endpoint https://db.example.com -secret $DOCSTORE_SECRET -i\n", os.Args[0])
	}
	flag.Parse()

	if help {
		flag.Usage()
		os.Exit(0)
	}

	if (endpoint == "") == (dbPath == "") {
		log.Fatal("exactly one of -endpoint or -db is required")
	}

	var r runner
	if dbPath != "" {
		store, err := local.Open(dbPath)
		if err != nil {
			log.Fatalf("Failed to open local store: %v", err)
		}
		defer store.Close()
		r = store
	} else {
		c, err := client.NewClient(endpoint, secret)
		if err != nil {
			log.Fatalf("Failed to create client: %v", err)
		}
		r = c
	}

	switch {
	case queryStr != "":
		if !runQuery(r, queryStr) {
			os.Exit(1)
		}
	case interactive:
		runInteractive(r)
	default:
		fmt.Println("Nothing to do. Use -i for interactive mode or -query to run a query.")
	}
}

// runQuery decodes, executes, and renders one query expression. It reports
// whether the query succeeded.
func runQuery(r runner, queryStr string) bool {
	expr, err := wire.Decode([]byte(queryStr))
	if err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Decode error: %v", err))
		return false
	}

	result, err := r.Query(context.Background(), expr)
	if err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Query error: %v", err))
		return false
	}

	fmt.Println(renderValue(result))
	return true
}

func runInteractive(r runner) {
	fmt.Println("=== Docstore Shell ===")
	fmt.Println("Enter a wire-format query expression per line, or:")
	fmt.Println("  .help    - Show help")
	fmt.Println("  .exit    - Exit")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())

		switch {
		case line == "":
			continue

		case line == ".exit":
			return

		case line == ".help":
			fmt.Println("Queries are wire-format JSON, e.g.")
			fmt.Println(`  {"create": {"@ref": {"id": "spells", "parent": {"@ref": {"id": "classes"}}}}, "params": {"data": {"name": "fire bolt"}}}`)
			fmt.Println(`  {"paginate": {"match": "fire bolt", "index": {"@ref": {"id": "spells.name", "parent": {"@ref": {"id": "indexes"}}}}}}`)

		default:
			runQuery(r, line)
		}
	}
}

// Command print-records dumps every local DNS record in a fluxdns
// SQLite database, sorted for diffable output.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/fluxdns/fluxdns/internal/store"
)

func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Usage: print-records path/to/fluxdns.db\n")
		os.Exit(2)
	}
	path := flag.Arg(0)

	db, err := store.Open(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	records, err := db.ListRecords(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to list records: %v\n", err)
		os.Exit(1)
	}

	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		return a.Value < b.Value
	})

	for _, rr := range records {
		status := "enabled"
		if !rr.Enabled {
			status = "disabled"
		}
		fmt.Printf("  %s %d IN %s %s (%s)\n", rr.Name, rr.TTL, rr.Type, rr.Value, status)
	}
}

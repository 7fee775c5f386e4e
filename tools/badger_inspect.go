package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/dgraph-io/badger/v4"
	"github.com/olekukonko/tablewriter"
)

// Inspection tool for the messenger store. Dumps keys under a prefix and
// summarizes the JSON values so operators can eyeball the log without the
// server running.
//
// Prefixes: msg: (messages), chat: (chats), member: (reverse index),
// usr: (accounts), seq: (per-chat counters), code: (pending logins).
func main() {
	dbPath := flag.String("db", "/tmp/mio-messenger/badger", "Path to badger DB")
	prefix := flag.String("prefix", "msg:", "Prefix to scan")
	flag.Parse()

	db, err := badger.Open(badger.DefaultOptions(*dbPath).WithReadOnly(true))
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Key", "Summary"})
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefixBytes := []byte(*prefix)
		for it.Seek(prefixBytes); it.ValidForPrefix(prefixBytes); it.Next() {
			item := it.Item()
			key := string(item.Key())

			err := item.Value(func(v []byte) error {
				table.Append([]string{key, summarize(key, v)})
				return nil
			})
			if err != nil {
				fmt.Printf("Error reading key %s: %v\n", key, err)
			}
		}
		return nil
	})
	if err != nil {
		log.Fatal("Error while scanning: ", err)
	}

	table.Render()
}

// summarize renders a compact one-line view of the stored JSON. Sequence
// counters are raw bytes, everything else is a JSON document.
func summarize(key string, value []byte) string {
	if strings.HasPrefix(key, "seq:") || strings.HasPrefix(key, "member:") {
		return string(value)
	}

	var doc map[string]any
	if err := json.Unmarshal(value, &doc); err != nil {
		return fmt.Sprintf("<%d raw bytes>", len(value))
	}

	switch {
	case strings.HasPrefix(key, "msg:"):
		return fmt.Sprintf("from=%v text=%.60v", doc["sender"], doc["text"])
	case strings.HasPrefix(key, "chat:"):
		return fmt.Sprintf("name=%v participants=%v", doc["name"], doc["participants"])
	case strings.HasPrefix(key, "usr:"):
		return fmt.Sprintf("phone=%v created=%v", doc["phone"], doc["created_at"])
	case strings.HasPrefix(key, "code:"):
		return fmt.Sprintf("attempts=%v created=%v", doc["attempts"], doc["created_at"])
	default:
		compact, _ := json.Marshal(doc)
		return string(compact)
	}
}

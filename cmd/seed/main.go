// Seed program: fills a tree file with numbered sample keys.
// Run: go run ./cmd/seed -file data/store.idx -n 100
// Then inspect: go run ./cmd/inspect_idx data/store.idx
package main

import (
	"flag"
	"fmt"
	"log"

	"cowkv/btree"
)

func main() {
	filePath := flag.String("file", "data/store.idx", "tree file to seed")
	count := flag.Int("n", 100, "number of keys to insert")
	flag.Parse()

	storage, err := btree.NewDiskStorage(*filePath)
	if err != nil {
		log.Fatalf("open storage: %v", err)
	}
	defer storage.Close()

	tree, err := btree.Init(storage)
	if err != nil {
		log.Fatalf("init tree: %v", err)
	}

	for i := 0; i < *count; i++ {
		key := fmt.Sprintf("key%04d", i)
		value := fmt.Sprintf("value%04d", i)
		if err := tree.Put([]byte(key), []byte(value)); err != nil {
			log.Fatalf("put %s: %v", key, err)
		}
	}
	if err := storage.Sync(); err != nil {
		log.Fatalf("sync: %v", err)
	}

	height, err := tree.Height()
	if err != nil {
		log.Fatalf("height: %v", err)
	}
	fmt.Printf("Seeded %d keys into %s\n", *count, *filePath)
	fmt.Printf("  root page %d, height %d, %d pages in file\n",
		tree.RootPtr(), height, storage.TotalPages())
}

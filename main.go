package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"cowkv/btree"
)

func main() {
	filePath := flag.String("file", "", "back the tree with this file instead of memory")
	flag.Parse()

	var storage btree.Storage
	if *filePath != "" {
		disk, err := btree.NewDiskStorage(*filePath)
		if err != nil {
			log.Fatal(err)
		}
		storage = disk
	} else {
		storage = btree.NewMemoryStorage()
	}
	defer storage.Close()

	tree, err := btree.Init(storage)
	if err != nil {
		log.Fatal(err)
	}

	scanner := bufio.NewScanner(os.Stdin)
	// REPL
	for {
		fmt.Print("kv> ")

		if !scanner.Scan() { // Ctrl+D pressed
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.EqualFold(line, "exit") {
			break
		}

		fields := strings.Fields(line)
		switch strings.ToLower(fields[0]) {
		case "put":
			if len(fields) != 3 {
				fmt.Println("usage: put <key> <value>")
				continue
			}
			if err := tree.Put([]byte(fields[1]), []byte(fields[2])); err != nil {
				fmt.Printf("put failed: %v\n", err)
				continue
			}
			fmt.Printf("ok (root page %d)\n", tree.RootPtr())
		case "get":
			if len(fields) != 2 {
				fmt.Println("usage: get <key>")
				continue
			}
			value, err := tree.Get([]byte(fields[1]))
			if err != nil {
				fmt.Printf("get failed: %v\n", err)
				continue
			}
			if value == nil {
				fmt.Printf("%s not found\n", fields[1])
				continue
			}
			fmt.Printf("%s\n", value)
		case "dump":
			if err := tree.DumpTo(os.Stdout); err != nil {
				fmt.Printf("dump failed: %v\n", err)
			}
		default:
			fmt.Println("commands: put <key> <value> | get <key> | dump | exit")
		}
	}
}

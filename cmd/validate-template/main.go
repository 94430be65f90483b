package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/blockedby/autorecruit/internal/contacts"
	"github.com/blockedby/autorecruit/internal/render"
)

func main() {
	contactsPath := flag.String("contacts", "", "Contacts table whose columns every placeholder must match")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Println("No files to check.")
		os.Exit(0)
	}

	var columns []string
	if *contactsPath != "" {
		list, err := contacts.LoadFile(*contactsPath)
		if err != nil {
			fmt.Printf("❌ Failed to load %s: %v\n", *contactsPath, err)
			os.Exit(1)
		}
		if len(list) == 0 {
			fmt.Printf("❌ %s has no contacts\n", *contactsPath)
			os.Exit(1)
		}
		columns = list[0].Columns
	}

	failed := false
	for _, path := range flag.Args() {
		tmpl, err := render.LoadFile(path)
		if err != nil {
			fmt.Printf("❌ Invalid template %s: %v\n", path, err)
			failed = true
			continue
		}

		if columns != nil {
			if missing := tmpl.Check(columns); len(missing) > 0 {
				fmt.Printf("❌ %s uses placeholders missing from %s: %s\n", path, *contactsPath, strings.Join(missing, ", "))
				failed = true
				continue
			}
		}
		fmt.Printf("✅ %s is valid (placeholders: %s)\n", path, strings.Join(tmpl.Placeholders(), ", "))
	}

	if failed {
		os.Exit(1)
	}
}

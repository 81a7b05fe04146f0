// Command groupctl manages the group catalogue from the command line.
// Groups are operator-curated; the web surface only reads them.
//
//	groupctl create -title "Cats" -slug cats -description "Feline matters"
//	groupctl delete -slug cats
//	groupctl list
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"inkwell/internal/config"
	"inkwell/internal/database"
	"inkwell/internal/repository"
	"inkwell/internal/service"

	"github.com/joho/godotenv"
)

func main() {
	if len(os.Args) < 2 {
		usage()
	}

	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	groupRepo := repository.NewGroupRepository(db)
	groups := service.NewGroupService(groupRepo)
	ctx := context.Background()

	switch os.Args[1] {
	case "create":
		fs := flag.NewFlagSet("create", flag.ExitOnError)
		title := fs.String("title", "", "group title")
		slug := fs.String("slug", "", "group slug (lowercase letters, digits, hyphens)")
		description := fs.String("description", "", "group description")
		fs.Parse(os.Args[2:])

		group, err := groups.Create(ctx, *title, *slug, *description)
		if err != nil {
			log.Fatalf("Failed to create group: %v", err)
		}
		fmt.Printf("Created group %q (/group/%s)\n", group.Title, group.Slug)

	case "delete":
		fs := flag.NewFlagSet("delete", flag.ExitOnError)
		slug := fs.String("slug", "", "slug of the group to delete")
		fs.Parse(os.Args[2:])

		if err := groups.Delete(ctx, *slug); err != nil {
			log.Fatalf("Failed to delete group: %v", err)
		}
		fmt.Printf("Deleted group %s; its posts were detached\n", *slug)

	case "list":
		all, err := groupRepo.List(ctx)
		if err != nil {
			log.Fatalf("Failed to list groups: %v", err)
		}
		for _, group := range all {
			fmt.Printf("%-20s /group/%s\n", group.Title, group.Slug)
		}

	default:
		usage()
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: groupctl <create|delete|list> [flags]")
	os.Exit(2)
}

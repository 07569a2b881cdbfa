package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/alextreichler/tienda/internal/config"
	"github.com/alextreichler/tienda/internal/store"
	"golang.org/x/crypto/bcrypt"
)

const usage = "expected 'migrate' or 'add-staff' subcommand"

func main() {
	addStaffCmd := flag.NewFlagSet("add-staff", flag.ExitOnError)
	username := addStaffCmd.String("username", "", "Username for the new staff account")
	password := addStaffCmd.String("password", "", "Password for the new staff account")

	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	switch os.Args[1] {
	case "migrate":
		db := openStore()
		defer db.Close()
		fmt.Println("Database is up to date.")
	case "add-staff":
		addStaffCmd.Parse(os.Args[2:])
		if *username == "" || *password == "" {
			fmt.Println("username and password are required")
			addStaffCmd.PrintDefaults()
			os.Exit(1)
		}
		createStaff(*username, *password)
	default:
		fmt.Println(usage)
		os.Exit(1)
	}
}

// openStore opens DB_PATH and applies pending migrations, so the CLI can run
// before the server ever has.
func openStore() *store.Store {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := store.NewStore(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	return db
}

func createStaff(username, password string) {
	db := openStore()
	defer db.Close()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	if err := db.CreateStaff(context.Background(), username, string(hashedPassword)); err != nil {
		log.Fatalf("Failed to create staff account: %v", err)
	}

	fmt.Printf("Staff account '%s' created successfully.\n", username)
}

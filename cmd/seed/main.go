package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/acgh213/pointstracker/internal/db"
)

var defaultCategories = []struct {
	Name   string
	Points int
}{
	{"Chapter Meeting", 10},
	{"New Member Education", 3},
	{"Event Setup", 2},
	{"Event Cleanup", 2},
	{"Sober Brother (Exchange)", 4},
	{"Sober Brother (Party/Tailgate)", 7},
	{"Supply Run (Driver)", 7},
	{"Supply Run (Passenger)", 3},
	{"DJ Work (per hour, max 15)", 5},
	{"DJ Learning Session", 10},
}

var defaultMembers = []string{
	"Dylan Goldman", "Nevan Hanford", "Michael Dunn", "Eddie Maxwell",
	"Ezra Schaffer", "Ben Goldberg", "Andrew Petlak", "Jacob Siegel",
	"Nathan Yafeh", "Jacob Zeelander", "Blake Glickman", "Ben Weiss-Ishai",
	"Nate Frank", "Shai Grossman", "Roni Kriger", "Asher Bailey",
	"Roy Ruppin", "Noah Fields", "David Levin",
	"Gideon Goldberg", "Ziv Behar", "Jacob Hedges", "Roy Almog",
	"Dan Honigstein", "Solel Marques", "Dash Rader", "Noam Hoffman",
	"Alan Krapivner", "Aiden Mertzel", "Cole Kellison", "Jasper Vyda",
	"Liad Shaphir", "Patrick Van Kerckhove", "Ben Matinfar", "Henry Speiser",
	"Spencer Lee", "Adam Faradjev",
}

func main() {
	_ = godotenv.Load()

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		log.Fatal("DATABASE_URL is required")
	}

	if err := db.RunMigrations(databaseURL); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer pool.Close()

	// Seed categories if empty
	var count int
	if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM categories").Scan(&count); err != nil {
		log.Fatalf("failed to count categories: %v", err)
	}
	if count == 0 {
		for _, c := range defaultCategories {
			if _, err := pool.Exec(ctx, `
				INSERT INTO categories (name, default_points) VALUES ($1, $2)
			`, c.Name, c.Points); err != nil {
				log.Fatalf("failed to create category %q: %v", c.Name, err)
			}
		}
		fmt.Printf("Created %d categories\n", len(defaultCategories))
	} else {
		fmt.Println("Categories already present. Skipping.")
	}

	// Seed members if empty
	if err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM members").Scan(&count); err != nil {
		log.Fatalf("failed to count members: %v", err)
	}
	if count == 0 {
		for _, name := range defaultMembers {
			if _, err := pool.Exec(ctx, `
				INSERT INTO members (name) VALUES ($1) ON CONFLICT DO NOTHING
			`, name); err != nil {
				log.Fatalf("failed to create member %q: %v", name, err)
			}
		}
		fmt.Printf("Created %d members\n", len(defaultMembers))
	} else {
		fmt.Println("Members already present. Skipping.")
	}

	fmt.Println("\n=== Seed Complete ===")
}

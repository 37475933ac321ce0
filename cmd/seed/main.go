// Command main seeds the Cafedex database with city reference data and an
// optional demo dataset.
package main

import (
	"flag"
	"log"

	"cafedex/internal/config"
	"cafedex/internal/database"
	"cafedex/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 10, "Number of demo users to create")
	numCafes := flag.Int("cafes", 15, "Number of demo cafes to create")
	demo := flag.Bool("demo", false, "Also create a fake demo dataset")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if _, err := database.Connect(cfg); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := seed.SeedCities(database.DB); err != nil {
		log.Fatalf("City seeding failed: %v", err)
	}
	log.Println("City reference data seeded")

	if *demo {
		if err := seed.Demo(database.DB, seed.DemoOptions{
			Users: *numUsers,
			Cafes: *numCafes,
		}); err != nil {
			log.Fatalf("Demo seeding failed: %v", err)
		}
		log.Printf("Demo dataset seeded: %d users, %d cafes", *numUsers, *numCafes)
	}
}

package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"surveywizard/internal/model"
	"surveywizard/internal/repository"
)

func main() {
	file := flag.String("file", "", "YAML survey definition to seed (default: built-in survey)")
	flag.Parse()

	_ = godotenv.Load()

	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		mongoURI = "mongodb://localhost:27017"
	}
	dbName := os.Getenv("MONGO_DB")
	if dbName == "" {
		dbName = "surveywizard"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(ctx)

	survey := model.DefaultSurvey()
	if *file != "" {
		survey, err = repository.LoadSurveyFile(*file)
		if err != nil {
			log.Fatalf("Failed to load %s: %v", *file, err)
		}
	}
	if err := survey.Validate(); err != nil {
		log.Fatalf("Invalid survey: %v", err)
	}

	repo := repository.NewSurveyRepo(client.Database(dbName))
	if err := repo.Upsert(ctx, survey); err != nil {
		log.Fatalf("Failed to seed survey: %v", err)
	}

	log.Printf("Seeded survey %q (%s) with %d questions", survey.Title, survey.ID, len(survey.Questions))
	log.Printf("Run the server with SURVEY_ID=%s to serve it", survey.ID)
}

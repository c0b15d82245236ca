package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/peifeira/peifeira-api/internal/config"
	"github.com/peifeira/peifeira-api/internal/database"
	"github.com/peifeira/peifeira-api/internal/logging"
	"github.com/peifeira/peifeira-api/internal/models"
	"github.com/peifeira/peifeira-api/internal/services"
)

func main() {
	id := flag.String("id", "", "student profile id (generated when empty)")
	name := flag.String("name", "", "student name")
	email := flag.String("email", "", "student email")
	inactive := flag.Bool("inactive", false, "register the profile as inactive")
	token := flag.Bool("token", false, "print a student access token for local testing")
	flag.Parse()

	if *name == "" {
		fmt.Println("Usage: register-student -name <name> [-id <uuid>] [-email <email>] [-inactive] [-token]")
		os.Exit(1)
	}

	studentID := uuid.New()
	if *id != "" {
		parsed, err := uuid.Parse(*id)
		if err != nil {
			fmt.Printf("Invalid id %q: %v\n", *id, err)
			os.Exit(1)
		}
		studentID = parsed
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logging.Setup(cfg.LogLevel, cfg.LogFormat, cfg.IsProduction())
	log := logging.Component("register-student")

	ctx := context.Background()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	student, err := services.NewStudentService(db).Upsert(ctx, studentID, *name, *email, !*inactive)
	if err != nil {
		log.Fatalf("Failed to register student: %v", err)
	}

	fmt.Printf("Registered student %s (%s)\n", student.Name, student.ID)

	if *token {
		jwtService := services.NewJWTService(cfg.JWTSecret, cfg.JWTAccessExpiry)
		signed, err := jwtService.GenerateAccessToken(uuid.New(), student.Email, string(models.RoleStudent), &student.ID)
		if err != nil {
			log.Fatalf("Failed to sign token: %v", err)
		}
		fmt.Println(signed)
	}
}

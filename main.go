package main

import (
	"log"

	"github.com/joho/godotenv"

	"loan-scheduler/cmd"
	"loan-scheduler/config"
	"loan-scheduler/logger"
)

func main() {
	// .env es opcional
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: could not load .env file: %v", err)
	}

	if err := logger.Setup(config.Load().GetLoggerConfig()); err != nil {
		log.Printf("Warning: invalid logging configuration, using defaults: %v", err)
		if err := logger.Setup(logger.DefaultConfig()); err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
	}

	cmd.Execute()
}

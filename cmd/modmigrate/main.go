package main

import (
	"github.com/joho/godotenv"

	"modmigrate/internal/cli"
)

func main() {
	_ = godotenv.Load(".env")
	cli.Execute()
}

package main

import (
	"github.com/joho/godotenv"

	"github.com/sarchlab/bridgesim/bridgesim/cmd"
)

func main() {
	// A missing .env file is fine.
	_ = godotenv.Load()

	cmd.Execute()
}

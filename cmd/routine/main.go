package main

import (
	"log"

	"github.com/MrSnakeDoc/routine/internal/app"
)

func main() {
	a, err := app.New()
	if err != nil {
		log.Fatalf("❌ routine failed to start: %v", err)
	}
	if err := a.Run(); err != nil {
		log.Fatalf("❌ routine stopped with error: %v", err)
	}
}

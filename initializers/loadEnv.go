package initializers

import (
	"log"

	"github.com/joho/godotenv"
)

// LoadEnv reads .env (or the given files) into the process environment.
// Variables already set in the environment win.
func LoadEnv(files ...string) {
	if err := godotenv.Load(files...); err != nil {
		log.Println("No .env file loaded, using process environment")
	}
}

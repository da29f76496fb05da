// hecssim runs the power-grid co-simulation study case: relay protection and
// a frequency-responsive virtual power plant driven by one discrete-event
// scheduler.
package main

import (
	"github.com/joho/godotenv"
	"github.com/tebeka/atexit"
)

func main() {
	// Optional .env file for defaults; flags still win.
	_ = godotenv.Load()

	Execute()
	atexit.Exit(0)
}

package main // Entry point for the notification feed worker

import (
	"log"

	"github.com/joho/godotenv"

	"github.com/atharvamit-2203/campus-room-booking/internal/queue"
)

// The notifier consumes booking.confirmed and booking.cancelled events and
// appends them to the notification feed log.  It runs as a separate
// process so broker hiccups never slow down request handling.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}
	log.Printf("notifier starting")
	if err := queue.StartBookingConsumer(); err != nil {
		log.Fatalf("consumer stopped: %v", err)
	}
}

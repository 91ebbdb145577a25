package config // package config loads application configuration from environment variables

import (
	"log"
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, ints and durations
// for limits and policy knobs.
type Config struct {
	Env       string // application environment (e.g. "dev", "prod")
	Port      string // HTTP port to listen on
	DBUser    string // database username
	DBPass    string // database password (optional)
	DBHost    string // database host address
	DBPort    string // database port number
	DBName    string // database name
	JWTSecret string // secret used to verify bearer tokens

	Booking BookingPolicy // booking policy knobs
}

// BookingPolicy carries product-level decisions that the booking core
// treats as configuration rather than invariants.  Rejecting past-dated
// bookings is a policy choice, not a correctness requirement, so it gets a
// toggle; the campus operating day bounds the free-gap projection.
type BookingPolicy struct {
	RejectPast    bool           // refuse bookings for days before today
	DayStart      string         // first bookable wall-clock time, "HH:MM"
	DayEnd        string         // end of the bookable day (exclusive), "HH:MM"
	Timezone      *time.Location // single institutional timezone
	MaxRetries    int            // bounded retries for transient storage failures
	RetryBackoff  time.Duration  // initial backoff between retries, doubled each attempt
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.
func Load() Config {
	return Config{
		Env:       must("APP_ENV"),
		Port:      must("APP_PORT"),
		DBUser:    must("DB_USER"),
		DBPass:    os.Getenv("DB_PASS"), // empty allowed
		DBHost:    must("DB_HOST"),
		DBPort:    must("DB_PORT"),
		DBName:    must("DB_NAME"),
		JWTSecret: must("JWT_SECRET"),
		Booking:   loadBookingPolicy(),
	}
}

func loadBookingPolicy() BookingPolicy {
	tzName := envStr("BOOKING_TIMEZONE", "Local")
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		log.Fatalf("invalid BOOKING_TIMEZONE %q: %v", tzName, err)
	}
	return BookingPolicy{
		RejectPast:   envBool("BOOKING_REJECT_PAST", true),
		DayStart:     envStr("BOOKING_DAY_START", "07:00"),
		DayEnd:       envStr("BOOKING_DAY_END", "22:00"),
		Timezone:     loc,
		MaxRetries:   envInt("BOOKING_MAX_RETRIES", 3),
		RetryBackoff: envDur("BOOKING_RETRY_BACKOFF", 50*time.Millisecond),
	}
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// envStr, envBool, envInt and envDur read optional environment variables,
// falling back to the supplied default on absence or parse failure.  They
// are shared by every sub-config in this package.
func envStr(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func envBool(k string, d bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "True", "yes", "YES", "on", "ON":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "off", "OFF":
		return false
	}
	return d
}

func envInt(k string, d int) int {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return d
}

func envDur(k string, d time.Duration) time.Duration {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	if dur, err := time.ParseDuration(v); err == nil {
		return dur
	}
	return d
}

package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/Rizwan-Ijaz/route-optimization-backend/internal/model"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig
	Google   GoogleConfig
	Solver   SolverConfig
	Postgres PostgresConfig
	Redis    RedisConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	// ResultFile is where the last successful solve is persisted for GET.
	ResultFile string
}

// GoogleConfig holds the Maps Platform settings. An empty APIKey switches
// the service to the offline haversine matrix estimator.
type GoogleConfig struct {
	APIKey         string
	MatrixCacheTTL time.Duration
}

// SolverConfig holds the routing solver settings: depot, fleet, windows,
// penalties, and the search time limit.
type SolverConfig struct {
	DepotLat                 float64
	DepotLon                 float64
	FleetSeatCapacities      []int
	FleetWheelchairCapacities []int
	TimeLimit                time.Duration
	ServiceTime              time.Duration
	PickupWindowTolerance    time.Duration
	DeliveryWindowLate       time.Duration
	DropPenalty              int64
	Seed                     int64
}

// Depot returns the configured depot coordinate.
func (s *SolverConfig) Depot() model.Coordinates {
	return model.Coordinates{Latitude: s.DepotLat, Longitude: s.DepotLon}
}

// Fleet builds the vehicle list from the capacity lists. The two lists
// must have equal length; Load validates that.
func (s *SolverConfig) Fleet() []model.Vehicle {
	fleet := make([]model.Vehicle, len(s.FleetSeatCapacities))
	for i := range fleet {
		fleet[i] = model.Vehicle{
			ID:                 i,
			SeatCapacity:       s.FleetSeatCapacities[i],
			WheelchairCapacity: s.FleetWheelchairCapacities[i],
		}
	}
	return fleet
}

// PostgresConfig holds PostgreSQL connection settings. The solve-history
// repository is optional: Enabled=false runs the service on the result
// file alone.
type PostgresConfig struct {
	Enabled  bool
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

// RedisConfig holds Redis connection settings for the matrix/geocode cache.
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	PoolSize int
}

// DSN returns the PostgreSQL connection string.
func (p *PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.DBName, p.SSLMode,
	)
}

// Addr returns the Redis address in host:port format.
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// ServerAddr returns the HTTP listen address in host:port format.
func (s *ServerConfig) ServerAddr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// Load reads configuration from environment variables and .env file.
func Load() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// ── Defaults ────────────────────────────────────────
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_PORT", 8080)
	viper.SetDefault("SERVER_READ_TIMEOUT", "10s")
	viper.SetDefault("SERVER_WRITE_TIMEOUT", "120s")
	viper.SetDefault("SERVER_IDLE_TIMEOUT", "120s")
	viper.SetDefault("RESULT_FILE", "optimized_routes_response.json")

	viper.SetDefault("GOOGLE_API_KEY", "")
	viper.SetDefault("MATRIX_CACHE_TTL", "24h")

	// Dummy depot: the dispatch office in Rotterdam.
	viper.SetDefault("DEPOT_LAT", 51.92173421692392)
	viper.SetDefault("DEPOT_LON", 4.487105575001821)
	viper.SetDefault("FLEET_SEAT_CAPACITIES", "8,8,8,8")
	viper.SetDefault("FLEET_WHEELCHAIR_CAPACITIES", "2,2,2,0")
	viper.SetDefault("SOLVE_TIME_LIMIT_SEC", 30)
	viper.SetDefault("SERVICE_TIME_SEC", 300)
	viper.SetDefault("PICKUP_WINDOW_TOLERANCE_SEC", 1500)
	viper.SetDefault("DELIVERY_WINDOW_LATE_SEC", 1500)
	viper.SetDefault("DROP_PENALTY", 100_000_000)
	viper.SetDefault("SOLVER_SEED", 1)

	viper.SetDefault("POSTGRES_ENABLED", false)
	viper.SetDefault("POSTGRES_HOST", "localhost")
	viper.SetDefault("POSTGRES_PORT", 5432)
	viper.SetDefault("POSTGRES_USER", "routing")
	viper.SetDefault("POSTGRES_PASSWORD", "routing_secret")
	viper.SetDefault("POSTGRES_DB", "routing_db")
	viper.SetDefault("POSTGRES_SSLMODE", "disable")
	viper.SetDefault("POSTGRES_MAX_CONNS", 10)
	viper.SetDefault("POSTGRES_MIN_CONNS", 2)

	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", 6379)
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("REDIS_POOL_SIZE", 20)

	// Try to read .env file. If it doesn't exist (e.g., inside Docker),
	// env vars injected by docker-compose env_file are used instead.
	_ = viper.ReadInConfig()

	cfg := &Config{}

	// ── Server ──────────────────────────────────────────
	cfg.Server = ServerConfig{
		Host:         viper.GetString("SERVER_HOST"),
		Port:         viper.GetInt("SERVER_PORT"),
		ReadTimeout:  viper.GetDuration("SERVER_READ_TIMEOUT"),
		WriteTimeout: viper.GetDuration("SERVER_WRITE_TIMEOUT"),
		IdleTimeout:  viper.GetDuration("SERVER_IDLE_TIMEOUT"),
		ResultFile:   viper.GetString("RESULT_FILE"),
	}

	// ── Google Maps ─────────────────────────────────────
	cfg.Google = GoogleConfig{
		APIKey:         viper.GetString("GOOGLE_API_KEY"),
		MatrixCacheTTL: viper.GetDuration("MATRIX_CACHE_TTL"),
	}

	// ── Solver ──────────────────────────────────────────
	seats, err := parseIntList(viper.GetString("FLEET_SEAT_CAPACITIES"))
	if err != nil {
		return nil, fmt.Errorf("config: FLEET_SEAT_CAPACITIES: %w", err)
	}
	chairs, err := parseIntList(viper.GetString("FLEET_WHEELCHAIR_CAPACITIES"))
	if err != nil {
		return nil, fmt.Errorf("config: FLEET_WHEELCHAIR_CAPACITIES: %w", err)
	}
	if len(seats) == 0 || len(seats) != len(chairs) {
		return nil, fmt.Errorf("config: fleet capacity lists must be non-empty and equal length, got %d seats / %d wheelchairs",
			len(seats), len(chairs))
	}

	cfg.Solver = SolverConfig{
		DepotLat:                  viper.GetFloat64("DEPOT_LAT"),
		DepotLon:                  viper.GetFloat64("DEPOT_LON"),
		FleetSeatCapacities:       seats,
		FleetWheelchairCapacities: chairs,
		TimeLimit:                 time.Duration(viper.GetInt("SOLVE_TIME_LIMIT_SEC")) * time.Second,
		ServiceTime:               time.Duration(viper.GetInt("SERVICE_TIME_SEC")) * time.Second,
		PickupWindowTolerance:     time.Duration(viper.GetInt("PICKUP_WINDOW_TOLERANCE_SEC")) * time.Second,
		DeliveryWindowLate:        time.Duration(viper.GetInt("DELIVERY_WINDOW_LATE_SEC")) * time.Second,
		DropPenalty:               viper.GetInt64("DROP_PENALTY"),
		Seed:                      viper.GetInt64("SOLVER_SEED"),
	}

	// ── Postgres ────────────────────────────────────────
	cfg.Postgres = PostgresConfig{
		Enabled:  viper.GetBool("POSTGRES_ENABLED"),
		Host:     viper.GetString("POSTGRES_HOST"),
		Port:     viper.GetInt("POSTGRES_PORT"),
		User:     viper.GetString("POSTGRES_USER"),
		Password: viper.GetString("POSTGRES_PASSWORD"),
		DBName:   viper.GetString("POSTGRES_DB"),
		SSLMode:  viper.GetString("POSTGRES_SSLMODE"),
		MaxConns: viper.GetInt32("POSTGRES_MAX_CONNS"),
		MinConns: viper.GetInt32("POSTGRES_MIN_CONNS"),
	}

	// ── Redis ───────────────────────────────────────────
	cfg.Redis = RedisConfig{
		Host:     viper.GetString("REDIS_HOST"),
		Port:     viper.GetInt("REDIS_PORT"),
		Password: viper.GetString("REDIS_PASSWORD"),
		DB:       viper.GetInt("REDIS_DB"),
		PoolSize: viper.GetInt("REDIS_POOL_SIZE"),
	}

	return cfg, nil
}

func parseIntList(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid capacity %q", part)
		}
		out = append(out, v)
	}
	return out, nil
}

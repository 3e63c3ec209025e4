// Package registry persists decoded vehicles in Neo4j. Each valid VIN becomes
// a :Vehicle node linked to the :Manufacturer node of its WMI.
package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/WessleyAI/vindecoder/engine/decode"
	"github.com/WessleyAI/vindecoder/engine/domain"
	"github.com/WessleyAI/vindecoder/pkg/repo"
)

// ErrNotFound is returned by Get for an unknown VIN.
var ErrNotFound = repo.ErrNotFound

// Vehicle is a stored decode result.
type Vehicle struct {
	VIN          string    `json:"vin"`
	WMI          string    `json:"wmi"`
	Region       string    `json:"region,omitempty"`
	Country      string    `json:"country,omitempty"`
	Manufacturer string    `json:"manufacturer,omitempty"`
	Make         string    `json:"make,omitempty"`
	Model        string    `json:"model,omitempty"`
	ModelYear    int       `json:"model_year,omitempty"`
	Source       string    `json:"source,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ManufacturerCount is one row of TopManufacturers.
type ManufacturerCount struct {
	WMI      string `json:"wmi"`
	Name     string `json:"name,omitempty"`
	Vehicles int64  `json:"vehicles"`
}

// Store reads and writes vehicles.
type Store struct {
	vehicles *repo.Neo4jRepo[Vehicle, string]
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Store.
type Option func(*storeConfig)

type storeConfig struct {
	database string
	runner   func(context.Context, neo4j.AccessMode) repo.Runner
}

// WithDatabase selects a non-default Neo4j database.
func WithDatabase(name string) Option { return func(c *storeConfig) { c.database = name } }

// WithRunner replaces the driver session, for tests.
func WithRunner(f func(context.Context, neo4j.AccessMode) repo.Runner) Option {
	return func(c *storeConfig) { c.runner = f }
}

// New creates a Store on driver.
func New(driver neo4j.DriverWithContext, logger *slog.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	var cfg storeConfig
	for _, o := range opts {
		o(&cfg)
	}
	ropts := []repo.Neo4jOption[Vehicle, string]{
		repo.WithIDKey[Vehicle, string]("vin"),
		repo.WithOrderBy[Vehicle, string]("n.updated_at DESC, n.vin"),
	}
	if cfg.database != "" {
		ropts = append(ropts, repo.WithDatabase[Vehicle, string](cfg.database))
	}
	if cfg.runner != nil {
		ropts = append(ropts, repo.WithRunner[Vehicle, string](cfg.runner))
	}
	return &Store{
		vehicles: repo.NewNeo4jRepo[Vehicle, string](driver, "Vehicle", vehicleToMap, vehicleFromRecord, ropts...),
		logger:   logger,
		now:      time.Now,
	}
}

// EnsureSchema creates the uniqueness constraints the MERGEs rely on.
func (s *Store) EnsureSchema(ctx context.Context) error {
	for _, stmt := range []string{
		"CREATE CONSTRAINT vehicle_vin IF NOT EXISTS FOR (v:Vehicle) REQUIRE v.vin IS UNIQUE",
		"CREATE CONSTRAINT manufacturer_wmi IF NOT EXISTS FOR (m:Manufacturer) REQUIRE m.wmi IS UNIQUE",
	} {
		if err := s.vehicles.Exec(ctx, stmt, nil); err != nil {
			return fmt.Errorf("registry schema: %w", err)
		}
	}
	return nil
}

// Save upserts a valid report. Invalid reports are rejected with an error
// wrapping domain.ErrInvalidVIN.
func (s *Store) Save(ctx context.Context, r decode.Report) (Vehicle, error) {
	if !r.Valid {
		return Vehicle{}, domain.NewValidationError("vin", r.VIN, domain.ErrInvalidVIN)
	}
	if err := domain.ValidateVIN(r.VIN); err != nil {
		return Vehicle{}, err
	}

	link := repo.Statement{
		Cypher: `
		MERGE (m:Manufacturer {wmi: $wmi})
		SET m.region = $region, m.country = $country,
		    m.name = CASE WHEN $name = '' THEN m.name ELSE $name END
		WITH m
		MATCH (v:Vehicle {vin: $vin})
		MERGE (v)-[:MADE_BY]->(m)`,
		Params: map[string]any{
			"wmi":     r.WMI,
			"vin":     r.VIN,
			"name":    r.Manufacturer,
			"region":  r.Region,
			"country": r.Country,
		},
	}
	v, err := s.vehicles.UpsertWith(ctx, Vehicle{
		VIN:          r.VIN,
		WMI:          r.WMI,
		Region:       r.Region,
		Country:      r.Country,
		Manufacturer: r.Manufacturer,
		Make:         r.Make,
		Model:        r.Model,
		ModelYear:    r.ModelYear,
		Source:       r.Source,
		UpdatedAt:    s.now().UTC(),
	}, link)
	if err != nil {
		return Vehicle{}, fmt.Errorf("save vehicle %s: %w", r.VIN, err)
	}
	s.logger.Debug("vehicle saved", "vin", r.VIN, "wmi", r.WMI)
	return v, nil
}

// Get returns the stored vehicle for a VIN, normalized to upper case.
func (s *Store) Get(ctx context.Context, vin string) (Vehicle, error) {
	if err := domain.ValidateVIN(vin); err != nil {
		return Vehicle{}, err
	}
	return s.vehicles.Get(ctx, normalize(vin))
}

// List returns stored vehicles, most recently updated first.
func (s *Store) List(ctx context.Context, opts repo.ListOpts) ([]Vehicle, error) {
	return s.vehicles.List(ctx, opts)
}

// Count returns the number of stored vehicles.
func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.vehicles.Count(ctx)
}

// TopManufacturers returns the WMIs with the most stored vehicles.
func (s *Store) TopManufacturers(ctx context.Context, limit int) ([]ManufacturerCount, error) {
	if limit <= 0 {
		limit = 10
	}
	var out []ManufacturerCount
	err := s.vehicles.Query(ctx, `
		MATCH (v:Vehicle)-[:MADE_BY]->(m:Manufacturer)
		RETURN m.wmi AS wmi, coalesce(m.name, '') AS name, count(v) AS vehicles
		ORDER BY vehicles DESC, wmi
		LIMIT $limit`,
		map[string]any{"limit": limit},
		func(rec *neo4j.Record) error {
			var mc ManufacturerCount
			var err error
			if mc.WMI, _, err = neo4j.GetRecordValue[string](rec, "wmi"); err != nil {
				return err
			}
			if mc.Name, _, err = neo4j.GetRecordValue[string](rec, "name"); err != nil {
				return err
			}
			if mc.Vehicles, _, err = neo4j.GetRecordValue[int64](rec, "vehicles"); err != nil {
				return err
			}
			out = append(out, mc)
			return nil
		})
	return out, err
}

// IsNotFound reports whether err means the VIN is not stored.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

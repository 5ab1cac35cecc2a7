package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"salonhub/internal/availability"
	"salonhub/internal/database"
	"salonhub/internal/models"
	"salonhub/internal/service"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"
)

type seedFile struct {
	Salons []seedSalon `yaml:"salons"`
}

type seedSalon struct {
	Name     string                      `yaml:"name"`
	Address  string                      `yaml:"address"`
	Timezone string                      `yaml:"timezone"`
	Hours    availability.OperatingHours `yaml:"hours"`
	Services []seedService               `yaml:"services"`
	Staff    []string                    `yaml:"staff"`
}

type seedService struct {
	Name            string  `yaml:"name"`
	DurationMinutes int     `yaml:"duration_minutes"`
	Price           float64 `yaml:"price"`
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	var (
		seedsPath = flag.String("seeds", "configs/salons.example.yaml", "path to salons seed yaml")
		dbPath    = flag.String("db", "./data/salonhub.db", "path to sqlite db")
	)
	flag.Parse()

	data, err := os.ReadFile(*seedsPath)
	if err != nil {
		return fmt.Errorf("read seeds: %w", err)
	}
	seeds, err := parseSeeds(data)
	if err != nil {
		return err
	}

	db, err := database.NewDB(*dbPath, &logger)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	created, skipped, err := seed(ctx, service.NewCatalogService(db, &logger), seeds)
	if err != nil {
		return err
	}

	logger.Info().Int("created", created).Int("skipped", skipped).Msg("salon seeding finished")
	return nil
}

func parseSeeds(data []byte) (*seedFile, error) {
	var seeds seedFile
	if err := yaml.Unmarshal(data, &seeds); err != nil {
		return nil, fmt.Errorf("parse seeds: %w", err)
	}
	if len(seeds.Salons) == 0 {
		return nil, fmt.Errorf("no salons in yaml")
	}
	return &seeds, nil
}

// seed creates every salon whose name is not present yet, with its services and staff.
func seed(ctx context.Context, catalog *service.CatalogService, seeds *seedFile) (created, skipped int, err error) {
	existing, err := catalog.ListSalons(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("list salons: %w", err)
	}
	known := make(map[string]bool, len(existing))
	for _, s := range existing {
		known[s.Name] = true
	}

	for _, s := range seeds.Salons {
		if known[s.Name] {
			skipped++
			continue
		}

		salon := &models.Salon{Name: s.Name, Address: s.Address, Timezone: s.Timezone, Hours: s.Hours}
		if err := catalog.CreateSalon(ctx, salon); err != nil {
			return created, skipped, fmt.Errorf("salon %q: %w", s.Name, err)
		}
		for _, svc := range s.Services {
			if err := catalog.CreateService(ctx, &models.Service{
				SalonID:         salon.ID,
				Name:            svc.Name,
				DurationMinutes: svc.DurationMinutes,
				Price:           svc.Price,
			}); err != nil {
				return created, skipped, fmt.Errorf("salon %q service %q: %w", s.Name, svc.Name, err)
			}
		}
		for _, name := range s.Staff {
			if err := catalog.CreateStaff(ctx, &models.Staff{SalonID: salon.ID, Name: name}); err != nil {
				return created, skipped, fmt.Errorf("salon %q staff %q: %w", s.Name, name, err)
			}
		}
		known[s.Name] = true
		created++
	}
	return created, skipped, nil
}

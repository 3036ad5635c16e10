package main

import (
	"context"
	"fmt"
	"time"

	"github.com/quocanhngo/deadlinemind/internal/bootstrap"
	"github.com/quocanhngo/deadlinemind/internal/config"
	"github.com/quocanhngo/deadlinemind/internal/model"
	"github.com/quocanhngo/deadlinemind/internal/repository"
	"github.com/quocanhngo/deadlinemind/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type seedVehicle struct {
	model        string
	registration string
	taxDays      int // days from today until tax expiry
	insDays      int
	insurer      string
}

type seedUser struct {
	id      string
	name    string
	email   string
	phone   string
	vehicle []seedVehicle
}

// Demo data covering every scan outcome: due, not yet due, expired and no contact
var seedUsers = []seedUser{
	{"seed-user-1", "Asha Perera", "asha@deadlinemind.local", "+94 77 123 4567", []seedVehicle{
		{"Toyota Aqua", "CAB-1234", 5, 45, "Ceylinco"},
		{"Honda Vezel", "CBA-7788", 120, 3, "Allianz"},
	}},
	{"seed-user-2", "Ravi Fernando", "ravi@deadlinemind.local", "", []seedVehicle{
		{"Suzuki Wagon R", "KX-4521", 0, 7, "AIA"},
	}},
	{"seed-user-3", "Nimali Silva", "", "+94712223344", []seedVehicle{
		{"Nissan Leaf", "CAD-9090", 2, 200, ""},
	}},
	{"seed-user-4", "Kamal Jayasuriya", "kamal@deadlinemind.local", "+94701112233", []seedVehicle{
		{"Mitsubishi Montero", "WP-3003", -4, 30, "Union Assurance"},
	}},
}

func main() {
	cfg := config.Load()
	cfg.App.Env = "production" // keep GORM at warn level
	log := logger.New(logger.Config{Level: cfg.Log.Level, Format: "console"})
	defer func() { _ = log.Sync() }()

	if cfg.Store.Driver != config.StorePostgres {
		log.Fatal("❌ The seeder only supports the postgres data store", zap.String("store", cfg.Store.Driver))
	}

	db, err := bootstrap.OpenPostgres(cfg, log)
	if err != nil {
		log.Fatal("❌ Failed to connect to database", zap.Error(err))
	}

	ctx := context.Background()
	contacts := repository.NewContactRepository(db)
	vehicles := repository.NewVehicleRepository(db)
	today := time.Now().UTC().Truncate(24 * time.Hour)

	log.Info("🌱 Seeding users and vehicles...", zap.Int("users", len(seedUsers)))
	for _, u := range seedUsers {
		user := &model.User{ID: u.id, DisplayName: &u.name}
		if u.email != "" {
			user.Email = &u.email
		}
		if err := contacts.UpsertUser(ctx, user); err != nil {
			log.Error("❌ Failed to create user", zap.String("user", u.id), zap.Error(err))
			continue
		}
		if u.phone != "" {
			if err := contacts.SetPhoneNumber(ctx, u.id, u.phone); err != nil {
				log.Error("❌ Failed to set phone number", zap.String("user", u.id), zap.Error(err))
			}
		}

		for _, sv := range u.vehicle {
			if exists(db, sv.registration) {
				continue
			}
			v := &model.Vehicle{
				UserID:              u.id,
				Model:               sv.model,
				RegistrationNumber:  sv.registration,
				TaxExpiryDate:       today.AddDate(0, 0, sv.taxDays),
				InsuranceExpiryDate: today.AddDate(0, 0, sv.insDays),
			}
			if sv.insurer != "" {
				insurer := sv.insurer
				v.InsuranceCompany = &insurer
			}
			if err := vehicles.Create(ctx, v); err != nil {
				log.Error("❌ Failed to create vehicle", zap.String("registration", sv.registration), zap.Error(err))
				continue
			}
			log.Info(fmt.Sprintf("✅ Created vehicle %s", v.Label()), zap.String("user", u.id))
		}
	}

	log.Info("🎉 Seeding completed!")
}

func exists(db *gorm.DB, registration string) bool {
	var count int64
	db.Model(&model.Vehicle{}).Where("registration_number = ?", registration).Count(&count)
	return count > 0
}

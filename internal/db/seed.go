package db

import (
	"fmt"
	"math/rand"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/oggyb/matchbot/internal/logger"
)

var seedCities = []string{"Kyiv", "Lviv", "Frankfurt", "Berlin"}

var seedNames = []string{
	"Andrii", "Olena", "Taras", "Iryna", "Maksym", "Sofiia", "Dmytro", "Kateryna", "Bohdan", "Yulia",
	"Oleh", "Nataliia", "Serhii", "Mariia", "Yurii", "Anna", "Roman", "Daria", "Pavlo", "Viktoriia",
}

// SeedTestData resets the database and populates it with demo profiles and one-way likes.
//
// Behavior:
//  1. Clears every table owned by the core.
//  2. Creates 20 completed profiles (alternating male/female, mixed orientations,
//     ages 20-39, four cities) with ExternalID "demo-<n>".
//  3. Gives every 4th profile explicit search preferences.
//  4. Inserts ~60 one-way likes. Mutual likes are left to the swipe flow so matches are
//     always created by the match detector.
//
// Compatible with both MySQL and SQLite (AUTO_INCREMENT reset skipped for SQLite).
func SeedTestData(db *gorm.DB) error {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	// --- Fresh start ---
	tables := []string{"messages", "matches", "swipe_decisions", "block_relations", "reports", "search_preferences", "profiles"}
	for _, table := range tables {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	switch db.Dialector.Name() {
	case "mysql":
		db.Exec("ALTER TABLE profiles AUTO_INCREMENT = 1")
		db.Exec("ALTER TABLE matches AUTO_INCREMENT = 1")
	case "sqlite":
		db.Exec("DELETE FROM sqlite_sequence WHERE name IN ('profiles', 'matches', 'messages')")
	}

	logger.Info("cleared existing data")

	orientations := []Orientation{OrientationHetero, OrientationHetero, OrientationHetero, OrientationHomo, OrientationBi}
	profiles := make([]Profile, 0, len(seedNames))
	for i, name := range seedNames {
		gender := GenderMale
		if i%2 == 1 {
			gender = GenderFemale
		}
		profiles = append(profiles, Profile{
			ExternalID:  fmt.Sprintf("demo-%d", i+1),
			DisplayName: name,
			Age:         20 + r.Intn(20),
			Gender:      gender,
			Orientation: orientations[r.Intn(len(orientations))],
			City:        seedCities[r.Intn(len(seedCities))],
			Bio:         fmt.Sprintf("Hi, I'm %s.", name),
			Language:    "en",
			Completed:   true,
			Active:      true,
		})
	}
	if err := db.Create(&profiles).Error; err != nil {
		return fmt.Errorf("failed to seed profiles: %w", err)
	}
	logger.Info("seeded profiles", "count", len(profiles))

	for i := 0; i < len(profiles); i += 4 {
		pref := SearchPreference{ProfileID: profiles[i].ID, MinAge: 21, MaxAge: 35, CityOnly: i%8 == 0}
		if err := db.Create(&pref).Error; err != nil {
			return fmt.Errorf("failed to seed search preference: %w", err)
		}
	}

	// --- One-way likes ---
	seen := make(map[[2]uint64]bool)
	counter := 0
	for counter < 60 {
		swiper := profiles[r.Intn(len(profiles))].ID
		candidate := profiles[r.Intn(len(profiles))].ID
		if swiper == candidate || seen[[2]uint64{swiper, candidate}] || seen[[2]uint64{candidate, swiper}] {
			continue
		}
		seen[[2]uint64{swiper, candidate}] = true

		decision := SwipeDecision{SwiperID: swiper, CandidateID: candidate, Liked: r.Intn(100) < 70}
		if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&decision).Error; err != nil {
			return fmt.Errorf("failed to seed decision: %w", err)
		}
		counter++
	}
	logger.Info("seeded decisions", "count", counter)

	return nil
}

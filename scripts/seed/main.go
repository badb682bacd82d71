package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"github.com/campuskit/college-admin-api/internal/models"
	"github.com/campuskit/college-admin-api/pkg/config"
	"github.com/campuskit/college-admin-api/pkg/database"
)

// Seeds a fresh database with an admin account, one program with a small
// curriculum, and the current term. Safe to re-run; inserts skip existing
// rows by email/code.

func main() {
	var (
		adminEmail    string
		adminPassword string
	)
	flag.StringVar(&adminEmail, "admin-email", "admin@campuskit.local", "Email for the seeded admin account")
	flag.StringVar(&adminPassword, "admin-password", "changeme", "Password for the seeded admin account")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := seedAdmin(ctx, db, adminEmail, adminPassword); err != nil {
		log.Fatalf("seed admin: %v", err)
	}
	programID, err := seedProgram(ctx, db)
	if err != nil {
		log.Fatalf("seed program: %v", err)
	}
	if err := seedCurriculum(ctx, db, programID); err != nil {
		log.Fatalf("seed curriculum: %v", err)
	}
	if err := seedTerm(ctx, db); err != nil {
		log.Fatalf("seed term: %v", err)
	}

	log.Println("seed complete")
}

func seedAdmin(ctx context.Context, db *sqlx.DB, email, password string) error {
	var exists bool
	if err := db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email); err != nil {
		return err
	}
	if exists {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = db.ExecContext(ctx, `INSERT INTO users (id, email, password_hash, full_name, role, active, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, TRUE, NOW(), NOW())`,
		uuid.NewString(), email, string(hash), "System Administrator", models.RoleAdmin)
	return err
}

func seedProgram(ctx context.Context, db *sqlx.DB) (string, error) {
	var id string
	err := db.GetContext(ctx, &id, `SELECT id FROM programs WHERE code = $1`, "BSIT")
	if err == nil {
		return id, nil
	}

	id = uuid.NewString()
	_, err = db.ExecContext(ctx, `INSERT INTO programs (id, code, name, active, created_at) VALUES ($1, $2, $3, TRUE, NOW())`,
		id, "BSIT", "Bachelor of Science in Information Technology")
	return id, err
}

func seedCurriculum(ctx context.Context, db *sqlx.DB, programID string) error {
	courses := []struct {
		code  string
		title string
		year  int
		sem   int
		units int
	}{
		{"IT101", "Introduction to Computing", 1, 1, 3},
		{"IT102", "Computer Programming 1", 1, 1, 3},
		{"GE101", "Understanding the Self", 1, 1, 3},
		{"IT103", "Computer Programming 2", 1, 2, 3},
		{"IT104", "Discrete Mathematics", 1, 2, 3},
	}
	for _, course := range courses {
		var exists bool
		if err := db.GetContext(ctx, &exists,
			`SELECT EXISTS(SELECT 1 FROM program_courses WHERE program_id = $1 AND course_code = $2)`,
			programID, course.code); err != nil {
			return err
		}
		if exists {
			continue
		}
		if _, err := db.ExecContext(ctx, `INSERT INTO program_courses (id, program_id, course_code, course_title, year_level, semester, units, created_at)
            VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())`,
			uuid.NewString(), programID, course.code, course.title, course.year, course.sem, course.units); err != nil {
			return err
		}
	}
	return nil
}

func seedTerm(ctx context.Context, db *sqlx.DB) error {
	year := time.Now().Year()
	schoolYear := fmt.Sprintf("%d-%d", year, year+1)

	var exists bool
	if err := db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM terms WHERE school_year = $1 AND semester = 1)`, schoolYear); err != nil {
		return err
	}
	if exists {
		return nil
	}
	start := time.Date(year, time.August, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 5, 0)
	_, err := db.ExecContext(ctx, `INSERT INTO terms (id, school_year, semester, active, start_date, end_date) VALUES ($1, $2, 1, TRUE, $3, $4)`,
		uuid.NewString(), schoolYear, start, end)
	return err
}

package db

import (
	"database/sql"
	"fmt"
	"log"

	"VerseClash/config"

	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

var DB *sql.DB

// ConnectDB establishes a connection to the database.
func ConnectDB(cfg *config.Config) error {
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true",
		cfg.DBUser, cfg.DBPassword, cfg.DBHost, cfg.DBPort, cfg.DBName)

	var err error
	DB, err = sql.Open("mysql", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	if err = DB.Ping(); err != nil {
		DB.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Successfully connected to the database.")
	return nil
}

// InitDB initializes the database schema, creating tables if they don't exist.
func InitDB() error {
	if err := createUsersTable(); err != nil {
		return err
	}
	if err := createBattlesTable(); err != nil {
		return err
	}

	log.Println("Database initialization completed.")
	return nil
}

func createUsersTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		id INT AUTO_INCREMENT PRIMARY KEY,
		username VARCHAR(100) NOT NULL UNIQUE,
		email VARCHAR(255) NOT NULL UNIQUE,
		password_hash VARCHAR(255) NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP
	);
	`
	_, err := DB.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}
	log.Println("Users table initialized successfully (or already exists).")
	return nil
}

func createBattlesTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS battles (
		id VARCHAR(36) PRIMARY KEY,
		user_id INT,
		character1_id VARCHAR(64) NOT NULL,
		character2_id VARCHAR(64) NOT NULL,
		topic VARCHAR(255) NOT NULL,
		lyrics1 TEXT,
		lyrics2 TEXT,
		beat_name VARCHAR(100),
		beat_url VARCHAR(767),
		vocals_ref MEDIUMTEXT,
		mix_url VARCHAR(1024),
		mix_error VARCHAR(512),
		duration FLOAT,
		winner VARCHAR(64),
		judge1_name VARCHAR(100),
		commentary1 TEXT,
		judge2_name VARCHAR(100),
		commentary2 TEXT,
		is_public BOOLEAN DEFAULT TRUE,
		view_count BIGINT DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
		expires_at TIMESTAMP NULL,
		INDEX idx_battles_user (user_id),
		INDEX idx_battles_expires (expires_at)
	);
	`
	_, err := DB.Exec(query)
	if err != nil {
		return fmt.Errorf("failed to create battles table: %w", err)
	}
	log.Println("Battles table initialized successfully (or already exists).")
	return nil
}

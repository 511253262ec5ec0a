package main

import (
	"errors"
	"flag"
	"log"

	"gorm.io/gorm"

	"github.com/avelier/bookreviews/internal/config"
	"github.com/avelier/bookreviews/internal/hash"
	"github.com/avelier/bookreviews/internal/models"
)

// Creates an admin account, or promotes an existing user and resets their
// password. Meant for seeding the first administrator.
func main() {
	username := flag.String("username", "", "admin username")
	password := flag.String("password", "", "admin password")
	flag.Parse()

	if *username == "" || *password == "" {
		log.Fatal("both -username and -password are required")
	}
	if err := hash.ValidatePassword(*password); err != nil {
		log.Fatalf("invalid password: %v", err)
	}

	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	db, err := config.InitDB(configuration)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	pwHash, err := hash.HashPassword(*password)
	if err != nil {
		log.Fatalf("hash error: %v", err)
	}

	var user models.User
	err = db.Where("username = ?", *username).First(&user).Error
	switch {
	case err == nil:
		user.Admin = true
		user.PasswordHash = pwHash
		if err := db.Save(&user).Error; err != nil {
			log.Fatalf("failed to promote user: %v", err)
		}
		log.Printf("user %q promoted to admin", *username)
	case errors.Is(err, gorm.ErrRecordNotFound):
		user = models.User{Username: *username, PasswordHash: pwHash, Admin: true}
		if err := db.Create(&user).Error; err != nil {
			log.Fatalf("failed to create admin: %v", err)
		}
		log.Printf("admin %q created with id %d", *username, user.ID)
	default:
		log.Fatalf("db error: %v", err)
	}
}

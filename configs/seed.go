package configs

import (
	"smartorder/entity"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedStaff creates the first admin and chef accounts from env.
func SeedStaff(gdb *gorm.DB, log *logrus.Logger) error {
	staff := []struct{ emailKey, passKey, name, role string }{
		{"ADMIN_EMAIL", "ADMIN_PASSWORD", "Admin", entity.RoleAdmin},
		{"CHEF_EMAIL", "CHEF_PASSWORD", "Chef", entity.RoleChef},
	}
	for _, s := range staff {
		email := getEnv(s.emailKey, "")
		pass := getEnv(s.passKey, "")
		if email == "" || pass == "" {
			log.WithField("role", s.role).Info("skip seeding staff: missing credentials")
			continue
		}

		var count int64
		if err := gdb.Model(&entity.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(pass), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		u := entity.User{Email: email, Password: string(hash), Name: s.name, Role: s.role}
		if err := gdb.Create(&u).Error; err != nil {
			return err
		}
		log.WithFields(logrus.Fields{"email": email, "role": s.role}).Info("staff account seeded")
	}
	return nil
}

// SeedMenu fills an empty menu with the house items.
func SeedMenu(gdb *gorm.DB) error {
	var count int64
	if err := gdb.Model(&entity.MenuItem{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	items := []entity.MenuItem{
		{Name: "Zinger Burger", Category: "Burgers", Price: 499, Description: "Crispy fillet, lettuce, house mayo", Available: true},
		{Name: "Beef Smash Burger", Category: "Burgers", Price: 650, Description: "Double patty, cheddar, pickles", Available: true},
		{Name: "Loaded Fries", Category: "Sides", Price: 350, Description: "Cheese sauce, jalapenos", Available: true},
		{Name: "Chicken Wings (6)", Category: "Sides", Price: 420, Description: "Buffalo or BBQ", Available: true},
		{Name: "Mint Margarita", Category: "Drinks", Price: 250, Available: true},
		{Name: "Cold Coffee", Category: "Drinks", Price: 300, Available: true},
	}
	return gdb.Create(&items).Error
}

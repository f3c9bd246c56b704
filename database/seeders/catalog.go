package seeders

import (
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/mad23dog/nomad-detroit-coffee/app/models"
	"github.com/mad23dog/nomad-detroit-coffee/config"
)

func init() {
	Register("products", SeedProducts)
	Register("admin", SeedAdmin)
}

// SeedProducts inserts the coffee catalog. It only runs against an empty
// products table so re-seeding never duplicates rows or resets stock.
func SeedProducts(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Product{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	products := []models.Product{
		{
			Name:          "Ethiopia",
			Price:         22.00,
			Description:   "Washed Yirgacheffe with bright florals, lemon zest and a clean tea-like finish. Our lightest roast.",
			ImagePath:     "/images/ethiopia.jpg",
			StockQuantity: 100,
		},
		{
			Name:          "Guatemala",
			Price:         22.00,
			Description:   "Huehuetenango beans roasted medium. Caramel sweetness, milk chocolate and a soft orange acidity.",
			ImagePath:     "/images/guatemala.jpg",
			StockQuantity: 100,
		},
		{
			Name:          "Nicaragua",
			Price:         22.00,
			Description:   "A rounded medium-dark cup from Jinotega. Cocoa, toasted nuts and brown sugar with low acidity.",
			ImagePath:     "/images/nicaragua.jpg",
			StockQuantity: 100,
		},
		{
			Name:          "Vagabond",
			Price:         22.00,
			Description:   "Our signature blend for drifters. Dark chocolate, molasses and a smoky edge that holds up to milk.",
			ImagePath:     "/images/vagabond.jpg",
			StockQuantity: 100,
		},
		{
			Name:          "Decaf",
			Price:         22.00,
			Description:   "Swiss water process Colombian decaf. Sweet, nutty and smooth, all the flavor without the buzz.",
			ImagePath:     "/images/decaf.jpg",
			StockQuantity: 100,
		},
	}
	return db.Create(&products).Error
}

// SeedAdmin creates the bootstrap back-office account when ADMIN_USERNAME
// and ADMIN_PASSWORD are configured and the account does not exist yet.
func SeedAdmin(db *gorm.DB) error {
	username := config.AdminUsername()
	password := config.Get("ADMIN_PASSWORD", "")
	if username == "" || password == "" {
		return nil
	}

	var count int64
	if err := db.Model(&models.AdminUser{}).Where("username = ?", username).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return db.Create(&models.AdminUser{
		Username:     username,
		PasswordHash: string(hash),
	}).Error
}

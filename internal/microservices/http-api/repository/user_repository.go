package repository

import (
	"gorm.io/gorm"

	"github.com/suhashines/teamsync-backend/internal/microservices/http-api/models"
)

// UserRepository defines the interface for user data operations.
// The credential subsystem only reads users and persists credential changes;
// account creation lives with the rest of the user CRUD.
type UserRepository interface {
	FindByUsername(username string) (*models.User, error)
	FindByID(id string) (*models.User, error)
	FindByEmail(email string) (*models.User, error)
	Update(user *models.User) error
}

// userRepository is the GORM implementation of UserRepository.
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new instance of UserRepository in a GORM implementation
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) FindByUsername(username string) (*models.User, error) {
	var user models.User
	// check for the error if the user is not found
	if err := r.db.Where("username = ?", username).First(&user).Error; err != nil {
		// prevent returning a zero-value user struct => which make GORM think user is found => erroneous behavior
		// we do it for all query methods
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByID(id string) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FindByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Update(user *models.User) error {
	return r.db.Save(user).Error
}

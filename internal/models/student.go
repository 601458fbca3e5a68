package models

import (
	"time"

	"gorm.io/gorm"
)

type StudentRole string

const (
	RoleStudent StudentRole = "student"
	RoleAdmin   StudentRole = "admin"
)

// Student is one roster row. The login doubles as the authenticated identity
// everywhere else in the system.
type Student struct {
	Login        string      `json:"login" gorm:"primaryKey;size:100"`
	LastName     string      `json:"nom" gorm:"not null;size:100"`
	FirstName    string      `json:"prenom" gorm:"not null;size:100"`
	PasswordHash string      `json:"-" gorm:"not null;size:100"`
	Department   string      `json:"departement" gorm:"size:100;index"`
	Track        string      `json:"filiere" gorm:"size:100;index"`
	Year         string      `json:"annee" gorm:"size:50"`
	Role         StudentRole `json:"role" gorm:"default:student;size:20"`
	Email        *string     `json:"email" gorm:"size:255"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (Student) TableName() string {
	return "students"
}

// Identity is the authenticated principal carried through request handling.
// It is a projection of the roster row embedded in the auth token, never the
// row itself.
type Identity struct {
	Login      string      `json:"login"`
	LastName   string      `json:"nom"`
	FirstName  string      `json:"prenom"`
	Department string      `json:"departement"`
	Track      string      `json:"filiere"`
	Year       string      `json:"annee"`
	Role       StudentRole `json:"role"`
}

func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

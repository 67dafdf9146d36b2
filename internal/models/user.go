package models

import (
	"time"

	"github.com/google/uuid"
)

// User category, fixed enumeration
type UserType string

const (
	UserTypeProdutor    UserType = "PRODUTOR"
	UserTypeCooperativa UserType = "COOPERATIVA"
	UserTypeComprador   UserType = "COMPRADOR"
)

// UserTypes lists every allowed user category
func UserTypes() []UserType {
	return []UserType{UserTypeProdutor, UserTypeCooperativa, UserTypeComprador}
}

func (t UserType) Valid() bool {
	switch t {
	case UserTypeProdutor, UserTypeCooperativa, UserTypeComprador:
		return true
	}
	return false
}

type User struct {
	ID             uuid.UUID
	Name           string
	Email          string
	HashedPassword string
	UserType       UserType
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

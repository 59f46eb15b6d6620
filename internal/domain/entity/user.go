package entity

import "time"

// User representa un usuario del sistema.
type User struct {
	ID           int64
	Username     string // único
	Email        string // único
	PasswordHash string // bcrypt hash, nunca plano en dominio después de persistir
	CreatedAt    time.Time
}

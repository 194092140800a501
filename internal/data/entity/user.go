package entity

type UserRole string

const (
	RoleClient UserRole = "client"
	RoleReader UserRole = "reader"
	RoleAdmin  UserRole = "admin"
)

// User is the slice of the account record this service reads and writes.
// Credits is only ever mutated through the ledger.
type User struct {
	Base
	Role    UserRole `db:"role"`
	Credits int      `db:"credits"`
}

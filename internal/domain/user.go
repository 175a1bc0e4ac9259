package domain

import "time"

// Role enumerates caller roles. A user's role is fixed at creation;
// there is no role-change operation.
type Role string

const (
	RoleAdmin Role = "ADMIN"
	RoleAgent Role = "AGENT"
	RoleUser  Role = "USER"
)

// Valid reports whether the role is one of the known variants.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleAgent, RoleUser:
		return true
	}
	return false
}

// User is the domain model for every account: end-users who submit
// tickets, agents who work them, and administrators.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	// QualificationIDs lists the problem types this agent handles.
	// Empty and meaningless for non-agent roles.
	QualificationIDs []string
	CreatedAt        time.Time
}

// IsQualifiedFor reports whether the user's qualification set contains
// the given problem type.
func (u User) IsQualifiedFor(problemTypeID string) bool {
	for _, id := range u.QualificationIDs {
		if id == problemTypeID {
			return true
		}
	}
	return false
}

package domain

import "time"

// AuditFields holds standard audit information for domain entities.
// The By fields reference the acting principal's ID (household or coordinator).
type AuditFields struct {
	CreatedAt     time.Time `json:"createdAt"`
	CreatedBy     string    `json:"createdBy"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
	LastUpdatedBy string    `json:"lastUpdatedBy"`
}

// Role is the capability class supplied by the authentication layer.
type Role string

const (
	RoleHousehold   Role = "household"
	RoleCoordinator Role = "coordinator"
)

// SystemActorID stamps audit fields for transitions the system applies on
// its own, such as time-driven completion.
const SystemActorID = "system"

// Actor is the authenticated principal behind a request. The core trusts
// the identity and enforces role checks at each state-mutating operation.
type Actor struct {
	ID   string
	Role Role
}

// IsCoordinator reports whether the actor holds the coordinator capability.
func (a Actor) IsCoordinator() bool {
	return a.Role == RoleCoordinator
}

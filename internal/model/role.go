package model

// Campus roles carried in the verified bearer token.  Authentication is an
// external collaborator; the booking core only consumes the (user_id, role)
// pair the middleware extracts.  ADMIN may cancel any reservation and
// manage rooms; the remaining roles act on their own bookings.
const (
	RoleStudent      = "STUDENT"
	RoleFaculty      = "FACULTY"
	RoleOrganization = "ORGANIZATION"
	RoleAdmin        = "ADMIN"
)

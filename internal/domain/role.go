package domain

// Roles carried in access tokens. Admins manage products, moderate reviews
// and change order status.
const (
	RoleAdmin    = "admin"
	RoleCustomer = "customer"
)

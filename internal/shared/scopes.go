package shared

// Administrative permissions guarding the authorization endpoints
// themselves. Mutating roles or overrides is gated recursively through the
// same resolver as everything else.
const (
	PermAuthzRolesView     = "authz.roles.view"
	PermAuthzRolesEdit     = "authz.roles.edit"
	PermAuthzOverridesView = "authz.overrides.view"
	PermAuthzOverridesEdit = "authz.overrides.edit"
	PermAuthzCatalogView   = "authz.catalog.view"
	PermAuthzCatalogEdit   = "authz.catalog.edit"
	PermUsersView          = "users.view"
	PermUsersEdit          = "users.edit"
)

// Business permissions consumed by the trading modules. The catalog is
// seeded from this list; modules register additional keys through the
// permissions service.
const (
	PermInvoiceRead   = "invoice.read"
	PermInvoiceCreate = "invoice.create"
	PermInvoiceVoid   = "invoice.void"
	PermProductRead   = "product.read"
	PermProductEdit   = "product.edit"
	PermBuyerRead     = "buyer.read"
	PermBuyerEdit     = "buyer.edit"
	PermSupplierRead  = "supplier.read"
	PermSupplierEdit  = "supplier.edit"
	PermStaffRead     = "staff.read"
	PermStaffEdit     = "staff.edit"
)

// CoreScopes lists every permission key the platform ships with.
func CoreScopes() []string {
	return []string{
		PermAuthzRolesView,
		PermAuthzRolesEdit,
		PermAuthzOverridesView,
		PermAuthzOverridesEdit,
		PermAuthzCatalogView,
		PermAuthzCatalogEdit,
		PermUsersView,
		PermUsersEdit,
		PermInvoiceRead,
		PermInvoiceCreate,
		PermInvoiceVoid,
		PermProductRead,
		PermProductEdit,
		PermBuyerRead,
		PermBuyerEdit,
		PermSupplierRead,
		PermSupplierEdit,
		PermStaffRead,
		PermStaffEdit,
	}
}

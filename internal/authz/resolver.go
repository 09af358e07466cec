package authz

// Resolve computes the effective permission set for one user.
//
// A SuperAdmin resolves to the full catalog and overrides are ignored
// entirely, DENY entries included, so the reserved role can never be locked
// out through an override. For everyone else the result is the role baseline
// plus GRANT overrides minus DENY overrides. Overrides whose key is no
// longer in the catalog are skipped silently: catalog entries come and go
// independently of role and override edits.
//
// Pure and deterministic; the inputs are never mutated.
func Resolve(catalog, roleGranted Set, overrides map[string]Mode, isSuperAdmin bool) Set {
	if isSuperAdmin {
		return catalog.Clone()
	}

	effective := make(Set, len(roleGranted)+len(overrides))
	for key := range roleGranted {
		effective[key] = struct{}{}
	}
	for key, mode := range overrides {
		if !catalog.Has(key) {
			continue
		}
		switch mode {
		case ModeGrant:
			effective[key] = struct{}{}
		case ModeDeny:
			delete(effective, key)
		}
	}
	return effective
}

package provenance

// ClassifyRole assigns a role from the gathered facts. Onboarding-chain facts decide first so that
// registry membership never hides a validator, operator or miner.
func ClassifyRole(f Facts, tower *TowerState, communityWallet bool) Role {
	switch {
	case f.ValidatorCreatedBy != nil && tower != nil:
		return RoleValidator
	case f.ValidatorCreatedBy != nil:
		return RoleOperator
	case tower != nil:
		return RoleMiner
	case communityWallet:
		return RoleCommunityWallet
	default:
		return RoleUnclassified
	}
}

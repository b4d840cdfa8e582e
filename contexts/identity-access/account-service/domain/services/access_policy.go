package services

import "atrium/contexts/identity-access/account-service/domain/entities"

// CanViewUser decides whether requester may read target's record.
// Only the owner may; there is no admin override.
func CanViewUser(requesterID, targetID string) bool {
	return requesterID != "" && requesterID == targetID
}

// CanViewOrganisation decides whether a requester holding the given
// memberships may read the organisation.
func CanViewOrganisation(orgID string, memberships []entities.Organisation) bool {
	for _, org := range memberships {
		if org.OrgID == orgID {
			return true
		}
	}
	return false
}

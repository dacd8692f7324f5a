package domain

// CanMutate reports whether requesterID may change a resource owned by
// ownerID. Roles grant no override.
func CanMutate(ownerID, requesterID string) bool {
	return ownerID != "" && ownerID == requesterID
}

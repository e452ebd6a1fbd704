// Package authz holds the pure ownership and event-role predicates used
// by the domain services. It has no storage or HTTP dependencies.
package authz

// Role is an event host role.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleCohost Role = "cohost"
)

// Valid reports whether r is a known host role.
func (r Role) Valid() bool {
	return r == RoleOwner || r == RoleCohost
}

// IsOwner reports whether the requester owns the resource.
func IsOwner(requesterID, ownerID int64) bool {
	return requesterID == ownerID
}

// CanEditComment allows the comment author only.
func CanEditComment(requesterID, authorID int64) bool {
	return requesterID == authorID
}

// CanDeleteComment allows the comment author or the author of the post
// the comment belongs to.
func CanDeleteComment(requesterID, commentAuthorID, postAuthorID int64) bool {
	return requesterID == commentAuthorID || requesterID == postAuthorID
}

// HostSet maps user ids to their role on one event.
type HostSet map[int64]Role

// IsHost reports whether userID holds any role on the event.
func (h HostSet) IsHost(userID int64) bool {
	_, ok := h[userID]
	return ok
}

// IsEventOwner reports whether userID holds the owner role.
func (h HostSet) IsEventOwner(userID int64) bool {
	return h[userID] == RoleOwner
}

// CanManageHosts allows only the event owner to add or remove hosts.
func (h HostSet) CanManageHosts(requesterID int64) bool {
	return h.IsEventOwner(requesterID)
}

// CanRemoveHost forbids removing the owner row or the requester removing
// themselves. Call after CanManageHosts.
func (h HostSet) CanRemoveHost(requesterID, targetID int64) bool {
	if requesterID == targetID {
		return false
	}
	return h[targetID] != RoleOwner
}

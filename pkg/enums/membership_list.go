package enums

import "fmt"

// MembershipList names the per-user recipe list a membership row belongs to.
type MembershipList string

const (
	MembershipListFavorite     MembershipList = "favorite"
	MembershipListShoppingCart MembershipList = "shopping_cart"
)

var validMembershipLists = []MembershipList{
	MembershipListFavorite,
	MembershipListShoppingCart,
}

// String implements fmt.Stringer.
func (m MembershipList) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MembershipList.
func (m MembershipList) IsValid() bool {
	for _, candidate := range validMembershipLists {
		if candidate == m {
			return true
		}
	}
	return false
}

// Label is the human readable list name used in error messages.
func (m MembershipList) Label() string {
	switch m {
	case MembershipListFavorite:
		return "favorites"
	case MembershipListShoppingCart:
		return "shopping cart"
	default:
		return string(m)
	}
}

// ParseMembershipList converts raw input into a MembershipList.
func ParseMembershipList(value string) (MembershipList, error) {
	for _, candidate := range validMembershipLists {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid membership list %q", value)
}

package enums

import "fmt"

// MediaKind defines where an uploaded image is used.
type MediaKind string

const (
	MediaKindRecipe MediaKind = "recipe"
	MediaKindAvatar MediaKind = "avatar"
)

var validMediaKinds = []MediaKind{
	MediaKindRecipe,
	MediaKindAvatar,
}

// String returns the literal string for the kind.
func (m MediaKind) String() string {
	return string(m)
}

// IsValid reports whether the kind is known.
func (m MediaKind) IsValid() bool {
	for _, candidate := range validMediaKinds {
		if candidate == m {
			return true
		}
	}
	return false
}

// Dir is the media sub-directory images of this kind are written to.
func (m MediaKind) Dir() string {
	switch m {
	case MediaKindRecipe:
		return "recipes"
	case MediaKindAvatar:
		return "users"
	default:
		return "other"
	}
}

// ParseMediaKind converts raw input into a MediaKind.
func ParseMediaKind(value string) (MediaKind, error) {
	for _, candidate := range validMediaKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid media kind %q", value)
}

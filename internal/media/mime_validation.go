package media

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/angelmondragon/foodgram-backend/pkg/enums"
)

type mimeGroup string

const mimeGroupImages mimeGroup = "images"

var mimeGroupNames = map[mimeGroup]string{
	mimeGroupImages: "PNG, JPEG, GIF or WebP images",
}

var mimeGroupTypes = map[mimeGroup][]string{
	mimeGroupImages: {"image/png", "image/jpeg", "image/webp", "image/gif"},
}

var allowedMimeGroupsByKind = map[enums.MediaKind][]mimeGroup{
	enums.MediaKindRecipe: {mimeGroupImages},
	enums.MediaKindAvatar: {mimeGroupImages},
}

var mimeTypesByKind = buildMimeTypesByKind()

func buildMimeTypesByKind() map[enums.MediaKind][]string {
	result := make(map[enums.MediaKind][]string, len(allowedMimeGroupsByKind))
	for kind, groups := range allowedMimeGroupsByKind {
		set := make(map[string]struct{})
		for _, group := range groups {
			for _, value := range mimeGroupTypes[group] {
				set[value] = struct{}{}
			}
		}
		list := make([]string, 0, len(set))
		for value := range set {
			list = append(list, value)
		}
		sort.Strings(list)
		result[kind] = list
	}
	return result
}

// sniff detects the content type from the payload bytes and checks it is
// allowed for kind. The declared data-URI type is never trusted.
func sniff(kind enums.MediaKind, data []byte) (*mimetype.MIME, error) {
	detected := mimetype.Detect(data)
	for _, allowed := range mimeTypesByKind[kind] {
		if detected.Is(allowed) {
			return detected, nil
		}
	}
	return nil, fmt.Errorf("unsupported file type %s; upload %s", detected.String(), allowedMimeDescription(kind))
}

func allowedMimeDescription(kind enums.MediaKind) string {
	var names []string
	for _, group := range allowedMimeGroupsByKind[kind] {
		if name, ok := mimeGroupNames[group]; ok {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return "the approved mime types"
	}
	return strings.Join(names, " or ")
}

// fieldFor names the request field an upload of kind arrives in.
func fieldFor(kind enums.MediaKind) string {
	if kind == enums.MediaKindAvatar {
		return "avatar"
	}
	return "image"
}

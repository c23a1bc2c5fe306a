package models

import "fmt"

// Collection names the independent document collections the site is built
// from. Handlers and services carry this tag explicitly; entity type is
// never inferred from the shape of a record.
type Collection string

const (
	CollectionProfile  Collection = "profile"
	CollectionSkills   Collection = "skills"
	CollectionProjects Collection = "projects"
	CollectionPosts    Collection = "posts"
	CollectionGallery  Collection = "gallery"
)

// ItemCollections lists the multi-record collections editable item by item.
// Profile is excluded: it is a singleton with explicit-save semantics.
func ItemCollections() []Collection {
	return []Collection{
		CollectionSkills,
		CollectionProjects,
		CollectionPosts,
		CollectionGallery,
	}
}

func ParseCollection(s string) (Collection, error) {
	switch c := Collection(s); c {
	case CollectionProfile, CollectionSkills, CollectionProjects, CollectionPosts, CollectionGallery:
		return c, nil
	}
	return "", fmt.Errorf("unknown collection %q", s)
}

// ParseItemCollection accepts only the multi-record collections.
func ParseItemCollection(s string) (Collection, error) {
	c, err := ParseCollection(s)
	if err != nil {
		return "", err
	}
	if c == CollectionProfile {
		return "", fmt.Errorf("collection %q is not item-addressable", s)
	}
	return c, nil
}

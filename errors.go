package blogs

import "errors"

var (
	// ErrNotFound is returned when a requested page, image or document does not exist.
	ErrNotFound = errors.New("not found")

	// ErrSlugInUse is returned when a sibling page already uses the slug.
	ErrSlugInUse = errors.New("slug already in use by a sibling page")

	// ErrInvalidSlug is returned when no slug can be derived for a page.
	ErrInvalidSlug = errors.New("slug is required")

	// ErrInvalidParent is returned when the parent page does not exist.
	ErrInvalidParent = errors.New("parent page does not exist")

	// ErrInvalidPageType is returned when a page type cannot be created or
	// does not match the stored page.
	ErrInvalidPageType = errors.New("invalid page type")

	// ErrRootPage is returned for operations not permitted on the tree root.
	ErrRootPage = errors.New("operation not permitted on the root page")

	// ErrDateRequired is returned when a blog page is saved without a post date.
	ErrDateRequired = errors.New("post date is required")
)

package services

// Paths handed to the cache invalidator. They are the routes the page cache
// stores responses under.
const (
	PathPublicProperties   = "/v1/properties"
	PathFeaturedProperties = "/v1/properties/featured"
	PathAdminProperties    = "/v1/admin/properties"
	PathAgent              = "/v1/agent"
	PathContentPrefix      = "/v1/content/"
)

func PublicPropertyPath(slug string) string { return PathPublicProperties + "/" + slug }

func SimilarPropertiesPath(slug string) string { return PublicPropertyPath(slug) + "/similar" }

func AdminPropertyPath(id string) string { return PathAdminProperties + "/" + id }

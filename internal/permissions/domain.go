package permissions

// Permission represents an atomic named capability, e.g. USER_VIEW.
type Permission struct {
	ID          int64
	Name        string
	Description string
}

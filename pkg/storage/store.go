package storage

// Well-known blob names in the work directory.
const (
	HeadName     = "HEAD"
	ReportedName = "REPORTED"
	StateName    = "STATE"
	PatchName    = "PATCH"
)

// Store defines the interface for blob persistence in a work directory.
// Implementations must guarantee that concurrent readers observe either the
// pre-write or post-write contents of a blob, never a torn file.
type Store interface {
	// Store atomically writes data under name, creating the work directory
	// on first use. The rename onto the final path is the commit point.
	Store(name string, data []byte) error

	// Load returns the contents of name. The second return is false when the
	// blob does not exist.
	Load(name string) ([]byte, bool, error)

	// Remove unlinks name and best-effort unlinks its lock file.
	Remove(name string) error

	// List returns the names of all entries in the work directory.
	List() ([]string, error)

	// Dir returns the work directory path.
	Dir() string
}

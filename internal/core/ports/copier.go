package ports

// TreeCopier copies directory trees into layer staging areas.
//
//go:generate go run go.uber.org/mock/mockgen -source=copier.go -destination=mocks/mock_copier.go -package=mocks
type TreeCopier interface {
	// CopyTree copies all files under src into dest, preserving relative
	// paths and file modes, skipping paths matching the ignore patterns.
	CopyTree(src, dest string, ignores []string) error
}

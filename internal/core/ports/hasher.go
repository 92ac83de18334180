package ports

// TreeHasher computes content hashes over files and directory trees.
//
//go:generate go run go.uber.org/mock/mockgen -source=hasher.go -destination=mocks/mock_hasher.go -package=mocks
type TreeHasher interface {
	// HashTree computes a deterministic hash over all files under root,
	// skipping paths matching the ignore patterns. Two trees with identical
	// relative paths and contents hash identically regardless of location.
	HashTree(root string, ignores []string) (string, error)

	// HashFile computes the content hash of a single file.
	HashFile(path string) (uint64, error)
}

package domain

import "time"

// Image is the finished build result handed to an image writer: the base layer
// stack plus the layers this build produced, and the runtime configuration.
type Image struct {
	// Base is the resolved base image whose layers sit at the bottom of the
	// stack.
	Base *BaseImage

	// Layers are the layers this build appended, in application order.
	Layers []Layer

	// Env is the merged image environment.
	Env []string

	// User is the runtime identity spec ("user:group"); never root.
	User string

	// WorkingDir is the process working directory.
	WorkingDir string

	// Cmd is the default argument vector starting the served process.
	Cmd []string

	// ExposedPorts lists exposed ports in OCI form (e.g., "8000/tcp").
	ExposedPorts []string

	// History records one entry per build step, cached or not.
	History []HistoryEntry

	// Created is the image creation timestamp.
	Created time.Time
}

// HistoryEntry is one line of the image config history. EmptyLayer marks
// steps that only changed configuration; the non-empty entries must line up
// with the appended layers.
type HistoryEntry struct {
	CreatedBy  string
	EmptyLayer bool
}

// AllLayers returns the full layer stack, base first.
func (img *Image) AllLayers() []Layer {
	all := make([]Layer, 0, len(img.Base.Layers)+len(img.Layers))
	all = append(all, img.Base.Layers...)
	return append(all, img.Layers...)
}

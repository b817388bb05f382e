package mdl

import "go.uber.org/zap"

// DefaultFPS is the frame rate used to convert key times to frames.
const DefaultFPS = 30

// Options carries the settings the parser and serializer need. It is passed
// explicitly to every entry point; the package holds no global state.
type Options struct {
	// FPS converts between key times (seconds) and integer frames.
	FPS int
	// Triangulate fan-triangulates host polygons on write. When false, a mesh
	// holding polygons with more than three corners is written without geometry.
	Triangulate bool
	// ExportAnimations controls whether animation blocks are written.
	ExportAnimations bool
	// Logger receives geometry warnings and debug traces.
	Logger *zap.Logger
}

// DefaultOptions returns the options used when nil is passed.
func DefaultOptions() *Options {
	return &Options{
		FPS:              DefaultFPS,
		Triangulate:      true,
		ExportAnimations: true,
		Logger:           zap.NewNop(),
	}
}

// normalize fills zero values so callers may pass partial options.
func (o *Options) normalize() *Options {
	if o == nil {
		return DefaultOptions()
	}
	out := *o
	if out.FPS <= 0 {
		out.FPS = DefaultFPS
	}
	if out.Logger == nil {
		out.Logger = zap.NewNop()
	}
	return &out
}

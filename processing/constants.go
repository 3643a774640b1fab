package processing

const (
	// Channels is the number of bytes per pixel. Frames are always
	// 4-channel RGBA; no other pixel format is supported.
	Channels = 4

	// BlurKernelSize and BlurSigma parameterize the noise-suppression
	// stage of the edge-detection recipe.
	BlurKernelSize = 5
	BlurSigma      = 1.5

	// LowThreshold and HighThreshold are the dual gradient thresholds of
	// the edge-extraction stage, on a 0-255 intensity scale.
	LowThreshold  = 50
	HighThreshold = 150

	// NonEdgeValue and EdgeValue are the only two values an edge map may
	// contain.
	NonEdgeValue = 0
	EdgeValue    = 255

	// OpaqueAlpha is written into the alpha channel of every recolored
	// edge frame.
	OpaqueAlpha = 255
)

const (
	EngineName    = "edge-detection-core"
	EngineVersion = "1.2.0"
)

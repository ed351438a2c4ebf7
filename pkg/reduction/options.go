package reduction

type runConfig struct {
	bufferSize int
}

// RunOption configures Pipeline.Run.
type RunOption func(c *runConfig)

// RunBufferSize sets the capacity of the channels linking stages. It defaults to 0.
func RunBufferSize(size int) RunOption {
	return func(c *runConfig) {
		if size > 0 {
			c.bufferSize = size
		}
	}
}

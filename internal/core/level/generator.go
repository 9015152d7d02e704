package level

import (
	"math/rand/v2"

	"github.com/aquilax/go-perlin"
)

// NoiseConfig tunes the coherent noise behind generated fields.
type NoiseConfig struct {
	Alpha     float64 `mapstructure:"alpha" yaml:"alpha"`
	Beta      float64 `mapstructure:"beta" yaml:"beta"`
	Octaves   int32   `mapstructure:"octaves" yaml:"octaves"`
	Frequency float64 `mapstructure:"frequency" yaml:"frequency"`
	Threshold float64 `mapstructure:"threshold" yaml:"threshold"`
}

// DefaultNoiseConfig returns the noise settings used for obstacle mode.
func DefaultNoiseConfig() NoiseConfig {
	return NoiseConfig{
		Alpha:     2,
		Beta:      2,
		Octaves:   3,
		Frequency: 0.1,
		Threshold: 0.2,
	}
}

// Generator produces bordered obstacle fields from Perlin noise.
type Generator struct {
	noise NoiseConfig
	seeds func() int64
}

// NewGenerator returns a generator that draws a fresh seed for every field.
func NewGenerator(noise NoiseConfig) *Generator {
	return &Generator{noise: noise, seeds: rand.Int64}
}

// NewSeededGenerator returns a generator whose every field uses seed. Fields
// are then reproducible, which is what tests and scenarios need.
func NewSeededGenerator(noise NoiseConfig, seed int64) *Generator {
	return &Generator{noise: noise, seeds: func() int64 { return seed }}
}

// Generate creates a width x height field with a new seed.
func (g *Generator) Generate(width, height int) *Field {
	return g.GenerateWithSeed(width, height, g.seeds())
}

// GenerateWithSeed creates a field deterministically from seed. The outer
// ring of cells is always blocked; interior cells are blocked where the noise
// sample exceeds the threshold.
func (g *Generator) GenerateWithSeed(width, height int, seed int64) *Field {
	noise := perlin.NewPerlin(g.noise.Alpha, g.noise.Beta, g.noise.Octaves, seed)
	f := NewField(width, height)

	for x := 0; x < width; x++ {
		f.AddObstacle(x, 0)
		f.AddObstacle(x, height-1)
	}

	for y := 1; y < height-1; y++ {
		f.AddObstacle(0, y)
		for x := 1; x < width-1; x++ {
			v := noise.Noise2D(float64(x)*g.noise.Frequency, float64(y)*g.noise.Frequency)
			if v > g.noise.Threshold {
				f.AddObstacle(x, y)
			}
		}
		f.AddObstacle(width-1, y)
	}

	return f
}

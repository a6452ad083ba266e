package manifold

import "math"

// Bounded lattice value noise in [0,1], used to break up the accretion
// density. Deterministic so temporal reconstruction sees a stable field.

func hash3(x, y, z int64) float64 {
	h := uint64(x)*0x9e3779b97f4a7c15 ^ uint64(y)*0xbf58476d1ce4e5b9 ^ uint64(z)*0x94d049bb133111eb
	h ^= h >> 31
	h *= 0xff51afd7ed558ccd
	h ^= h >> 33
	return float64(h>>11) / float64(1<<53)
}

func lerp(a, b, t float64) float64 { return a + (b-a)*t }

func fade(t float64) float64 { return t * t * (3 - 2*t) }

// valueNoise3 evaluates trilinearly interpolated lattice noise at (x,y,z).
func valueNoise3(x, y, z float64) float64 {
	xf, yf, zf := math.Floor(x), math.Floor(y), math.Floor(z)
	xi, yi, zi := int64(xf), int64(yf), int64(zf)
	tx, ty, tz := fade(x-xf), fade(y-yf), fade(z-zf)

	c000 := hash3(xi, yi, zi)
	c100 := hash3(xi+1, yi, zi)
	c010 := hash3(xi, yi+1, zi)
	c110 := hash3(xi+1, yi+1, zi)
	c001 := hash3(xi, yi, zi+1)
	c101 := hash3(xi+1, yi, zi+1)
	c011 := hash3(xi, yi+1, zi+1)
	c111 := hash3(xi+1, yi+1, zi+1)

	return lerp(
		lerp(lerp(c000, c100, tx), lerp(c010, c110, tx), ty),
		lerp(lerp(c001, c101, tx), lerp(c011, c111, tx), ty),
		tz,
	)
}

// fbm3 sums three octaves of value noise, still bounded in [0,1].
func fbm3(x, y, z float64) float64 {
	sum := 0.0
	amp := 0.5
	norm := 0.0
	for oct := 0; oct < 3; oct++ {
		sum += amp * valueNoise3(x, y, z)
		norm += amp
		x, y, z = x*2.17, y*2.17, z*2.17
		amp *= 0.5
	}
	return sum / norm
}

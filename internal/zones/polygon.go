package zones

import "math"

// ring is a closed sequence of lon/lat vertices.
type ring [][2]float64

// preparedPolygon carries one outer ring plus holes with a precomputed
// bounding box for cheap rejection.
type preparedPolygon struct {
	outer               ring
	holes               []ring
	minLon, minLat      float64
	maxLon, maxLat      float64
}

func preparePolygon(outer ring, holes []ring) preparedPolygon {
	p := preparedPolygon{
		outer:  outer,
		holes:  holes,
		minLon: math.Inf(1), minLat: math.Inf(1),
		maxLon: math.Inf(-1), maxLat: math.Inf(-1),
	}
	for _, v := range outer {
		p.minLon = math.Min(p.minLon, v[0])
		p.maxLon = math.Max(p.maxLon, v[0])
		p.minLat = math.Min(p.minLat, v[1])
		p.maxLat = math.Max(p.maxLat, v[1])
	}
	return p
}

// contains tests lon/lat against bbox, outer ring, then holes.
func (p preparedPolygon) contains(lon, lat float64) bool {
	if lon < p.minLon || lon > p.maxLon || lat < p.minLat || lat > p.maxLat {
		return false
	}
	if !rayCast(p.outer, lon, lat) {
		return false
	}
	for _, h := range p.holes {
		if rayCast(h, lon, lat) {
			return false
		}
	}
	return true
}

// rayCast is the even-odd crossing test. Points exactly on an edge may
// land either side; zone borders are not meaningful at that precision.
func rayCast(r ring, lon, lat float64) bool {
	inside := false
	n := len(r)
	if n < 3 {
		return false
	}
	j := n - 1
	for i := 0; i < n; i++ {
		xi, yi := r[i][0], r[i][1]
		xj, yj := r[j][0], r[j][1]
		if (yi > lat) != (yj > lat) &&
			lon < (xj-xi)*(lat-yi)/(yj-yi)+xi {
			inside = !inside
		}
		j = i
	}
	return inside
}

// approxAreaM2 computes the shoelace area of the outer ring minus holes,
// scaled from degrees to meters at the ring's mean latitude. Used only
// when the source data carries no area attribute.
func (p preparedPolygon) approxAreaM2() float64 {
	area := shoelaceM2(p.outer)
	for _, h := range p.holes {
		area -= shoelaceM2(h)
	}
	if area < 0 {
		area = -area
	}
	return area
}

func shoelaceM2(r ring) float64 {
	n := len(r)
	if n < 3 {
		return 0
	}
	meanLat := 0.0
	for _, v := range r {
		meanLat += v[1]
	}
	meanLat /= float64(n)
	const mPerDegLat = 111320.0
	mPerDegLon := mPerDegLat * math.Cos(meanLat*math.Pi/180)

	sum := 0.0
	j := n - 1
	for i := 0; i < n; i++ {
		sum += (r[j][0]*r[i][1] - r[i][0]*r[j][1])
		j = i
	}
	return math.Abs(sum) / 2 * mPerDegLat * mPerDegLon
}

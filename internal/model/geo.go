package model

import (
	"fmt"
	"math"
)

const earthRadiusKm = 6371.0

// HaversineKm is the great-circle distance between two coordinates.
func HaversineKm(a, b Coordinate) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(h))
}

// BeelineMinutes estimates straight-line travel time at the given speed.
func BeelineMinutes(a, b Coordinate, speedKmh float64) float64 {
	if speedKmh <= 0 {
		speedKmh = 25
	}
	return HaversineKm(a, b) / speedKmh * 60
}

// WithUTM returns a copy of c carrying WGS84/UTM easting and northing.
// Conversion uses the standard Krueger series, accurate to well under a
// meter, which is plenty for zone and distance work.
func (c Coordinate) WithUTM() Coordinate {
	const (
		a  = 6378137.0
		f  = 1 / 298.257223563
		k0 = 0.9996
	)
	zone := int(math.Floor((c.Lon+180)/6)) + 1
	if zone > 60 {
		zone = 60
	}
	lon0 := float64(zone-1)*6 - 180 + 3

	e2 := f * (2 - f)
	ep2 := e2 / (1 - e2)
	lat := c.Lat * math.Pi / 180
	dLon := (c.Lon - lon0) * math.Pi / 180

	n := a / math.Sqrt(1-e2*math.Sin(lat)*math.Sin(lat))
	t := math.Tan(lat) * math.Tan(lat)
	cc := ep2 * math.Cos(lat) * math.Cos(lat)
	A := math.Cos(lat) * dLon

	m := a * ((1-e2/4-3*e2*e2/64-5*e2*e2*e2/256)*lat -
		(3*e2/8+3*e2*e2/32+45*e2*e2*e2/1024)*math.Sin(2*lat) +
		(15*e2*e2/256+45*e2*e2*e2/1024)*math.Sin(4*lat) -
		(35*e2*e2*e2/3072)*math.Sin(6*lat))

	x := k0*n*(A+(1-t+cc)*A*A*A/6+(5-18*t+t*t+72*cc-58*ep2)*A*A*A*A*A/120) + 500000
	y := k0 * (m + n*math.Tan(lat)*(A*A/2+(5-t+9*cc+4*cc*cc)*A*A*A*A/24+
		(61-58*t+t*t+600*cc-330*ep2)*A*A*A*A*A*A/720))

	band := "N"
	if c.Lat < 0 {
		y += 10000000
		band = "S"
	}

	out := c
	out.UTMX = x
	out.UTMY = y
	out.UTMZone = fmt.Sprintf("%d%s", zone, band)
	return out
}

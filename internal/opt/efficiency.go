package opt

import (
	"time"

	"fleetassign/internal/model"
)

// RouteEfficiency summarizes a vehicle's planned route quality.
type RouteEfficiency struct {
	TotalKm             float64 `json:"totalKm"`
	TotalMinutes        float64 `json:"totalMinutes"`
	Stops               int     `json:"stops"`
	CapacityUtilization float64 `json:"capacityUtilization"`
	OnTimeRate          float64 `json:"onTimeRate"`
}

// Efficiency walks the vehicle's current orders in their stored
// sequence and reports the route's travel totals and deadline health.
func Efficiency(v *model.Vehicle) RouteEfficiency {
	eff := RouteEfficiency{
		CapacityUtilization: float64(v.CurrentLoad) / float64(v.MaxCapacity),
	}
	now := time.Now()
	pos := v.CurrentLocation
	t := 0.0
	onTime := 0
	for _, o := range v.CurrentOrders {
		if o.DeliveryLocation == nil {
			continue
		}
		eff.Stops++
		km := model.HaversineKm(pos, *o.DeliveryLocation)
		eff.TotalKm += km
		t += km / speedKmh * 60
		if t <= o.MinutesUntilDeadline(now) {
			onTime++
		}
		svc := o.ServiceMinutes
		if svc <= 0 {
			svc = model.ServiceTimeMinutes
		}
		t += svc
		pos = *o.DeliveryLocation
	}
	eff.TotalMinutes = t
	if eff.Stops > 0 {
		eff.OnTimeRate = float64(onTime) / float64(eff.Stops)
	}
	return eff
}

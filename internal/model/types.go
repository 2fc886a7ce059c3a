package model

import (
	"fmt"
	"time"
)

// ServiceTimeMinutes is the fixed on-site service time charged per stop
// (unloading, signature, verification).
const ServiceTimeMinutes = 5.0

// OrderPriority orders priorities from least to most pressing.
type OrderPriority string

const (
	PriorityLow    OrderPriority = "low"
	PriorityMedium OrderPriority = "medium"
	PriorityHigh   OrderPriority = "high"
	PriorityUrgent OrderPriority = "urgent"
)

// Multiplier returns the urgency weight applied to the time-urgency score.
func (p OrderPriority) Multiplier() float64 {
	switch p {
	case PriorityLow:
		return 0.8
	case PriorityHigh:
		return 1.2
	case PriorityUrgent:
		return 1.5
	default:
		return 1.0
	}
}

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderAssigned  OrderStatus = "assigned"
	OrderInTransit OrderStatus = "in_transit"
	OrderDelivered OrderStatus = "delivered"
	OrderCancelled OrderStatus = "cancelled"
	OrderFailed    OrderStatus = "failed"
)

type VehicleStatus string

const (
	VehicleAvailable   VehicleStatus = "available"
	VehicleBusy        VehicleStatus = "busy"
	VehicleOffline     VehicleStatus = "offline"
	VehicleMaintenance VehicleStatus = "maintenance"
)

// Coordinate is a WGS84 position. Projected easting/northing and the
// projection zone are attached once at construction time when known.
type Coordinate struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	UTMX    float64 `json:"utmX,omitempty"`
	UTMY    float64 `json:"utmY,omitempty"`
	UTMZone string  `json:"utmZone,omitempty"`
}

// NewCoordinate validates latitude/longitude ranges at construction.
func NewCoordinate(lat, lon float64) (Coordinate, error) {
	if lat < -90 || lat > 90 {
		return Coordinate{}, fmt.Errorf("latitude %v out of range [-90,90]", lat)
	}
	if lon < -180 || lon > 180 {
		return Coordinate{}, fmt.Errorf("longitude %v out of range [-180,180]", lon)
	}
	return Coordinate{Lat: lat, Lon: lon}, nil
}

// Validate re-checks the range invariant on a decoded coordinate.
func (c Coordinate) Validate() error {
	_, err := NewCoordinate(c.Lat, c.Lon)
	return err
}

// OrderItem is a single product line within an order.
type OrderItem struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	WeightKg float64 `json:"weightKg"`
}

// Order is a delivery to a single location with a hard deadline.
type Order struct {
	ID               string        `json:"id"`
	CustomerName     string        `json:"customerName,omitempty"`
	DeliveryLocation *Coordinate   `json:"deliveryLocation,omitempty"`
	CreatedAt        time.Time     `json:"createdAt"`
	Deadline         time.Time     `json:"deadline"`
	ServiceMinutes   float64       `json:"serviceMinutes,omitempty"`
	Priority         OrderPriority `json:"priority,omitempty"`
	Status           OrderStatus   `json:"status,omitempty"`
	Items            []OrderItem   `json:"items,omitempty"`
}

// NewOrder applies construction-time invariants: non-empty id, future
// deadline, non-negative item weights and quantities.
func NewOrder(id string, deadline time.Time, loc *Coordinate, priority OrderPriority, items []OrderItem) (*Order, error) {
	if id == "" {
		return nil, fmt.Errorf("order id must be non-empty")
	}
	now := time.Now()
	if !deadline.After(now) {
		return nil, fmt.Errorf("order %s: deadline must be in the future", id)
	}
	for _, it := range items {
		if it.WeightKg < 0 {
			return nil, fmt.Errorf("order %s: item %q has negative weight", id, it.Name)
		}
		if it.Quantity < 0 {
			return nil, fmt.Errorf("order %s: item %q has negative quantity", id, it.Name)
		}
	}
	if loc != nil {
		if err := loc.Validate(); err != nil {
			return nil, fmt.Errorf("order %s: %w", id, err)
		}
	}
	if priority == "" {
		priority = PriorityMedium
	}
	return &Order{
		ID:               id,
		DeliveryLocation: loc,
		CreatedAt:        now,
		Deadline:         deadline,
		ServiceMinutes:   ServiceTimeMinutes,
		Priority:         priority,
		Status:           OrderPending,
		Items:            items,
	}, nil
}

// TotalWeightKg sums item weights times quantities.
func (o *Order) TotalWeightKg() float64 {
	total := 0.0
	for _, it := range o.Items {
		q := it.Quantity
		if q == 0 {
			q = 1
		}
		total += it.WeightKg * float64(q)
	}
	return total
}

// MinutesUntilDeadline measured from now; negative when already past.
func (o *Order) MinutesUntilDeadline(now time.Time) float64 {
	return o.Deadline.Sub(now).Minutes()
}

// Vehicle is a fleet unit. CurrentOrders holds full order objects, not
// references: feasibility simulation needs their deadlines and
// delivery locations.
type Vehicle struct {
	ID              string        `json:"id"`
	DriverName      string        `json:"driverName,omitempty"`
	CurrentLocation Coordinate    `json:"currentLocation"`
	MaxCapacity     int           `json:"maxCapacity"`
	CurrentLoad     int           `json:"currentLoad"`
	MaxWeightKg     float64       `json:"maxWeightKg,omitempty"`
	CurrentWeightKg float64       `json:"currentWeightKg"`
	CurrentOrders   []*Order      `json:"currentOrders,omitempty"`
	Status          VehicleStatus `json:"status,omitempty"`
	SuccessRate     float64       `json:"successRate"`
	TotalDeliveries int           `json:"totalDeliveries"`
}

// NewVehicle validates the capacity and load invariants.
func NewVehicle(id string, loc Coordinate, maxCapacity, currentLoad int) (*Vehicle, error) {
	if id == "" {
		return nil, fmt.Errorf("vehicle id must be non-empty")
	}
	if err := loc.Validate(); err != nil {
		return nil, fmt.Errorf("vehicle %s: %w", id, err)
	}
	if maxCapacity < 1 {
		return nil, fmt.Errorf("vehicle %s: max capacity must be >= 1", id)
	}
	if currentLoad < 0 {
		return nil, fmt.Errorf("vehicle %s: current load must be >= 0", id)
	}
	if currentLoad > maxCapacity {
		return nil, fmt.Errorf("vehicle %s: current load %d exceeds capacity %d", id, currentLoad, maxCapacity)
	}
	return &Vehicle{
		ID:              id,
		CurrentLocation: loc,
		MaxCapacity:     maxCapacity,
		CurrentLoad:     currentLoad,
		Status:          VehicleAvailable,
		SuccessRate:     1.0,
	}, nil
}

// Validate re-checks invariants on a decoded vehicle.
func (v *Vehicle) Validate() error {
	if v.ID == "" {
		return fmt.Errorf("vehicle id must be non-empty")
	}
	if err := v.CurrentLocation.Validate(); err != nil {
		return fmt.Errorf("vehicle %s: %w", v.ID, err)
	}
	if v.MaxCapacity < 1 {
		return fmt.Errorf("vehicle %s: max capacity must be >= 1", v.ID)
	}
	if v.CurrentLoad < 0 || v.CurrentLoad > v.MaxCapacity {
		return fmt.Errorf("vehicle %s: load %d outside [0,%d]", v.ID, v.CurrentLoad, v.MaxCapacity)
	}
	if v.CurrentWeightKg < 0 {
		return fmt.Errorf("vehicle %s: current weight must be >= 0", v.ID)
	}
	if v.MaxWeightKg > 0 && v.CurrentWeightKg > v.MaxWeightKg {
		return fmt.Errorf("vehicle %s: weight %.1fkg exceeds max %.1fkg", v.ID, v.CurrentWeightKg, v.MaxWeightKg)
	}
	if v.SuccessRate < 0 || v.SuccessRate > 1 {
		return fmt.Errorf("vehicle %s: success rate %v outside [0,1]", v.ID, v.SuccessRate)
	}
	return nil
}

// AvailableCapacity is remaining concurrent-order slots.
func (v *Vehicle) AvailableCapacity() int { return v.MaxCapacity - v.CurrentLoad }

// IsAvailable reports whether the vehicle can take another order.
func (v *Vehicle) IsAvailable() bool {
	return v.Status == VehicleAvailable && v.CurrentLoad < v.MaxCapacity
}

// Clone deep-copies the vehicle and its assigned orders. The batch
// pipeline mutates copies, never caller state.
func (v *Vehicle) Clone() *Vehicle {
	cp := *v
	cp.CurrentOrders = make([]*Order, len(v.CurrentOrders))
	for i, o := range v.CurrentOrders {
		oc := *o
		if o.DeliveryLocation != nil {
			lc := *o.DeliveryLocation
			oc.DeliveryLocation = &lc
		}
		oc.Items = append([]OrderItem(nil), o.Items...)
		cp.CurrentOrders[i] = &oc
	}
	return &cp
}

// AssignmentScore is the immutable record of one vehicle/order
// evaluation: the weighted composite, every sub-score, the facts the
// sub-scores were derived from, and human-readable reasoning.
type AssignmentScore struct {
	TotalScore float64 `json:"totalScore"`

	DistanceScore           float64 `json:"distanceScore"`
	CapacityScore           float64 `json:"capacityScore"`
	TimeUrgencyScore        float64 `json:"timeUrgencyScore"`
	RouteCompatibilityScore float64 `json:"routeCompatibilityScore"`
	PerformanceScore        float64 `json:"performanceScore"`
	InterferenceScore       float64 `json:"interferenceScore"`

	DistanceToDeliveryKm     float64   `json:"distanceToDeliveryKm"`
	AvailableCapacity        int       `json:"availableCapacity"`
	TimeUntilDeadlineMinutes float64   `json:"timeUntilDeadlineMinutes"`
	EstimatedArrival         time.Time `json:"estimatedArrival"`
	WillArriveOnTime         bool      `json:"willArriveOnTime"`

	Reasoning []string `json:"reasoning"`
}

// Zone is one polygon of a classification layer. AreaM2 is used to
// order lookups (smallest first); geometry stays inside the zone engine.
type Zone struct {
	ID         string            `json:"id"`
	Code       string            `json:"code"`
	Name       string            `json:"name"`
	AreaM2     float64           `json:"areaM2"`
	Properties map[string]string `json:"properties,omitempty"`
}

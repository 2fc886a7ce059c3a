package api

import (
	"fmt"

	"fleetassign/internal/model"
)

func validateOrder(o *model.Order) error {
	if o == nil {
		return fmt.Errorf("order is required")
	}
	if o.ID == "" {
		return fmt.Errorf("order id is required")
	}
	if o.DeliveryLocation == nil {
		return fmt.Errorf("order %s: deliveryLocation is required", o.ID)
	}
	if err := o.DeliveryLocation.Validate(); err != nil {
		return fmt.Errorf("order %s: %w", o.ID, err)
	}
	if o.Deadline.IsZero() {
		return fmt.Errorf("order %s: deadline is required", o.ID)
	}
	for _, it := range o.Items {
		if it.WeightKg < 0 || it.Quantity < 0 {
			return fmt.Errorf("order %s: item %q has negative weight or quantity", o.ID, it.Name)
		}
	}
	return nil
}

func validateVehicles(vehicles []*model.Vehicle) error {
	if len(vehicles) == 0 {
		return fmt.Errorf("at least one vehicle is required")
	}
	seen := make(map[string]bool, len(vehicles))
	for _, v := range vehicles {
		if v == nil {
			return fmt.Errorf("vehicle entries must not be null")
		}
		if err := v.Validate(); err != nil {
			return err
		}
		if seen[v.ID] {
			return fmt.Errorf("duplicate vehicle id %s", v.ID)
		}
		seen[v.ID] = true
	}
	return nil
}

func validateOrders(orders []*model.Order) error {
	if len(orders) == 0 {
		return fmt.Errorf("at least one order is required")
	}
	seen := make(map[string]bool, len(orders))
	for _, o := range orders {
		if err := validateOrder(o); err != nil {
			return err
		}
		if seen[o.ID] {
			return fmt.Errorf("duplicate order id %s", o.ID)
		}
		seen[o.ID] = true
	}
	return nil
}

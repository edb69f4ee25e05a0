package session

import "fuelplanner/internal/timeline"

// Intent is a single user action routed through Session.Dispatch. Any input
// mechanism (CLI flag, chat button, drag and drop) produces one of these.
type Intent interface {
	Name() string
	isIntent()
}

// AddProduct drops a catalog product onto an hour.
type AddProduct struct {
	HourIndex int
	ProductID string
	Source    timeline.Source
}

type RemoveProduct struct {
	HourIndex  int
	EntryIndex int
}

type UpdateQuantity struct {
	HourIndex  int
	EntryIndex int
	Quantity   int
}

// UpdateFluid sets the total fluid of a drink-mix entry.
type UpdateFluid struct {
	HourIndex  int
	EntryIndex int
	Ml         float64
}

type SetWater struct {
	HourIndex int
	Ml        float64
}

type SetWaterSource struct {
	HourIndex int
	Source    timeline.Source
}

// SelectHour selects an hour. Selecting the active hour clears the selection.
type SelectHour struct {
	HourIndex int
}

// ClearPlan removes every entry and all water.
type ClearPlan struct{}

func (AddProduct) Name() string     { return "add_product" }
func (RemoveProduct) Name() string  { return "remove_product" }
func (UpdateQuantity) Name() string { return "update_quantity" }
func (UpdateFluid) Name() string    { return "update_fluid" }
func (SetWater) Name() string       { return "set_water" }
func (SetWaterSource) Name() string { return "set_water_source" }
func (SelectHour) Name() string     { return "select_hour" }
func (ClearPlan) Name() string      { return "clear_plan" }

func (AddProduct) isIntent()     {}
func (RemoveProduct) isIntent()  {}
func (UpdateQuantity) isIntent() {}
func (UpdateFluid) isIntent()    {}
func (SetWater) isIntent()       {}
func (SetWaterSource) isIntent() {}
func (SelectHour) isIntent()     {}
func (ClearPlan) isIntent()      {}

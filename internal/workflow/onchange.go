package workflow

import (
	"time"

	"estate/server/internal/models"
)

const (
	suggestedGardenArea        = 10
	suggestedGardenOrientation = models.OrientationNorth
)

// Onchange computes the values proposed to a caller editing a draft
// property, before anything is saved. changed lists the json names of the
// fields the caller just edited. The draft is not modified and the
// proposals are advisory: the caller may override them.
func Onchange(draft models.Property, changed []string, today time.Time) (map[string]interface{}, []models.Warning) {
	proposed := make(map[string]interface{})
	var warnings []models.Warning

	for _, field := range changed {
		switch field {
		case "garden":
			if draft.Garden {
				draft.GardenArea = suggestedGardenArea
				draft.GardenOrientation = suggestedGardenOrientation
			} else {
				draft.GardenArea = 0
				draft.GardenOrientation = models.OrientationUnset
			}
			proposed["garden_area"] = draft.GardenArea
			proposed["garden_orientation"] = draft.GardenOrientation
			proposed["total_area"] = models.ComputeTotalArea(draft.LivingArea, draft.GardenArea)
		case "living_area", "garden_area":
			proposed["total_area"] = models.ComputeTotalArea(draft.LivingArea, draft.GardenArea)
		case "date_availability":
			warnings = append(warnings, availabilityWarnings(draft.DateAvailability, today)...)
		}
	}
	return proposed, warnings
}

// Onchange builds a draft from defaults and fields, then proposes values
// for it with the engine's clock.
func (e *Engine) Onchange(fields PropertyFields, changed []string) (map[string]interface{}, []models.Warning) {
	draft := models.NewProperty(e.now())
	fields.apply(&draft)
	return Onchange(draft, changed, e.today())
}

func availabilityWarnings(date *time.Time, today time.Time) []models.Warning {
	if date == nil || !models.DateOf(*date).Before(models.DateOf(today)) {
		return nil
	}
	return []models.Warning{{
		Title:   "Warning",
		Message: "The availability date has been set in the past.",
	}}
}

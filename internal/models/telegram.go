package models

// TelegramConfig stores the bot credentials and basic settings
type TelegramConfig struct {
	IsEnabled bool   `json:"is_enabled"`
	BotToken  string `json:"bot_token"`
	ChatID    int64  `json:"chat_id"`
}

// TelegramFilters stores the notification filter settings
type TelegramFilters struct {
	EventTypes []EventType `json:"event_types"`
	MinPrice   *float64    `json:"min_price"`
}

// IsEventAllowed checks if an event matches the filter criteria
func (f *TelegramFilters) IsEventAllowed(event *Event) bool {
	if f == nil {
		return true // No filters means allow all
	}

	if len(f.EventTypes) > 0 {
		allowed := false
		for _, t := range f.EventTypes {
			if t == event.Type {
				allowed = true
				break
			}
		}
		if !allowed {
			return false
		}
	}

	// Price only applies to events that carry one
	if f.MinPrice != nil && event.Price > 0 && event.Price < *f.MinPrice {
		return false
	}

	return true
}

// Validate rejects unknown event types and negative prices.
func (f *TelegramFilters) Validate() error {
	for _, t := range f.EventTypes {
		if !t.IsValid() {
			return NewValidationError("event_types", "Unknown event type "+string(t)+".")
		}
	}
	if f.MinPrice != nil && *f.MinPrice < 0 {
		return NewValidationError("min_price", "The minimum price must be non-negative.")
	}
	return nil
}

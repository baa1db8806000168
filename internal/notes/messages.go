package notes

import "github.com/harrylevesque/revisitor/internal/models"

// EmptyMessage is shown when a fetch returns no notes.
func EmptyMessage(rng models.TimeRange, customRelay bool) string {
	switch {
	case rng == models.RangeAllTime && customRelay:
		return "No notes found on the selected relay. Try choosing a different relay to search for your notes."
	case rng == models.RangeAllTime:
		return "No notes found on your default relay. Try selecting a different relay above to search for older notes that might be stored elsewhere."
	}
	return "No notes found from the last month. Write some notes in your favorite Nostr client to start revisiting!"
}

// LoadingMessage is shown while a fetch is in flight.
func LoadingMessage(customRelay bool) string {
	if customRelay {
		return "Searching selected relay for notes..."
	}
	return "Loading notes..."
}

// CaughtUpMessage is shown when nothing is due.
const CaughtUpMessage = "No notes are due for revisiting right now. Check back later or write new notes in your favorite Nostr client."

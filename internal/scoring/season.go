package scoring

import (
	"time"

	"github.com/temcen/stayrank/pkg/models"
)

// SeasonOf maps a calendar month to its travel season: Mar-May spring,
// Jun-Aug summer, Sep-Nov autumn, Dec-Feb winter.
func SeasonOf(t time.Time) models.Season {
	switch t.Month() {
	case time.March, time.April, time.May:
		return models.Spring
	case time.June, time.July, time.August:
		return models.Summer
	case time.September, time.October, time.November:
		return models.Autumn
	default:
		return models.Winter
	}
}

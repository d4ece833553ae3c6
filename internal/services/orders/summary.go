package orders

import (
	"time"

	"github.com/ZenGummies/ShopBox/internal/models"
)

type Summary struct {
	Total    int                        `json:"total"`
	ByStatus map[models.OrderStatus]int `json:"byStatus"`

	// Revenue excludes cancelled orders.
	Revenue float64 `json:"revenue"`

	// Today counts orders created on the current local calendar date.
	Today int `json:"today"`
}

// Summarize derives the dashboard counters from an already-fetched list.
// No separate aggregation query: the list the dashboard polls is the
// single source.
func Summarize(list []*models.Order, now time.Time) Summary {
	sum := Summary{
		Total:    len(list),
		ByStatus: make(map[models.OrderStatus]int, 5),
	}
	y, m, d := now.Date()
	for _, o := range list {
		sum.ByStatus[o.Status]++
		if o.Status != models.OrderStatusCancelled {
			sum.Revenue += o.Price
		}
		oy, om, od := o.CreatedAt.In(now.Location()).Date()
		if oy == y && om == m && od == d {
			sum.Today++
		}
	}
	return sum
}

package shopapi

import (
	"time"

	"github.com/ZenGummies/ShopBox/internal/models"
	"github.com/ZenGummies/ShopBox/internal/services/tracking"
)

type createOrderRequest struct {
	Name       string  `json:"name" validate:"required"`
	Email      string  `json:"email" validate:"required,email"`
	Phone      string  `json:"phone" validate:"required"`
	Bundle     string  `json:"bundle" validate:"required"`
	BundleName string  `json:"bundleName"`
	Price      float64 `json:"price"`
	Gummies    int     `json:"gummies"`
	Days       int     `json:"days"`
}

type updateOrderRequest struct {
	Status *string `json:"status"`
	Notes  *string `json:"notes"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type trackingUserData struct {
	Email           string `json:"email"`
	Phone           string `json:"phone"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	ClientIPAddress string `json:"clientIpAddress"`
	ClientUserAgent string `json:"clientUserAgent"`
	FBC             string `json:"fbc"`
	FBP             string `json:"fbp"`
}

type trackingCustomData struct {
	Currency    string   `json:"currency"`
	Value       float64  `json:"value"`
	ContentIDs  []string `json:"contentIds"`
	ContentName string   `json:"contentName"`
	ContentType string   `json:"contentType"`
}

type trackingEventRequest struct {
	EventName      string             `json:"eventName" validate:"required"`
	UserData       trackingUserData   `json:"userData"`
	CustomData     trackingCustomData `json:"customData"`
	EventID        string             `json:"eventId"`
	EventSourceURL string             `json:"eventSourceUrl"`
}

func (r trackingEventRequest) toRelayInput() tracking.RelayInput {
	return tracking.RelayInput{
		EventName: r.EventName,
		UserData: tracking.UserData{
			Email:           r.UserData.Email,
			Phone:           r.UserData.Phone,
			FirstName:       r.UserData.FirstName,
			LastName:        r.UserData.LastName,
			ClientIPAddress: r.UserData.ClientIPAddress,
			ClientUserAgent: r.UserData.ClientUserAgent,
			FBC:             r.UserData.FBC,
			FBP:             r.UserData.FBP,
		},
		CustomData: tracking.CustomData{
			Currency:    r.CustomData.Currency,
			Value:       r.CustomData.Value,
			ContentIDs:  r.CustomData.ContentIDs,
			ContentName: r.CustomData.ContentName,
			ContentType: r.CustomData.ContentType,
		},
		EventID:        r.EventID,
		EventSourceURL: r.EventSourceURL,
	}
}

type orderJSON struct {
	ID          uint64    `json:"id"`
	OrderNumber string    `json:"orderNumber"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Bundle      string    `json:"bundle"`
	BundleName  string    `json:"bundleName"`
	Price       float64   `json:"price"`
	Gummies     int       `json:"gummies"`
	Days        int       `json:"days"`
	Status      string    `json:"status"`
	Notes       string    `json:"notes"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

func toOrderJSON(o *models.Order) orderJSON {
	return orderJSON{
		ID:          o.ID,
		OrderNumber: o.OrderNumber,
		Name:        o.Name,
		Email:       o.Email,
		Phone:       o.Phone,
		Bundle:      o.Bundle,
		BundleName:  o.BundleName,
		Price:       o.Price,
		Gummies:     o.Gummies,
		Days:        o.Days,
		Status:      string(o.Status),
		Notes:       o.Notes,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
	}
}

func toOrderListJSON(list []*models.Order) []orderJSON {
	out := make([]orderJSON, 0, len(list))
	for _, o := range list {
		out = append(out, toOrderJSON(o))
	}
	return out
}

package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"ride/internal/domain"
)

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationTripRequested NotificationType = "TRIP_REQUESTED"
	NotificationOfferCreated  NotificationType = "OFFER_CREATED"
	NotificationTripAccepted  NotificationType = "TRIP_ACCEPTED"
	NotificationDriverArrived NotificationType = "DRIVER_ARRIVED"
	NotificationTripStarted   NotificationType = "TRIP_STARTED"
	NotificationTripCompleted NotificationType = "TRIP_COMPLETED"
	NotificationTripCancelled NotificationType = "TRIP_CANCELLED"
	NotificationPaymentPaid   NotificationType = "PAYMENT_PAID"
)

// Notification represents a notification to be sent.
type Notification struct {
	ID          string
	Type        NotificationType
	RecipientID string
	Title       string
	Message     string
	Data        map[string]interface{}
	CreatedAt   time.Time
}

// NotificationService handles notification delivery.
type NotificationService struct {
	// In a real system, this would have:
	// - Push notification client (FCM, APNS)
	// - SMS client (Twilio)
	// - WebSocket connections for real-time delivery
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

// NotifyOfferCreated notifies the matched driver of a new trip offer.
func (s *NotificationService) NotifyOfferCreated(ctx context.Context, trip *domain.Trip) error {
	notification := Notification{
		Type:        NotificationOfferCreated,
		RecipientID: trip.DriverID,
		Title:       "New Trip Offer",
		Message:     fmt.Sprintf("New trip near you. Pickup at (%.4f, %.4f)", trip.PickupLat, trip.PickupLng),
		Data: map[string]interface{}{
			"trip_id":    trip.ID,
			"pickup_lat": trip.PickupLat,
			"pickup_lng": trip.PickupLng,
		},
		CreatedAt: time.Now(),
	}
	return s.send(ctx, notification)
}

// NotifyTripAccepted notifies the passenger that a driver accepted the offer.
func (s *NotificationService) NotifyTripAccepted(ctx context.Context, trip *domain.Trip) error {
	notification := Notification{
		Type:        NotificationTripAccepted,
		RecipientID: trip.PassengerID,
		Title:       "Driver Assigned",
		Message:     "A driver has accepted your trip",
		Data: map[string]interface{}{
			"trip_id":   trip.ID,
			"driver_id": trip.DriverID,
		},
		CreatedAt: time.Now(),
	}
	return s.send(ctx, notification)
}

// NotifyDriverArrived notifies the passenger that the driver has arrived.
func (s *NotificationService) NotifyDriverArrived(ctx context.Context, trip *domain.Trip) error {
	notification := Notification{
		Type:        NotificationDriverArrived,
		RecipientID: trip.PassengerID,
		Title:       "Driver Arrived",
		Message:     "Your driver has arrived at the pickup location",
		Data: map[string]interface{}{
			"trip_id": trip.ID,
		},
		CreatedAt: time.Now(),
	}
	return s.send(ctx, notification)
}

// NotifyTripStarted notifies the passenger that the trip has started.
func (s *NotificationService) NotifyTripStarted(ctx context.Context, trip *domain.Trip) error {
	notification := Notification{
		Type:        NotificationTripStarted,
		RecipientID: trip.PassengerID,
		Title:       "Trip Started",
		Message:     "Your trip has started. Enjoy your ride!",
		Data: map[string]interface{}{
			"trip_id": trip.ID,
		},
		CreatedAt: time.Now(),
	}
	return s.send(ctx, notification)
}

// NotifyTripCompleted notifies the passenger that the trip has ended.
func (s *NotificationService) NotifyTripCompleted(ctx context.Context, trip *domain.Trip) error {
	notification := Notification{
		Type:        NotificationTripCompleted,
		RecipientID: trip.PassengerID,
		Title:       "Trip Completed",
		Message:     fmt.Sprintf("Your trip has ended. Total fare: %.2f ILS", trip.FareAmount),
		Data: map[string]interface{}{
			"trip_id": trip.ID,
			"fare":    trip.FareAmount,
		},
		CreatedAt: time.Now(),
	}
	return s.send(ctx, notification)
}

// NotifyTripCancelled notifies the other party about a trip cancellation.
func (s *NotificationService) NotifyTripCancelled(ctx context.Context, trip *domain.Trip, cancelledBy, reason string) error {
	var recipientID, message string
	if cancelledBy == trip.PassengerID {
		recipientID = trip.DriverID
		message = "The passenger has cancelled the trip"
	} else {
		recipientID = trip.PassengerID
		message = "The driver has cancelled the trip"
	}
	if recipientID == "" {
		return nil
	}

	notification := Notification{
		Type:        NotificationTripCancelled,
		RecipientID: recipientID,
		Title:       "Trip Cancelled",
		Message:     message,
		Data: map[string]interface{}{
			"trip_id":      trip.ID,
			"cancelled_by": cancelledBy,
			"reason":       reason,
		},
		CreatedAt: time.Now(),
	}
	return s.send(ctx, notification)
}

// NotifyPaymentPaid notifies the passenger that cash payment was confirmed.
func (s *NotificationService) NotifyPaymentPaid(ctx context.Context, payment *domain.Payment) error {
	notification := Notification{
		Type:        NotificationPaymentPaid,
		RecipientID: payment.PassengerID,
		Title:       "Payment Confirmed",
		Message:     fmt.Sprintf("Cash payment of %.2f ILS confirmed", payment.Amount),
		Data: map[string]interface{}{
			"payment_id": payment.ID,
			"trip_id":    payment.TripID,
			"amount":     payment.Amount,
		},
		CreatedAt: time.Now(),
	}
	return s.send(ctx, notification)
}

// send delivers a notification (mock implementation).
func (s *NotificationService) send(ctx context.Context, notification Notification) error {
	log.Printf("[NOTIFICATION] Type=%s, Recipient=%s, Title=%s, Message=%s",
		notification.Type, notification.RecipientID, notification.Title, notification.Message)
	return nil
}

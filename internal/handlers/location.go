package handlers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/alenva214/Space-app/internal/acquisition"
	"github.com/alenva214/Space-app/internal/location"
)

// LocationStore is the slice of the location repository the handlers need.
type LocationStore interface {
	Create(l *location.Location) error
	ListByUser(userID uint) ([]location.Location, error)
	Delete(id, userID uint) error
	UpdateNotification(id, userID uint, notify bool, leadTime int, threshold float64) error
}

// OverpassPreviewer supplies the upcoming-pass preview returned when a
// location is submitted. May be nil, in which case no preview is attached.
type OverpassPreviewer interface {
	Overpasses(ctx context.Context, lat, lon float64, w acquisition.Window) ([]acquisition.Overpass, error)
}

const previewDays = 7
const previewLimit = 5

type submitLocationRequest struct {
	Name                   string   `json:"name"`
	Latitude               *float64 `json:"latitude"`
	Longitude              *float64 `json:"longitude"`
	Notify                 *bool    `json:"notify"`
	NotificationLeadTime   *int     `json:"notification_lead_time"`
	CloudCoverageThreshold *float64 `json:"cloud_coverage_threshold"`
}

type notifyUpdateRequest struct {
	Notify                 bool     `json:"notify"`
	NotificationLeadTime   *int     `json:"notification_lead_time"`
	CloudCoverageThreshold *float64 `json:"cloud_coverage_threshold"`
}

// POST /locations
func SubmitLocation(store LocationStore, previewer OverpassPreviewer) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(uint)

		var req submitLocationRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}
		if req.Latitude == nil || req.Longitude == nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Latitude and longitude are required"})
		}

		l := &location.Location{
			Name:                   req.Name,
			Latitude:               *req.Latitude,
			Longitude:              *req.Longitude,
			Notify:                 true,
			NotificationLeadTime:   location.DefaultLeadTimeHours,
			CloudCoverageThreshold: location.DefaultCloudThreshold,
			UserID:                 userID,
		}
		if l.Name == "" {
			l.Name = fmt.Sprintf("Location at %v, %v", *req.Latitude, *req.Longitude)
		}
		if req.Notify != nil {
			l.Notify = *req.Notify
		}
		if req.NotificationLeadTime != nil {
			l.NotificationLeadTime = *req.NotificationLeadTime
		}
		if req.CloudCoverageThreshold != nil {
			l.CloudCoverageThreshold = *req.CloudCoverageThreshold
		}

		if err := l.Validate(); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}

		if err := store.Create(l); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
		}

		resp := fiber.Map{
			"message":  fmt.Sprintf("Saved location: %s", l.Name),
			"location": l,
		}
		if passes := previewPasses(c.UserContext(), previewer, l); passes != nil {
			resp["upcoming_passes"] = passes
		}

		return c.JSON(resp)
	}
}

// previewPasses fetches the next few predicted passes for a freshly saved
// location. Preview failures are logged and swallowed; saving the location
// already succeeded.
func previewPasses(ctx context.Context, previewer OverpassPreviewer, l *location.Location) []time.Time {
	if previewer == nil {
		return nil
	}

	now := time.Now()
	w := acquisition.Window{Start: now, End: now.Add(previewDays * 24 * time.Hour)}
	passes, err := previewer.Overpasses(ctx, l.Latitude, l.Longitude, w)
	if err != nil {
		log.WithError(err).WithField("location", l.Name).Warn("overpass preview failed")
		return nil
	}

	if len(passes) > previewLimit {
		passes = passes[:previewLimit]
	}
	times := make([]time.Time, 0, len(passes))
	for _, p := range passes {
		times = append(times, p.Time)
	}
	return times
}

// GET /locations
func ListLocations(store LocationStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(uint)

		locations, err := store.ListByUser(userID)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
		}
		return c.JSON(fiber.Map{"locations": locations})
	}
}

// DELETE /locations/:id
func DeleteLocation(store LocationStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(uint)

		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid location id"})
		}

		if err := store.Delete(uint(id), userID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Location not found"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
		}
		return c.JSON(fiber.Map{"message": "Location deleted"})
	}
}

// PUT /locations/:id/notify
func UpdateNotification(store LocationStore) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Locals("user_id").(uint)

		id, err := c.ParamsInt("id")
		if err != nil || id <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid location id"})
		}

		var req notifyUpdateRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request body"})
		}

		leadTime := location.DefaultLeadTimeHours
		if req.NotificationLeadTime != nil {
			leadTime = *req.NotificationLeadTime
		}
		threshold := location.DefaultCloudThreshold
		if req.CloudCoverageThreshold != nil {
			threshold = *req.CloudCoverageThreshold
		}

		check := location.Location{NotificationLeadTime: leadTime, CloudCoverageThreshold: threshold}
		if err := check.Validate(); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}

		if err := store.UpdateNotification(uint(id), userID, req.Notify, leadTime, threshold); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Location not found"})
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Database error"})
		}
		return c.JSON(fiber.Map{"message": "Notification settings updated"})
	}
}

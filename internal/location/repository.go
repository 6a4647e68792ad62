package location

import "gorm.io/gorm"

type Repository struct {
	DB *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{DB: db}
}

func (r *Repository) Create(l *Location) error {
	return r.DB.Create(l).Error
}

func (r *Repository) FindByID(id uint) (*Location, error) {
	var l Location
	if err := r.DB.First(&l, id).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *Repository) ListByUser(userID uint) ([]Location, error) {
	var locations []Location
	err := r.DB.Where("user_id = ?", userID).Order("created_at DESC").Find(&locations).Error
	return locations, err
}

func (r *Repository) Delete(id, userID uint) error {
	res := r.DB.Where("id = ? AND user_id = ?", id, userID).Delete(&Location{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// UpdateNotification updates the notify flag and notification settings of an
// owned location.
func (r *Repository) UpdateNotification(id, userID uint, notify bool, leadTime int, threshold float64) error {
	res := r.DB.Model(&Location{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]interface{}{
			"notify":                   notify,
			"notification_lead_time":   leadTime,
			"cloud_coverage_threshold": threshold,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListNotifyEnabled returns every location with notify = true joined with its
// owner's email. A LEFT JOIN is used on purpose: a location whose owner record
// is gone still comes back, with an empty OwnerEmail, so the notification
// cycle can log the anomaly instead of silently dropping it.
func (r *Repository) ListNotifyEnabled() ([]Target, error) {
	var targets []Target
	err := r.DB.Table("locations").
		Select("locations.*, users.email AS owner_email").
		Joins("LEFT JOIN users ON users.id = locations.user_id").
		Where("locations.notify = ?", true).
		Scan(&targets).Error
	return targets, err
}

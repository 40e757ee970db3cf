package billing

import (
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tenantfox/tenantfox/app/models"
)

// Repository provides DB operations used by the webhook reconciler.
type Repository interface {
	GetOrganizationByID(id string) (*models.Organization, error)
	GetOrganizationByCustomerID(customerID string) (*models.Organization, error)
	UpsertOrganization(org *models.Organization) error
	UpdateOrganizationSubscription(orgID string, updates map[string]interface{}) error
	CreateWebhookEventIfNotExists(event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error)
	MarkWebhookProcessed(id uint, processingError string) error
}

type gormRepository struct {
	db *gorm.DB
}

// NewRepository creates a billing repository backed by GORM.
func NewRepository(db *gorm.DB) Repository {
	return &gormRepository{db: db}
}

func (r *gormRepository) GetOrganizationByID(id string) (*models.Organization, error) {
	var org models.Organization
	if err := r.db.Where("id = ?", id).First(&org).Error; err != nil {
		return nil, err
	}
	return &org, nil
}

func (r *gormRepository) GetOrganizationByCustomerID(customerID string) (*models.Organization, error) {
	var org models.Organization
	if err := r.db.Where("stripe_customer_id = ?", customerID).First(&org).Error; err != nil {
		return nil, err
	}
	return &org, nil
}

// UpsertOrganization writes the full billing field set so that replayed
// events are naturally idempotent (last write wins).
func (r *gormRepository) UpsertOrganization(org *models.Organization) error {
	if err := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"stripe_customer_id",
			"stripe_subscription_id",
			"stripe_subscription_price_id",
			"stripe_subscription_status",
			"stripe_subscription_current_period_end",
			"updated_at",
		}),
	}).Create(org).Error; err != nil {
		return err
	}

	return r.db.Where("id = ?", org.ID).First(org).Error
}

func (r *gormRepository) UpdateOrganizationSubscription(orgID string, updates map[string]interface{}) error {
	return r.db.Model(&models.Organization{}).Where("id = ?", orgID).Updates(updates).Error
}

func (r *gormRepository) CreateWebhookEventIfNotExists(event *models.BillingWebhookEvent) (bool, *models.BillingWebhookEvent, error) {
	tx := r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "provider"},
			{Name: "provider_event_id"},
		},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, nil, tx.Error
	}

	created := tx.RowsAffected > 0
	var stored models.BillingWebhookEvent
	if err := r.db.Where("provider = ? AND provider_event_id = ?", event.Provider, event.ProviderEventID).
		First(&stored).Error; err != nil {
		return false, nil, err
	}
	return created, &stored, nil
}

func (r *gormRepository) MarkWebhookProcessed(id uint, processingError string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"processed_at":     &now,
		"processing_error": processingError,
	}
	return r.db.Model(&models.BillingWebhookEvent{}).Where("id = ?", id).Updates(updates).Error
}
